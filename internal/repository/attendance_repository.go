package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuskit/portal-api/internal/models"
)

const attendanceColumns = `id, student_id, date, status, created_at, updated_at`

// AttendanceRepository handles persistence for daily attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListAll returns every attendance row, newest date first.
func (r *AttendanceRepository) ListAll(ctx context.Context) ([]models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance ORDER BY date DESC, created_at DESC`, attendanceColumns)
	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return rows, nil
}

// ListByStudent returns one student's attendance history, newest first.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance WHERE student_id = $1 ORDER BY date DESC`, attendanceColumns)
	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list attendance by student: %w", err)
	}
	return rows, nil
}

// ListByDate returns the day's marks keyed back to the owning user. Rows whose
// profile has been removed drop out of the join.
func (r *AttendanceRepository) ListByDate(ctx context.Context, date time.Time) ([]models.AttendanceDayRow, error) {
	const query = `SELECT sp.user_id, a.status FROM attendance a
JOIN student_profiles sp ON sp.id = a.student_id
WHERE a.date = $1`
	var rows []models.AttendanceDayRow
	if err := r.db.SelectContext(ctx, &rows, query, date); err != nil {
		return nil, fmt.Errorf("list attendance by date: %w", err)
	}
	return rows, nil
}

// Upsert inserts or updates the mark for (student, date). Last write wins.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.Attendance) (*models.Attendance, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	query := fmt.Sprintf(`INSERT INTO attendance (id, student_id, date, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (student_id, date)
DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
RETURNING %s`, attendanceColumns)
	var stored models.Attendance
	if err := r.db.GetContext(ctx, &stored, query, record.ID, record.StudentID, record.Date, record.Status, record.CreatedAt, record.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	return &stored, nil
}

// Count returns the total number of attendance rows.
func (r *AttendanceRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM attendance`
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count attendance: %w", err)
	}
	return total, nil
}
