package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuskit/portal-api/internal/models"
)

const resultColumns = `id, student_id, subject, marks, max_marks, result_status, semester, created_at`

// ResultRepository handles persistence for subject results.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository constructs the repository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// ListAll returns every result row, newest first.
func (r *ResultRepository) ListAll(ctx context.Context) ([]models.Result, error) {
	query := fmt.Sprintf(`SELECT %s FROM results ORDER BY created_at DESC`, resultColumns)
	var rows []models.Result
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return rows, nil
}

// ListByStudent returns one student's results, newest first.
func (r *ResultRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Result, error) {
	query := fmt.Sprintf(`SELECT %s FROM results WHERE student_id = $1 ORDER BY created_at DESC`, resultColumns)
	var rows []models.Result
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list results by student: %w", err)
	}
	return rows, nil
}

// Create inserts a new result.
func (r *ResultRepository) Create(ctx context.Context, result *models.Result) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO results (id, student_id, subject, marks, max_marks, result_status, semester, created_at)
VALUES (:id, :student_id, :subject, :marks, :max_marks, :result_status, :semester, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("create result: %w", err)
	}
	return nil
}

// Count returns the total number of result rows.
func (r *ResultRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM results`
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count results: %w", err)
	}
	return total, nil
}
