package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/portal-api/internal/models"
)

func TestAttendanceRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "student_id", "date", "status", "created_at", "updated_at"}).
		AddRow("a1", "p1", day, "ABSENT", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (student_id, date)")).
		WillReturnRows(rows)

	stored, err := repo.Upsert(context.Background(), &models.Attendance{
		StudentID: "p1",
		Date:      day,
		Status:    models.AttendanceAbsent,
	})
	require.NoError(t, err)
	// The conflict clause hands back the surviving row, whichever insert won.
	require.Equal(t, "a1", stored.ID)
	require.Equal(t, models.AttendanceAbsent, stored.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListByDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"user_id", "status"}).
		AddRow("u1", "PRESENT").
		AddRow("u2", "ABSENT")
	mock.ExpectQuery(regexp.QuoteMeta("JOIN student_profiles sp ON sp.id = a.student_id")).
		WithArgs(day).
		WillReturnRows(rows)

	result, err := repo.ListByDate(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.Equal(t, "u1", result[0].UserID)
	require.Equal(t, models.AttendancePresent, result[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCount(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM attendance")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	total, err := repo.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
