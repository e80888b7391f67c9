package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuskit/portal-api/internal/models"
	appErrors "github.com/campuskit/portal-api/pkg/errors"
)

type mockAttendanceRepo struct {
	records map[string]*models.Attendance
	all     []models.Attendance
	dayRows []models.AttendanceDayRow
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[string]*models.Attendance)}
}

func (m *mockAttendanceRepo) ListAll(ctx context.Context) ([]models.Attendance, error) {
	return m.all, nil
}

func (m *mockAttendanceRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Attendance, error) {
	var out []models.Attendance
	for _, rec := range m.records {
		if rec.StudentID == studentID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (m *mockAttendanceRepo) ListByDate(ctx context.Context, date time.Time) ([]models.AttendanceDayRow, error) {
	return m.dayRows, nil
}

func (m *mockAttendanceRepo) Upsert(ctx context.Context, record *models.Attendance) (*models.Attendance, error) {
	key := record.StudentID + "|" + record.Date.Format("2006-01-02")
	if existing, ok := m.records[key]; ok {
		existing.Status = record.Status
		existing.UpdatedAt = record.UpdatedAt
		return existing, nil
	}
	m.records[key] = record
	return record, nil
}

func (m *mockAttendanceRepo) Count(ctx context.Context) (int, error) {
	return len(m.records), nil
}

func TestAttendanceDayMap(t *testing.T) {
	repo := newMockAttendanceRepo()
	repo.dayRows = []models.AttendanceDayRow{
		{UserID: "u1", Status: models.AttendancePresent},
		{UserID: "u2", Status: models.AttendanceAbsent},
	}
	svc := NewAttendanceService(repo, newMockProfileRepo(), nil, zap.NewNop())

	dayMap, err := svc.DayMap(context.Background(), "2025-03-10")
	require.NoError(t, err)
	assert.Len(t, dayMap, 2)
	assert.Equal(t, models.AttendancePresent, dayMap["u1"])
	assert.Equal(t, models.AttendanceAbsent, dayMap["u2"])
}

func TestAttendanceDayMapRejectsBadDate(t *testing.T) {
	svc := NewAttendanceService(newMockAttendanceRepo(), newMockProfileRepo(), nil, zap.NewNop())

	_, err := svc.DayMap(context.Background(), "10-03-2025")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceBulkMarkSkipsUnknownStudents(t *testing.T) {
	repo := newMockAttendanceRepo()
	profiles := newMockProfileRepo()
	profiles.byUserID["u1"] = &models.StudentProfile{ID: "p1", UserID: "u1"}
	svc := NewAttendanceService(repo, profiles, nil, zap.NewNop())

	marked, err := svc.BulkMark(context.Background(), BulkAttendanceRequest{
		Date: "2025-03-10",
		Records: []MarkAttendanceRequest{
			{UserID: "u1", Status: models.AttendancePresent},
			{UserID: "ghost", Status: models.AttendanceAbsent},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, marked)
	assert.Len(t, repo.records, 1)
}

func TestAttendanceBulkMarkLastWriteWins(t *testing.T) {
	repo := newMockAttendanceRepo()
	profiles := newMockProfileRepo()
	profiles.byUserID["u1"] = &models.StudentProfile{ID: "p1", UserID: "u1"}
	svc := NewAttendanceService(repo, profiles, nil, zap.NewNop())

	_, err := svc.BulkMark(context.Background(), BulkAttendanceRequest{
		Date:    "2025-03-10",
		Records: []MarkAttendanceRequest{{UserID: "u1", Status: models.AttendancePresent}},
	})
	require.NoError(t, err)

	_, err = svc.BulkMark(context.Background(), BulkAttendanceRequest{
		Date:    "2025-03-10",
		Records: []MarkAttendanceRequest{{UserID: "u1", Status: models.AttendanceAbsent}},
	})
	require.NoError(t, err)

	require.Len(t, repo.records, 1)
	for _, rec := range repo.records {
		assert.Equal(t, models.AttendanceAbsent, rec.Status)
	}
}

func TestAttendanceBulkMarkDropsCachedDashboards(t *testing.T) {
	repo := newMockAttendanceRepo()
	profiles := newMockProfileRepo()
	profiles.byUserID["u1"] = &models.StudentProfile{ID: "p1", UserID: "u1"}
	dashboards := &mockInvalidator{}
	svc := NewAttendanceService(repo, profiles, dashboards, zap.NewNop())

	_, err := svc.BulkMark(context.Background(), BulkAttendanceRequest{
		Date:    "2025-03-10",
		Records: []MarkAttendanceRequest{{UserID: "u1", Status: models.AttendancePresent}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, dashboards.calls)

	// A batch with only unknown students leaves the cache alone.
	_, err = svc.BulkMark(context.Background(), BulkAttendanceRequest{
		Date:    "2025-03-11",
		Records: []MarkAttendanceRequest{{UserID: "ghost", Status: models.AttendanceAbsent}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, dashboards.calls)
}

func TestAttendanceBulkMarkRejectsBadDate(t *testing.T) {
	svc := NewAttendanceService(newMockAttendanceRepo(), newMockProfileRepo(), nil, zap.NewNop())

	_, err := svc.BulkMark(context.Background(), BulkAttendanceRequest{
		Date:    "10/03/2025",
		Records: []MarkAttendanceRequest{{UserID: "u1", Status: models.AttendancePresent}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceBulkMarkRejectsBadStatus(t *testing.T) {
	profiles := newMockProfileRepo()
	profiles.byUserID["u1"] = &models.StudentProfile{ID: "p1", UserID: "u1"}
	svc := NewAttendanceService(newMockAttendanceRepo(), profiles, nil, zap.NewNop())

	_, err := svc.BulkMark(context.Background(), BulkAttendanceRequest{
		Date:    "2025-03-10",
		Records: []MarkAttendanceRequest{{UserID: "u1", Status: models.AttendanceStatus("LATE")}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceStudentHistoryWithoutProfile(t *testing.T) {
	svc := NewAttendanceService(newMockAttendanceRepo(), newMockProfileRepo(), nil, zap.NewNop())

	records, err := svc.StudentHistory(context.Background(), "no-profile")
	require.NoError(t, err)
	assert.Empty(t, records)
}
