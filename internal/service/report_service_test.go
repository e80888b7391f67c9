package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuskit/portal-api/internal/models"
	"github.com/campuskit/portal-api/pkg/jobs"
	"github.com/campuskit/portal-api/pkg/storage"
)

type mockReportRepo struct {
	reports map[string]*models.Report
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{reports: make(map[string]*models.Report)}
}

func (m *mockReportRepo) Create(ctx context.Context, report *models.Report) error {
	m.reports[report.ID] = report
	return nil
}

func (m *mockReportRepo) FindByID(ctx context.Context, id string) (*models.Report, error) {
	report, ok := m.reports[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return report, nil
}

func (m *mockReportRepo) UpdateStatus(ctx context.Context, id string, status models.ReportStatus, filePath, errorMessage *string, finishedAt *time.Time) error {
	report, ok := m.reports[id]
	if !ok {
		return sql.ErrNoRows
	}
	report.Status = status
	report.FilePath = filePath
	report.ErrorMessage = errorMessage
	report.FinishedAt = finishedAt
	return nil
}

type staticAttendanceSource struct {
	records []models.Attendance
}

func (s *staticAttendanceSource) ListAll(ctx context.Context) ([]models.Attendance, error) {
	return s.records, nil
}

type failingResultSource struct{}

func (failingResultSource) ListAll(ctx context.Context) ([]models.Result, error) {
	return nil, errors.New("results table is unavailable")
}

type mockReportObserver struct {
	seen [][2]string
}

func (m *mockReportObserver) ObserveReport(reportType, outcome string) {
	m.seen = append(m.seen, [2]string{reportType, outcome})
}

func newTestReportService(t *testing.T, repo *mockReportRepo, results reportResultSource, observer reportObserver) *ReportService {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSigner("test-secret", time.Minute)
	attendance := &staticAttendanceSource{records: []models.Attendance{
		{ID: "a1", StudentID: "p1", Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), Status: models.AttendancePresent},
	}}
	return NewReportService(repo, attendance, results, store, signer, observer, zap.NewNop(), jobs.Options{Workers: 1})
}

func TestReportProcessFinishesAndCountsSuccess(t *testing.T) {
	repo := newMockReportRepo()
	observer := &mockReportObserver{}
	svc := newTestReportService(t, repo, failingResultSource{}, observer)

	report := &models.Report{
		ID:        "r1",
		Type:      models.ReportTypeAttendance,
		Format:    models.ReportFormatCSV,
		Status:    models.ReportStatusQueued,
		CreatedBy: "admin",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), report))

	err := svc.process(context.Background(), jobs.Job{ID: "r1", Type: reportJobType, Payload: "r1"})
	require.NoError(t, err)

	assert.Equal(t, models.ReportStatusFinished, report.Status)
	require.NotNil(t, report.FilePath)
	assert.NotNil(t, report.FinishedAt)
	assert.Equal(t, [][2]string{{"attendance", "success"}}, observer.seen)
}

func TestReportProcessMarksFailureAndCountsIt(t *testing.T) {
	repo := newMockReportRepo()
	observer := &mockReportObserver{}
	svc := newTestReportService(t, repo, failingResultSource{}, observer)

	report := &models.Report{
		ID:        "r2",
		Type:      models.ReportTypeResults,
		Format:    models.ReportFormatCSV,
		Status:    models.ReportStatusQueued,
		CreatedBy: "admin",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), report))

	err := svc.process(context.Background(), jobs.Job{ID: "r2", Type: reportJobType, Payload: "r2"})
	require.Error(t, err)

	assert.Equal(t, models.ReportStatusFailed, report.Status)
	require.NotNil(t, report.ErrorMessage)
	assert.Contains(t, *report.ErrorMessage, "results table is unavailable")
	assert.Equal(t, [][2]string{{"results", "failure"}}, observer.seen)
}
