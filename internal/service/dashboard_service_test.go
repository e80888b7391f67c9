package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuskit/portal-api/internal/models"
)

type mockCountUserRepo struct {
	counts map[models.UserRole]int
}

func (m *mockCountUserRepo) CountByRole(ctx context.Context, role models.UserRole) (int, error) {
	return m.counts[role], nil
}

type mockInvalidator struct {
	calls int
}

func (m *mockInvalidator) InvalidateAll(ctx context.Context) {
	m.calls++
}

func newTestDashboardService(
	users *mockCountUserRepo,
	attendance *mockAttendanceRepo,
	results *mockResultRepo,
	profiles *mockProfileRepo,
) *DashboardService {
	cache := NewCacheService(nil, false, nil, zap.NewNop())
	return NewDashboardService(users, attendance, results, profiles, cache, zap.NewNop())
}

func TestDashboardStudentSummaryEmpty(t *testing.T) {
	svc := newTestDashboardService(
		&mockCountUserRepo{},
		newMockAttendanceRepo(),
		&mockResultRepo{},
		newMockProfileRepo(),
	)

	summary, err := svc.StudentSummary(context.Background(), "no-profile")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.AttendancePercent)
	assert.Equal(t, "N/A", summary.GPA)
}

func TestDashboardStudentSummaryComputed(t *testing.T) {
	attendance := newMockAttendanceRepo()
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, status := range []models.AttendanceStatus{
		models.AttendancePresent, models.AttendancePresent, models.AttendanceAbsent,
	} {
		rec := &models.Attendance{ID: string(rune('a' + i)), StudentID: "p1", Date: day.AddDate(0, 0, i), Status: status}
		key := rec.StudentID + "|" + rec.Date.Format("2006-01-02")
		attendance.records[key] = rec
	}

	results := &mockResultRepo{results: []models.Result{
		{StudentID: "p1", Marks: 80, MaxMarks: 100},
		{StudentID: "p1", Marks: 60, MaxMarks: 100},
	}}

	profiles := newMockProfileRepo()
	profiles.byUserID["u1"] = &models.StudentProfile{ID: "p1", UserID: "u1"}

	svc := newTestDashboardService(&mockCountUserRepo{}, attendance, results, profiles)

	summary, err := svc.StudentSummary(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 67, summary.AttendancePercent)
	assert.Equal(t, "7.00", summary.GPA)
	assert.Equal(t, 2, summary.DaysPresent)
	assert.Equal(t, 3, summary.DaysTotal)
	assert.Equal(t, 2, summary.SubjectsGraded)
}

func TestDashboardAdminSummaryCounts(t *testing.T) {
	users := &mockCountUserRepo{counts: map[models.UserRole]int{
		models.RoleStudent: 12,
		models.RoleTeacher: 3,
	}}
	attendance := newMockAttendanceRepo()
	attendance.records["p1|2025-03-01"] = &models.Attendance{}
	results := &mockResultRepo{results: []models.Result{{}, {}}}

	svc := newTestDashboardService(users, attendance, results, newMockProfileRepo())

	summary, err := svc.AdminSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, summary.TotalStudents)
	assert.Equal(t, 3, summary.TotalTeachers)
	assert.Equal(t, 1, summary.AttendanceRecords)
	assert.Equal(t, 2, summary.ResultsPublished)
}
