package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/campuskit/portal-api/internal/models"
	appErrors "github.com/campuskit/portal-api/pkg/errors"
)

const (
	adminDashboardCacheKey     = "dashboard:admin"
	studentDashboardKeyPattern = "dashboard:student:%s"
	dashboardCachePattern      = "dashboard:*"
)

// summaryInvalidator drops cached dashboard summaries after a write. The
// attendance, result and user services hold one so mutations are reflected
// on the next dashboard read instead of waiting out the TTL.
type summaryInvalidator interface {
	InvalidateAll(ctx context.Context)
}

type dashboardUserRepository interface {
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
}

type dashboardAttendanceRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Attendance, error)
	Count(ctx context.Context) (int, error)
}

type dashboardResultRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Result, error)
	Count(ctx context.Context) (int, error)
}

type dashboardProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
}

// AdminDashboard aggregates institution-wide counts.
type AdminDashboard struct {
	TotalStudents     int `json:"totalStudents"`
	TotalTeachers     int `json:"totalTeachers"`
	AttendanceRecords int `json:"attendanceRecords"`
	ResultsPublished  int `json:"resultsPublished"`
}

// StudentDashboard summarises one student's standing. GPA is a string so an
// empty transcript can render as "N/A" instead of a misleading zero.
type StudentDashboard struct {
	AttendancePercent int    `json:"attendancePercent"`
	GPA               string `json:"gpa"`
	DaysPresent       int    `json:"daysPresent"`
	DaysTotal         int    `json:"daysTotal"`
	SubjectsGraded    int    `json:"subjectsGraded"`
}

// DashboardService computes role-specific dashboard summaries, with optional
// Redis caching in front of the aggregate queries.
type DashboardService struct {
	users      dashboardUserRepository
	attendance dashboardAttendanceRepository
	results    dashboardResultRepository
	profiles   dashboardProfileRepository
	cache      *CacheService
	logger     *zap.Logger
}

// NewDashboardService constructs a DashboardService instance.
func NewDashboardService(
	users dashboardUserRepository,
	attendance dashboardAttendanceRepository,
	results dashboardResultRepository,
	profiles dashboardProfileRepository,
	cache *CacheService,
	logger *zap.Logger,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		users:      users,
		attendance: attendance,
		results:    results,
		profiles:   profiles,
		cache:      cache,
		logger:     logger,
	}
}

// AdminSummary returns institution-wide counts for the admin dashboard.
func (s *DashboardService) AdminSummary(ctx context.Context) (*AdminDashboard, error) {
	var cached AdminDashboard
	if s.cache.Get(ctx, adminDashboardCacheKey, &cached) {
		return &cached, nil
	}

	students, err := s.users.CountByRole(ctx, models.RoleStudent)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	teachers, err := s.users.CountByRole(ctx, models.RoleTeacher)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
	}
	attendanceCount, err := s.attendance.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
	}
	resultCount, err := s.results.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count results")
	}

	summary := &AdminDashboard{
		TotalStudents:     students,
		TotalTeachers:     teachers,
		AttendanceRecords: attendanceCount,
		ResultsPublished:  resultCount,
	}
	s.cache.Set(ctx, adminDashboardCacheKey, summary)
	return summary, nil
}

// StudentSummary returns the attendance percentage and GPA for the student
// owning the given user account. A student with no records gets 0 attendance
// and an "N/A" GPA.
func (s *DashboardService) StudentSummary(ctx context.Context, userID string) (*StudentDashboard, error) {
	key := fmt.Sprintf(studentDashboardKeyPattern, userID)
	var cached StudentDashboard
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	summary := &StudentDashboard{GPA: "N/A"}

	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return summary, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student profile")
	}

	attendance, err := s.attendance.ListByStudent(ctx, profile.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	present := 0
	for _, rec := range attendance {
		if rec.Status == models.AttendancePresent {
			present++
		}
	}
	summary.DaysPresent = present
	summary.DaysTotal = len(attendance)
	if len(attendance) > 0 {
		summary.AttendancePercent = int(math.Round(float64(present) / float64(len(attendance)) * 100))
	}

	results, err := s.results.ListByStudent(ctx, profile.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load results")
	}
	summary.SubjectsGraded = len(results)
	if len(results) > 0 {
		total := 0.0
		for _, res := range results {
			if res.MaxMarks > 0 {
				total += res.Marks / res.MaxMarks
			}
		}
		gpa := total / float64(len(results)) * 10
		summary.GPA = fmt.Sprintf("%.2f", gpa)
	}

	s.cache.Set(ctx, key, summary)
	return summary, nil
}

// InvalidateAll drops every cached dashboard entry. Call sites that mutate
// attendance, results or users use this to keep summaries fresh.
func (s *DashboardService) InvalidateAll(ctx context.Context) {
	s.cache.Invalidate(ctx, dashboardCachePattern)
}
