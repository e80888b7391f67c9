package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuskit/portal-api/internal/models"
	appErrors "github.com/campuskit/portal-api/pkg/errors"
)

const attendanceDateLayout = "2006-01-02"

type attendanceRepository interface {
	ListAll(ctx context.Context) ([]models.Attendance, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Attendance, error)
	ListByDate(ctx context.Context, date time.Time) ([]models.AttendanceDayRow, error)
	Upsert(ctx context.Context, record *models.Attendance) (*models.Attendance, error)
}

type attendanceProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
	List(ctx context.Context) ([]models.StudentProfile, error)
}

// MarkAttendanceRequest is a single attendance decision for one student on
// the request's date.
type MarkAttendanceRequest struct {
	UserID string                  `json:"userId" validate:"required"`
	Status models.AttendanceStatus `json:"status" validate:"required"`
}

// BulkAttendanceRequest marks attendance for many students on one date.
type BulkAttendanceRequest struct {
	Date    string                  `json:"date" validate:"required"`
	Records []MarkAttendanceRequest `json:"records" validate:"required,dive"`
}

// AttendanceService covers daily attendance capture and history queries.
type AttendanceService struct {
	repo       attendanceRepository
	profiles   attendanceProfileRepository
	dashboards summaryInvalidator
	logger     *zap.Logger
}

// NewAttendanceService constructs an AttendanceService instance. dashboards
// may be nil when cached summaries are not in play.
func NewAttendanceService(repo attendanceRepository, profiles attendanceProfileRepository, dashboards summaryInvalidator, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, profiles: profiles, dashboards: dashboards, logger: logger}
}

// DayMap returns userId -> status for every student with a record on the
// given date. Students without a record that day are absent from the map.
func (s *AttendanceService) DayMap(ctx context.Context, date string) (map[string]models.AttendanceStatus, error) {
	day, err := parseAttendanceDate(date)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByDate(ctx, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}

	result := make(map[string]models.AttendanceStatus, len(rows))
	for _, row := range rows {
		result[row.UserID] = row.Status
	}
	return result, nil
}

// BulkMark upserts one attendance row per known student in the request.
// Records for user ids without a student profile are skipped rather than
// failing the batch; re-marking the same date replaces the earlier status.
func (s *AttendanceService) BulkMark(ctx context.Context, req BulkAttendanceRequest) (int, error) {
	day, err := parseAttendanceDate(req.Date)
	if err != nil {
		return 0, err
	}
	if len(req.Records) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "records must not be empty")
	}

	marked := 0
	for _, rec := range req.Records {
		if !rec.Status.Valid() {
			return marked, appErrors.Clone(appErrors.ErrValidation, "status must be PRESENT or ABSENT")
		}

		profile, err := s.profiles.FindByUserID(ctx, rec.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				s.logger.Debug("skipping attendance for unknown student", zap.String("user_id", rec.UserID))
				continue
			}
			return marked, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student profile")
		}

		now := time.Now().UTC()
		record := &models.Attendance{
			ID:        uuid.NewString(),
			StudentID: profile.ID,
			Date:      day,
			Status:    rec.Status,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := s.repo.Upsert(ctx, record); err != nil {
			return marked, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance")
		}
		marked++
	}

	if marked > 0 && s.dashboards != nil {
		s.dashboards.InvalidateAll(ctx)
	}

	s.logger.Info("attendance marked", zap.String("date", req.Date), zap.Int("count", marked))
	return marked, nil
}

// ListAll returns every attendance row, for the admin data dump endpoint.
func (s *AttendanceService) ListAll(ctx context.Context) ([]models.Attendance, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// StudentHistory returns the attendance history for the student owning the
// given user account, newest first.
func (s *AttendanceService) StudentHistory(ctx context.Context, userID string) ([]models.Attendance, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.Attendance{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student profile")
	}

	records, err := s.repo.ListByStudent(ctx, profile.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

func parseAttendanceDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date is required")
	}
	day, err := time.Parse(attendanceDateLayout, value)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD format")
	}
	return day, nil
}
