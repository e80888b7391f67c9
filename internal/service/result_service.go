package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuskit/portal-api/internal/models"
	appErrors "github.com/campuskit/portal-api/pkg/errors"
)

// passThresholdRatio is the marks fraction at which an unspecified result
// status resolves to PASS.
const passThresholdRatio = 0.4

type resultRepository interface {
	ListAll(ctx context.Context) ([]models.Result, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Result, error)
	Create(ctx context.Context, result *models.Result) error
}

type resultProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
	FindByID(ctx context.Context, id string) (*models.StudentProfile, error)
}

// CreateResultRequest is the teacher-facing payload for publishing a result.
type CreateResultRequest struct {
	StudentID string              `json:"studentId" validate:"required"`
	Subject   string              `json:"subject" validate:"required"`
	Marks     float64             `json:"marks" validate:"gte=0"`
	MaxMarks  float64             `json:"maxMarks" validate:"gt=0"`
	Semester  int                 `json:"semester" validate:"gte=1"`
	Status    models.ResultStatus `json:"resultStatus"`
}

// ResultService covers exam result publishing and retrieval.
type ResultService struct {
	repo       resultRepository
	profiles   resultProfileRepository
	dashboards summaryInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewResultService constructs a ResultService instance. dashboards may be
// nil when cached summaries are not in play.
func NewResultService(repo resultRepository, profiles resultProfileRepository, dashboards summaryInvalidator, validate *validator.Validate, logger *zap.Logger) *ResultService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ResultService{repo: repo, profiles: profiles, dashboards: dashboards, validator: validate, logger: logger}
}

// Create publishes a result for a student profile. When the caller omits the
// status it is derived from the marks ratio.
func (s *ResultService) Create(ctx context.Context, req CreateResultRequest) (*models.Result, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid result payload")
	}
	if req.Marks > req.MaxMarks {
		return nil, appErrors.Clone(appErrors.ErrValidation, "marks cannot exceed maxMarks")
	}

	if _, err := s.profiles.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student")
	}

	status := req.Status
	if status == "" {
		status = models.ResultFail
		if req.Marks >= req.MaxMarks*passThresholdRatio {
			status = models.ResultPass
		}
	}
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be PASS or FAIL")
	}

	result := &models.Result{
		ID:           uuid.NewString(),
		StudentID:    req.StudentID,
		Subject:      req.Subject,
		Marks:        req.Marks,
		MaxMarks:     req.MaxMarks,
		Semester:     req.Semester,
		ResultStatus: status,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save result")
	}

	if s.dashboards != nil {
		s.dashboards.InvalidateAll(ctx)
	}

	s.logger.Info("result published", zap.String("student_id", req.StudentID), zap.String("subject", req.Subject))
	return result, nil
}

// ListAll returns every result row, for the admin data dump endpoint.
func (s *ResultService) ListAll(ctx context.Context) ([]models.Result, error) {
	results, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list results")
	}
	return results, nil
}

// StudentResults returns the results for the student owning the given user
// account.
func (s *ResultService) StudentResults(ctx context.Context, userID string) ([]models.Result, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.Result{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student profile")
	}

	results, err := s.repo.ListByStudent(ctx, profile.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list results")
	}
	return results, nil
}
