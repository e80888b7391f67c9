package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuskit/portal-api/internal/models"
	appErrors "github.com/campuskit/portal-api/pkg/errors"
)

type studentProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
	List(ctx context.Context) ([]models.StudentProfile, error)
	Create(ctx context.Context, profile *models.StudentProfile) error
	Update(ctx context.Context, profile *models.StudentProfile) error
}

// UpdateProfileRequest captures the fields a student may edit on their own
// profile.
type UpdateProfileRequest struct {
	Course  *string `json:"course" validate:"omitempty,min=1,max=120"`
	Batch   *string `json:"batch" validate:"omitempty,min=1,max=40"`
	DOB     *string `json:"dob"`
	Phone   *string `json:"phone" validate:"omitempty,max=40"`
	Address *string `json:"address" validate:"omitempty,max=400"`
}

// StudentService manages the academic profile owned by a student account.
type StudentService struct {
	profiles  studentProfileRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService instance.
func NewStudentService(profiles studentProfileRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &StudentService{profiles: profiles, validator: validate, logger: logger}
}

// Profile returns the calling student's profile.
func (s *StudentService) Profile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch profile")
	}
	return profile, nil
}

// UpdateProfile applies a partial update to the calling student's profile.
// Accounts that predate profile provisioning get one created on first write,
// with the self-service defaults.
func (s *StudentService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*models.StudentProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch profile")
		}
		profile = &models.StudentProfile{
			ID:     uuid.NewString(),
			UserID: userID,
			Course: models.DefaultCourseStudent,
			Batch:  models.DefaultBatchStudent,
		}
		if err := s.profiles.Create(ctx, profile); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create profile")
		}
		s.logger.Info("student profile lazily created", zap.String("user_id", userID))
	}

	if req.Course != nil {
		profile.Course = *req.Course
	}
	if req.Batch != nil {
		profile.Batch = *req.Batch
	}
	if req.DOB != nil {
		profile.DOB = req.DOB
	}
	if req.Phone != nil {
		profile.Phone = req.Phone
	}
	if req.Address != nil {
		profile.Address = req.Address
	}

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return profile, nil
}

// ListProfiles returns every student profile, for staff-facing listings.
func (s *StudentService) ListProfiles(ctx context.Context) ([]models.StudentProfile, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list profiles")
	}
	return profiles, nil
}
