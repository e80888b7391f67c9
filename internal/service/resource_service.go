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

type resourceRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.StudentResource, error)
	FindByID(ctx context.Context, id string) (*models.StudentResource, error)
	Create(ctx context.Context, resource *models.StudentResource) error
	Update(ctx context.Context, resource *models.StudentResource) error
	Delete(ctx context.Context, id string) error
}

type resourceProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
	Create(ctx context.Context, profile *models.StudentProfile) error
}

// CreateResourceRequest is the payload for adding a learning resource.
type CreateResourceRequest struct {
	Name     string                  `json:"name" validate:"required,min=1,max=200"`
	URL      *string                 `json:"url" validate:"omitempty,url"`
	Category string                  `json:"category"`
	Icon     string                  `json:"icon"`
	Status   models.ResourceStatus   `json:"status"`
	Projects models.ResourceProjects `json:"projects"`
	Notes    *string                 `json:"notes"`
}

// UpdateResourceRequest captures partial updates to a learning resource.
type UpdateResourceRequest struct {
	Name           *string                  `json:"name" validate:"omitempty,min=1,max=200"`
	URL            *string                  `json:"url" validate:"omitempty,url"`
	Category       *string                  `json:"category"`
	Icon           *string                  `json:"icon"`
	Status         *models.ResourceStatus   `json:"status"`
	CertificateURL *string                  `json:"certificateUrl" validate:"omitempty,url"`
	Projects       *models.ResourceProjects `json:"projects"`
	Notes          *string                  `json:"notes"`
}

// ResourceService manages a student's personal learning resources. All
// operations are scoped to the calling student; touching another student's
// resource reports not found rather than forbidden.
type ResourceService struct {
	repo      resourceRepository
	profiles  resourceProfileRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResourceService constructs a ResourceService instance.
func NewResourceService(repo resourceRepository, profiles resourceProfileRepository, validate *validator.Validate, logger *zap.Logger) *ResourceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ResourceService{repo: repo, profiles: profiles, validator: validate, logger: logger}
}

// List returns the calling student's resources.
func (s *ResourceService) List(ctx context.Context, userID string) ([]models.StudentResource, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.StudentResource{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student profile")
	}

	resources, err := s.repo.ListByStudent(ctx, profile.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list resources")
	}
	return resources, nil
}

// Create adds a resource for the calling student, filling the category, icon
// and status defaults when the payload omits them.
func (s *ResourceService) Create(ctx context.Context, userID string, req CreateResourceRequest) (*models.StudentResource, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resource payload")
	}

	profile, err := s.ensureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.ResourceWantToLearn
	}
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be WANT_TO_LEARN, LEARNING or MASTER")
	}

	category := req.Category
	if category == "" {
		category = models.DefaultResourceCategory
	}
	icon := req.Icon
	if icon == "" {
		icon = models.DefaultResourceIcon
	}
	projects := req.Projects
	if projects == nil {
		projects = models.ResourceProjects{}
	}

	resource := &models.StudentResource{
		ID:        uuid.NewString(),
		StudentID: profile.ID,
		Name:      req.Name,
		URL:       req.URL,
		Category:  category,
		Icon:      icon,
		Status:    status,
		Projects:  projects,
		Notes:     req.Notes,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, resource); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save resource")
	}

	return resource, nil
}

// Update applies a partial update to one of the calling student's resources.
func (s *ResourceService) Update(ctx context.Context, userID, resourceID string, req UpdateResourceRequest) (*models.StudentResource, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resource payload")
	}

	resource, err := s.findOwned(ctx, userID, resourceID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		resource.Name = *req.Name
	}
	if req.URL != nil {
		resource.URL = req.URL
	}
	if req.Category != nil {
		resource.Category = *req.Category
	}
	if req.Icon != nil {
		resource.Icon = *req.Icon
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "status must be WANT_TO_LEARN, LEARNING or MASTER")
		}
		resource.Status = *req.Status
	}
	if req.CertificateURL != nil {
		resource.CertificateURL = req.CertificateURL
	}
	if req.Projects != nil {
		resource.Projects = *req.Projects
	}
	if req.Notes != nil {
		resource.Notes = req.Notes
	}

	if err := s.repo.Update(ctx, resource); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update resource")
	}
	return resource, nil
}

// Delete removes one of the calling student's resources.
func (s *ResourceService) Delete(ctx context.Context, userID, resourceID string) error {
	resource, err := s.findOwned(ctx, userID, resourceID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, resource.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete resource")
	}
	return nil
}

func (s *ResourceService) findOwned(ctx context.Context, userID, resourceID string) (*models.StudentResource, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student profile")
	}

	resource, err := s.repo.FindByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch resource")
	}
	if resource.StudentID != profile.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
	}
	return resource, nil
}

func (s *ResourceService) ensureProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student profile")
	}

	created := &models.StudentProfile{
		ID:     uuid.NewString(),
		UserID: userID,
		Course: models.DefaultCourseStudent,
		Batch:  models.DefaultBatchStudent,
	}
	if err := s.profiles.Create(ctx, created); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student profile")
	}
	return created, nil
}
