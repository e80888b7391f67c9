package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuskit/portal-api/internal/models"
	appErrors "github.com/campuskit/portal-api/pkg/errors"
)

type materialRepository interface {
	List(ctx context.Context) ([]models.Material, error)
	Create(ctx context.Context, material *models.Material) error
}

// CreateMaterialRequest is the payload for sharing a study material link.
type CreateMaterialRequest struct {
	Title       string  `json:"title" validate:"required,min=2,max=200"`
	Description *string `json:"description"`
	FileURL     string  `json:"fileUrl" validate:"required,url"`
}

// MaterialService covers shared study material links.
type MaterialService struct {
	repo      materialRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMaterialService constructs a MaterialService instance.
func NewMaterialService(repo materialRepository, validate *validator.Validate, logger *zap.Logger) *MaterialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MaterialService{repo: repo, validator: validate, logger: logger}
}

// List returns all shared materials, newest first.
func (s *MaterialService) List(ctx context.Context) ([]models.Material, error) {
	materials, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}
	return materials, nil
}

// Create shares a new material attributed to the uploading user.
func (s *MaterialService) Create(ctx context.Context, uploadedBy string, req CreateMaterialRequest) (*models.Material, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}

	material := &models.Material{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		FileURL:     req.FileURL,
		UploadedBy:  uploadedBy,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, material); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save material")
	}

	s.logger.Info("material shared", zap.String("material_id", material.ID), zap.String("uploaded_by", uploadedBy))
	return material, nil
}
