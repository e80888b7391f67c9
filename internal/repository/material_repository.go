package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuskit/portal-api/internal/models"
)

// MaterialRepository handles persistence for study materials.
type MaterialRepository struct {
	db *sqlx.DB
}

// NewMaterialRepository constructs the repository.
func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// List returns all materials, newest first.
func (r *MaterialRepository) List(ctx context.Context) ([]models.Material, error) {
	const query = `SELECT id, title, description, file_url, uploaded_by, created_at FROM materials ORDER BY created_at DESC`
	var rows []models.Material
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return rows, nil
}

// Create inserts a new material.
func (r *MaterialRepository) Create(ctx context.Context, material *models.Material) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	if material.CreatedAt.IsZero() {
		material.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO materials (id, title, description, file_url, uploaded_by, created_at)
VALUES (:id, :title, :description, :file_url, :uploaded_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}
