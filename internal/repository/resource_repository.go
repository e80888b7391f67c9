package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuskit/portal-api/internal/models"
)

const resourceColumns = `id, student_id, name, url, status, certificate_url, category, icon, projects, notes, created_at`

// ResourceRepository handles persistence for student learning resources.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository constructs the repository.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// ListByStudent returns all resources owned by a student, newest first.
func (r *ResourceRepository) ListByStudent(ctx context.Context, studentID string) ([]models.StudentResource, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_resources WHERE student_id = $1 ORDER BY created_at DESC`, resourceColumns)
	var rows []models.StudentResource
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list resources by student: %w", err)
	}
	return rows, nil
}

// FindByID returns a resource by identifier.
func (r *ResourceRepository) FindByID(ctx context.Context, id string) (*models.StudentResource, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_resources WHERE id = $1 LIMIT 1`, resourceColumns)
	var resource models.StudentResource
	if err := r.db.GetContext(ctx, &resource, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find resource by id: %w", err)
	}
	return &resource, nil
}

// Create inserts a new resource.
func (r *ResourceRepository) Create(ctx context.Context, resource *models.StudentResource) error {
	if resource.ID == "" {
		resource.ID = uuid.NewString()
	}
	if resource.CreatedAt.IsZero() {
		resource.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO student_resources (id, student_id, name, url, status, certificate_url, category, icon, projects, notes, created_at)
VALUES (:id, :student_id, :name, :url, :status, :certificate_url, :category, :icon, :projects, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, resource); err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

// Update writes the mutable resource fields.
func (r *ResourceRepository) Update(ctx context.Context, resource *models.StudentResource) error {
	const query = `UPDATE student_resources SET name = :name, url = :url, status = :status, certificate_url = :certificate_url,
category = :category, icon = :icon, projects = :projects, notes = :notes WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, resource); err != nil {
		return fmt.Errorf("update resource: %w", err)
	}
	return nil
}

// Delete removes a resource.
func (r *ResourceRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM student_resources WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	return nil
}
