package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ResourceStatus tracks a student's progress on a learning resource.
type ResourceStatus string

const (
	ResourceWantToLearn ResourceStatus = "WANT_TO_LEARN"
	ResourceLearning    ResourceStatus = "LEARNING"
	ResourceMaster      ResourceStatus = "MASTER"
)

// Defaults applied when a resource is created without these fields.
const (
	DefaultResourceCategory = "Language"
	DefaultResourceIcon     = "Code"
)

// Valid reports whether the status is a known value.
func (s ResourceStatus) Valid() bool {
	switch s {
	case ResourceWantToLearn, ResourceLearning, ResourceMaster:
		return true
	}
	return false
}

// ResourceProject is a portfolio entry attached to a learning resource.
type ResourceProject struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// ResourceProjects is stored as a jsonb array column.
type ResourceProjects []ResourceProject

// Value implements driver.Valuer.
func (p ResourceProjects) Value() (driver.Value, error) {
	if p == nil {
		return json.Marshal([]ResourceProject{})
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *ResourceProjects) Scan(src interface{}) error {
	if src == nil {
		*p = ResourceProjects{}
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unexpected type %T for resource projects", src)
	}
	return json.Unmarshal(raw, p)
}

// StudentResource is a personal learning-tracker entry owned by one student.
type StudentResource struct {
	ID             string           `db:"id" json:"id"`
	StudentID      string           `db:"student_id" json:"studentId"`
	Name           string           `db:"name" json:"name"`
	URL            *string          `db:"url" json:"url,omitempty"`
	Status         ResourceStatus   `db:"status" json:"status"`
	CertificateURL *string          `db:"certificate_url" json:"certificateUrl,omitempty"`
	Category       string           `db:"category" json:"category"`
	Icon           string           `db:"icon" json:"icon"`
	Projects       ResourceProjects `db:"projects" json:"projects"`
	Notes          *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"createdAt"`
}
