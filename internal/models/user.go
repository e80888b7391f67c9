package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

// Valid reports whether the role is one of the known values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// NotificationPreferences is stored as a jsonb column on users.
type NotificationPreferences struct {
	EmailAlerts    bool `json:"emailAlerts"`
	SystemUpdates  bool `json:"systemUpdates"`
	NewEnrollments bool `json:"newEnrollments"`
}

// Value implements driver.Valuer.
func (p NotificationPreferences) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *NotificationPreferences) Scan(src interface{}) error {
	if src == nil {
		*p = NotificationPreferences{}
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unexpected type %T for notification preferences", src)
	}
	return json.Unmarshal(raw, p)
}

// User represents an application user stored in the users table.
type User struct {
	ID                      string                  `db:"id" json:"id"`
	Name                    string                  `db:"name" json:"name"`
	Email                   string                  `db:"email" json:"email"`
	PasswordHash            string                  `db:"password_hash" json:"-"`
	Role                    UserRole                `db:"role" json:"role"`
	TwoFactorEnabled        bool                    `db:"two_factor_enabled" json:"twoFactorEnabled"`
	NotificationPreferences NotificationPreferences `db:"notification_preferences" json:"notificationPreferences"`
	Appearance              string                  `db:"appearance" json:"appearance,omitempty"`
	CreatedAt               time.Time               `db:"created_at" json:"createdAt"`
	UpdatedAt               time.Time               `db:"updated_at" json:"updatedAt"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role   *UserRole
	Search string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
