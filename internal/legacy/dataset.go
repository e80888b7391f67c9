// Package legacy reads the data.json file produced by the previous portal
// and prepares it for a one-shot import into Postgres.
package legacy

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

// User mirrors the legacy users array.
type User struct {
	ID                      string                   `json:"id"`
	Name                    string                   `json:"name"`
	Email                   string                   `json:"email"`
	PasswordHash            string                   `json:"passwordHash"`
	Role                    string                   `json:"role"`
	TwoFactorEnabled        bool                     `json:"twoFactorEnabled"`
	NotificationPreferences *NotificationPreferences `json:"notificationPreferences,omitempty"`
	CreatedAt               string                   `json:"createdAt"`
}

// NotificationPreferences mirrors the optional nested preference object.
type NotificationPreferences struct {
	EmailAlerts    bool `json:"emailAlerts"`
	SystemUpdates  bool `json:"systemUpdates"`
	NewEnrollments bool `json:"newEnrollments"`
}

// StudentProfile mirrors the legacy studentProfiles array.
type StudentProfile struct {
	ID      string  `json:"id"`
	UserID  string  `json:"userId"`
	Course  string  `json:"course"`
	Batch   string  `json:"batch"`
	DOB     *string `json:"dob,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

// Attendance mirrors the legacy attendance array. IDs look like
// "att-1767942132045" with a millisecond timestamp in the middle.
type Attendance struct {
	ID        string `json:"id"`
	StudentID string `json:"studentId"`
	Date      string `json:"date"`
	Status    string `json:"status"`
}

// Result mirrors the legacy results array.
type Result struct {
	ID           string  `json:"id"`
	StudentID    string  `json:"studentId"`
	Subject      string  `json:"subject"`
	Marks        float64 `json:"marks"`
	MaxMarks     float64 `json:"maxMarks"`
	ResultStatus string  `json:"resultStatus"`
	Semester     int     `json:"semester"`
	CreatedAt    string  `json:"createdAt"`
}

// Material mirrors the legacy materials array.
type Material struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	FileURL     string  `json:"fileUrl"`
	UploadedBy  string  `json:"uploadedBy"`
	CreatedAt   string  `json:"createdAt"`
}

// StudentResource mirrors the legacy studentResources array.
type StudentResource struct {
	ID             string            `json:"id"`
	StudentID      string            `json:"studentId"`
	Name           string            `json:"name"`
	URL            *string           `json:"url,omitempty"`
	Status         string            `json:"status"`
	CertificateURL *string           `json:"certificateUrl,omitempty"`
	Category       string            `json:"category,omitempty"`
	Icon           string            `json:"icon,omitempty"`
	Projects       []ResourceProject `json:"projects,omitempty"`
	Notes          *string           `json:"notes,omitempty"`
	CreatedAt      string            `json:"createdAt"`
}

// ResourceProject mirrors a portfolio entry on a resource.
type ResourceProject struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Dataset is the full legacy file.
type Dataset struct {
	Users            []User            `json:"users"`
	StudentProfiles  []StudentProfile  `json:"studentProfiles"`
	Attendance       []Attendance      `json:"attendance"`
	Results          []Result          `json:"results"`
	Materials        []Material        `json:"materials"`
	StudentResources []StudentResource `json:"studentResources"`
}

// Load reads the legacy file. A missing or unparsable file yields an empty
// dataset, matching how the old portal treated its store.
func Load(path string) *Dataset {
	empty := &Dataset{}
	raw, err := os.ReadFile(path)
	if err != nil {
		return empty
	}

	var data Dataset
	if err := json.Unmarshal(raw, &data); err != nil {
		return empty
	}
	return &data
}

// DedupeAttendance keeps one record per (studentId, date). When the same day
// was marked twice the record whose id carries the newest embedded timestamp
// wins, so a correction made later replaces the original mark.
func DedupeAttendance(records []Attendance) []Attendance {
	type slot struct {
		record Attendance
		index  int
	}
	seen := make(map[string]slot, len(records))
	order := make([]string, 0, len(records))

	for _, record := range records {
		key := record.StudentID + "|" + record.Date
		existing, ok := seen[key]
		if !ok {
			seen[key] = slot{record: record, index: len(order)}
			order = append(order, key)
			continue
		}
		if idTimestamp(record.ID) > idTimestamp(existing.record.ID) {
			seen[key] = slot{record: record, index: existing.index}
		}
	}

	result := make([]Attendance, len(order))
	for _, key := range order {
		s := seen[key]
		result[s.index] = s.record
	}
	return result
}

// idTimestamp extracts the millisecond timestamp from ids like
// "att-1767942132045". Unparsable ids sort as zero.
func idTimestamp(id string) int64 {
	parts := strings.Split(id, "-")
	if len(parts) < 2 {
		return 0
	}
	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0
	}
	return ts
}
