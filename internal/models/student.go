package models

// StudentProfile is the academic record attached to a user with the student role.
// Attendance, results and learning resources all hang off the profile id.
type StudentProfile struct {
	ID      string  `db:"id" json:"id"`
	UserID  string  `db:"user_id" json:"userId"`
	Course  string  `db:"course" json:"course"`
	Batch   string  `db:"batch" json:"batch"`
	DOB     *string `db:"dob" json:"dob,omitempty"`
	Phone   *string `db:"phone" json:"phone,omitempty"`
	Address *string `db:"address" json:"address,omitempty"`
}

// Defaults applied when a profile is provisioned. Admin-created students and
// profiles lazily created by the student's own first update historically used
// different values; both are preserved.
const (
	DefaultCourseAdmin   = "General"
	DefaultBatchAdmin    = "2025"
	DefaultCourseStudent = "Computer Science"
	DefaultBatchStudent  = "2024"
)
