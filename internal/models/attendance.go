package models

import "time"

// AttendanceStatus enumerates the stored attendance states.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
)

// Valid reports whether the status is a known value.
func (s AttendanceStatus) Valid() bool {
	return s == AttendancePresent || s == AttendanceAbsent
}

// Attendance is one student's mark for one calendar day.
// The (student_id, date) pair is unique at the database level.
type Attendance struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"studentId"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time        `db:"updated_at" json:"updatedAt"`
}

// AttendanceDayRow joins a day's attendance back to the owning user.
type AttendanceDayRow struct {
	UserID string           `db:"user_id" json:"userId"`
	Status AttendanceStatus `db:"status" json:"status"`
}
