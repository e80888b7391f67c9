package models

import "time"

// ResultStatus enumerates pass/fail outcomes.
type ResultStatus string

const (
	ResultPass ResultStatus = "PASS"
	ResultFail ResultStatus = "FAIL"
)

// Valid reports whether the status is a known value.
func (s ResultStatus) Valid() bool {
	return s == ResultPass || s == ResultFail
}

// Result is one subject grade for a student in a semester.
type Result struct {
	ID           string       `db:"id" json:"id"`
	StudentID    string       `db:"student_id" json:"studentId"`
	Subject      string       `db:"subject" json:"subject"`
	Marks        float64      `db:"marks" json:"marks"`
	MaxMarks     float64      `db:"max_marks" json:"maxMarks"`
	ResultStatus ResultStatus `db:"result_status" json:"resultStatus"`
	Semester     int          `db:"semester" json:"semester"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
}
