package models

import "time"

// AttendanceStatus enumerates the attendance outcomes for one session.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
	AttendanceExcused AttendanceStatus = "EXCUSED"
)

// Valid reports whether the status is a member of the declared set.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// AttendanceRecord stores one student's attendance for a date and session.
// At most one record may exist per (studentId, date, sessionId, schoolId).
type AttendanceRecord struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"studentId"`
	ClassID      *string          `db:"class_id" json:"classId,omitempty"`
	Date         time.Time        `db:"date" json:"date"`
	Status       AttendanceStatus `db:"status" json:"status"`
	SessionID    string           `db:"session_id" json:"sessionId"`
	Remarks      *string          `db:"remarks" json:"remarks,omitempty"`
	RecordedByID string           `db:"recorded_by_id" json:"recordedById"`
	SchoolID     string           `db:"school_id" json:"schoolId"`
	CreatedAt    time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updatedAt"`
}

// AttendanceFilter captures filtering criteria for attendance queries. Date
// bounds must be provided as a pair; services reject a lone bound.
type AttendanceFilter struct {
	SchoolID  string
	StudentID string
	ClassID   string
	Status    *AttendanceStatus
	StartDate *time.Time
	EndDate   *time.Time
	PageRequest
}

// AttendanceSummary aggregates record counts by status. The rate counts
// PRESENT and LATE as attended.
type AttendanceSummary struct {
	TotalDays      int     `json:"totalDays"`
	Present        int     `json:"present"`
	Absent         int     `json:"absent"`
	Late           int     `json:"late"`
	Excused        int     `json:"excused"`
	AttendanceRate float64 `json:"attendanceRate"`
}
