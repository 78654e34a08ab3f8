package models

import "time"

// Class belongs to one school and optionally to one homeroom teacher. The
// (name, academicYear, schoolId) triple is unique.
type Class struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	AcademicYear string    `db:"academic_year" json:"academicYear"`
	SchoolID     string    `db:"school_id" json:"schoolId"`
	TeacherID    *string   `db:"teacher_id" json:"teacherId,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// ClassDetail adds the enrolled student count and teacher name for list and
// detail responses.
type ClassDetail struct {
	Class
	TeacherName  *string `db:"teacher_name" json:"teacherName,omitempty"`
	StudentCount int     `db:"student_count" json:"studentCount"`
}

// ClassFilter captures filtering criteria for listing classes.
type ClassFilter struct {
	SchoolID     string
	Search       string
	TeacherID    string
	AcademicYear string
	PageRequest
}
