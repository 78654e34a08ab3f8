package models

import "time"

// Teacher is created from an existing TEACHER-role user of the same school.
type Teacher struct {
	ID            string     `db:"id" json:"id"`
	UserID        string     `db:"user_id" json:"userId"`
	SchoolID      string     `db:"school_id" json:"schoolId"`
	EmployeeID    *string    `db:"employee_id" json:"employeeId,omitempty"`
	DateOfJoining *time.Time `db:"date_of_joining" json:"dateOfJoining,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

// TeacherDetail joins the teacher row with its user account.
type TeacherDetail struct {
	Teacher
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
}

// TeacherFilter captures filtering criteria for listing teachers.
type TeacherFilter struct {
	SchoolID string
	Search   string
	PageRequest
}
