package models

import "time"

// EnrollmentStatus tracks a student's standing within the school.
type EnrollmentStatus string

const (
	EnrollmentActive      EnrollmentStatus = "ACTIVE"
	EnrollmentInactive    EnrollmentStatus = "INACTIVE"
	EnrollmentGraduated   EnrollmentStatus = "GRADUATED"
	EnrollmentTransferred EnrollmentStatus = "TRANSFERRED"
)

// Valid reports whether the status is a member of the declared set.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentActive, EnrollmentInactive, EnrollmentGraduated, EnrollmentTransferred:
		return true
	}
	return false
}

// Student belongs to one school; the studentId (registration number) is
// unique within that school. Students are soft deleted.
type Student struct {
	ID               string           `db:"id" json:"id"`
	StudentID        string           `db:"student_id" json:"studentId"`
	FirstName        string           `db:"first_name" json:"firstName"`
	LastName         string           `db:"last_name" json:"lastName"`
	DateOfBirth      *time.Time       `db:"date_of_birth" json:"dateOfBirth,omitempty"`
	Gender           *string          `db:"gender" json:"gender,omitempty"`
	EnrollmentStatus EnrollmentStatus `db:"enrollment_status" json:"enrollmentStatus"`
	SchoolID         string           `db:"school_id" json:"schoolId"`
	UserID           *string          `db:"user_id" json:"userId,omitempty"`
	IsDeleted        bool             `db:"is_deleted" json:"-"`
	CreatedAt        time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updatedAt"`
}

// StudentFilter captures filtering criteria for listing students.
type StudentFilter struct {
	SchoolID         string
	Search           string
	EnrollmentStatus *EnrollmentStatus
	ClassID          string
	PageRequest
}

// StudentClass links a student to a class (many-to-many enrollment).
type StudentClass struct {
	StudentID string    `db:"student_id" json:"studentId"`
	ClassID   string    `db:"class_id" json:"classId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// StudentParent links a student to a parent.
type StudentParent struct {
	StudentID string    `db:"student_id" json:"studentId"`
	ParentID  string    `db:"parent_id" json:"parentId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
