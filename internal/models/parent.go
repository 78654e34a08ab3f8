package models

import "time"

// ParentRelation describes how a parent relates to their students.
type ParentRelation string

const (
	RelationFather   ParentRelation = "FATHER"
	RelationMother   ParentRelation = "MOTHER"
	RelationGuardian ParentRelation = "GUARDIAN"
	RelationOther    ParentRelation = "OTHER"
)

// Valid reports whether the relation is a member of the declared set.
func (r ParentRelation) Valid() bool {
	switch r {
	case RelationFather, RelationMother, RelationGuardian, RelationOther:
		return true
	}
	return false
}

// Parent is linked to students through the student_parents table and is soft
// deleted.
type Parent struct {
	ID                string         `db:"id" json:"id"`
	UserID            *string        `db:"user_id" json:"userId,omitempty"`
	SchoolID          string         `db:"school_id" json:"schoolId"`
	FirstName         string         `db:"first_name" json:"firstName"`
	LastName          string         `db:"last_name" json:"lastName"`
	RelationToStudent ParentRelation `db:"relation_to_student" json:"relationToStudent"`
	ContactPhone      *string        `db:"contact_phone" json:"contactPhone,omitempty"`
	ContactEmail      *string        `db:"contact_email" json:"contactEmail,omitempty"`
	IsDeleted         bool           `db:"is_deleted" json:"-"`
	CreatedAt         time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updatedAt"`
}

// ParentFilter captures filtering criteria for listing parents.
type ParentFilter struct {
	SchoolID string
	Search   string
	PageRequest
}
