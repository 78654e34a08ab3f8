package models

import "time"

// GradeType enumerates the kinds of graded work.
type GradeType string

const (
	GradeExam          GradeType = "EXAM"
	GradeQuiz          GradeType = "QUIZ"
	GradeHomework      GradeType = "HOMEWORK"
	GradeProject       GradeType = "PROJECT"
	GradeParticipation GradeType = "PARTICIPATION"
	GradeOther         GradeType = "OTHER"
)

// DefaultGradeMaxValue is used when a grade is recorded without an explicit
// maximum. Scores and maximums are bounded to the 0-100 scale.
const DefaultGradeMaxValue = 100

// Valid reports whether the type is a member of the declared set.
func (t GradeType) Valid() bool {
	switch t {
	case GradeExam, GradeQuiz, GradeHomework, GradeProject, GradeParticipation, GradeOther:
		return true
	}
	return false
}

// Grade records a score for a student in a class. Creating one requires an
// existing enrollment link between the student and the class.
type Grade struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"studentId"`
	ClassID      string    `db:"class_id" json:"classId"`
	Type         GradeType `db:"type" json:"type"`
	Value        float64   `db:"value" json:"value"`
	MaxValue     float64   `db:"max_value" json:"maxValue"`
	Date         time.Time `db:"date" json:"date"`
	Title        string    `db:"title" json:"title"`
	Remarks      *string   `db:"remarks" json:"remarks,omitempty"`
	RecordedByID string    `db:"recorded_by_id" json:"recordedById"`
	SchoolID     string    `db:"school_id" json:"schoolId"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// GradeDetail joins a grade with student and class display fields for list
// responses and exports.
type GradeDetail struct {
	Grade
	StudentName   string `db:"student_name" json:"studentName"`
	StudentNumber string `db:"student_number" json:"studentNumber"`
	ClassName     string `db:"class_name" json:"className"`
}

// GradeFilter captures filtering criteria for grade queries. Date bounds
// must be provided as a pair; services reject a lone bound.
type GradeFilter struct {
	SchoolID  string
	StudentID string
	ClassID   string
	Type      *GradeType
	StartDate *time.Time
	EndDate   *time.Time
	PageRequest
}
