package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/school-admin/school-api/internal/models"
	"github.com/school-admin/school-api/internal/validation"
	appErrors "github.com/school-admin/school-api/pkg/errors"
)

type studentRepo interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id, schoolID string) (*models.Student, error)
	ExistsByStudentID(ctx context.Context, studentID, schoolID, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	SoftDelete(ctx context.Context, id, schoolID string) error
	IsEnrolled(ctx context.Context, studentID, classID string) (bool, error)
	Enroll(ctx context.Context, studentID, classID string) error
	Unenroll(ctx context.Context, studentID, classID string) error
	IsLinkedToParent(ctx context.Context, studentID, parentID string) (bool, error)
	LinkParent(ctx context.Context, studentID, parentID string) error
	UnlinkParent(ctx context.Context, studentID, parentID string) error
	Parents(ctx context.Context, studentID string) ([]models.Parent, error)
}

type studentClassRepo interface {
	FindByID(ctx context.Context, id, schoolID string) (*models.ClassDetail, error)
}

type studentParentRepo interface {
	FindByID(ctx context.Context, id, schoolID string) (*models.Parent, error)
}

// StudentService manages student records, class enrollment and parent links.
type StudentService struct {
	repo     studentRepo
	classes  studentClassRepo
	parents  studentParentRepo
	validate *validator.Validate
	logger   *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepo, classes studentClassRepo, parents studentParentRepo, logger *zap.Logger) *StudentService {
	return &StudentService{
		repo:     repo,
		classes:  classes,
		parents:  parents,
		validate: validator.New(),
		logger:   logger,
	}
}

// CreateStudentRequest creates a student in the caller's school. Dates use
// the YYYY-MM-DD layout.
type CreateStudentRequest struct {
	StudentID        string  `json:"studentId" validate:"required,min=1,max=50"`
	FirstName        string  `json:"firstName" validate:"required,min=1,max=100"`
	LastName         string  `json:"lastName" validate:"required,min=1,max=100"`
	DateOfBirth      *string `json:"dateOfBirth"`
	Gender           *string `json:"gender"`
	EnrollmentStatus string  `json:"enrollmentStatus"`
	UserID           *string `json:"userId"`
}

// UpdateStudentRequest carries the mutable student fields.
type UpdateStudentRequest struct {
	StudentID        *string `json:"studentId" validate:"omitempty,min=1,max=50"`
	FirstName        *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName         *string `json:"lastName" validate:"omitempty,min=1,max=100"`
	DateOfBirth      *string `json:"dateOfBirth"`
	Gender           *string `json:"gender"`
	EnrollmentStatus *string `json:"enrollmentStatus"`
	UserID           *string `json:"userId"`
}

// List returns a page of the school's students.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, models.Pagination, error) {
	filter.Normalize()
	if err := validation.Page(filter.Page, filter.Limit); err != nil {
		return nil, models.Pagination{}, err
	}
	if filter.EnrollmentStatus != nil && !filter.EnrollmentStatus.Valid() {
		return nil, models.Pagination{}, appErrors.Clone(appErrors.ErrValidation, "invalid enrollment status filter")
	}

	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns one student of the school.
func (s *StudentService) Get(ctx context.Context, id, schoolID string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get student")
	}
	return student, nil
}

// Create adds a student; the registration number must be unique within the
// school.
func (s *StudentService) Create(ctx context.Context, schoolID string, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	status := models.EnrollmentActive
	if req.EnrollmentStatus != "" {
		status = models.EnrollmentStatus(req.EnrollmentStatus)
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid enrollment status")
		}
	}

	dob, err := parseOptionalDate(req.DateOfBirth)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsByStudentID(ctx, req.StudentID, schoolID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student number")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student ID is already in use")
	}

	student := &models.Student{
		StudentID:        req.StudentID,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		DateOfBirth:      dob,
		Gender:           req.Gender,
		EnrollmentStatus: status,
		SchoolID:         schoolID,
		UserID:           req.UserID,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	s.logger.Info("student created", zap.String("student_id", student.ID))
	return student, nil
}

// Update modifies one student of the school.
func (s *StudentService) Update(ctx context.Context, id, schoolID string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	student, err := s.Get(ctx, id, schoolID)
	if err != nil {
		return nil, err
	}

	if req.StudentID != nil && *req.StudentID != student.StudentID {
		taken, err := s.repo.ExistsByStudentID(ctx, *req.StudentID, schoolID, student.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student number")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student ID is already in use")
		}
		student.StudentID = *req.StudentID
	}
	if req.FirstName != nil {
		student.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		student.LastName = *req.LastName
	}
	if req.DateOfBirth != nil {
		dob, err := parseOptionalDate(req.DateOfBirth)
		if err != nil {
			return nil, err
		}
		student.DateOfBirth = dob
	}
	if req.Gender != nil {
		student.Gender = req.Gender
	}
	if req.EnrollmentStatus != nil {
		status := models.EnrollmentStatus(*req.EnrollmentStatus)
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid enrollment status")
		}
		student.EnrollmentStatus = status
	}
	if req.UserID != nil {
		student.UserID = req.UserID
	}

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Delete soft-deletes one student so attendance and grade history keeps its
// references.
func (s *StudentService) Delete(ctx context.Context, id, schoolID string) error {
	if _, err := s.Get(ctx, id, schoolID); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id, schoolID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.logger.Info("student deleted", zap.String("student_id", id))
	return nil
}

// Enroll links a student to a class of the same school.
func (s *StudentService) Enroll(ctx context.Context, studentID, classID, schoolID string) error {
	if _, err := s.Get(ctx, studentID, schoolID); err != nil {
		return err
	}
	if _, err := s.classes.FindByID(ctx, classID, schoolID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get class")
	}

	enrolled, err := s.repo.IsEnrolled(ctx, studentID, classID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if enrolled {
		return appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this class")
	}

	if err := s.repo.Enroll(ctx, studentID, classID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}
	return nil
}

// Unenroll removes the student-class link.
func (s *StudentService) Unenroll(ctx context.Context, studentID, classID, schoolID string) error {
	if _, err := s.Get(ctx, studentID, schoolID); err != nil {
		return err
	}
	enrolled, err := s.repo.IsEnrolled(ctx, studentID, classID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !enrolled {
		return appErrors.Clone(appErrors.ErrNotFound, "student is not enrolled in this class")
	}
	if err := s.repo.Unenroll(ctx, studentID, classID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unenroll student")
	}
	return nil
}

// LinkParent attaches a parent of the same school to the student.
func (s *StudentService) LinkParent(ctx context.Context, studentID, parentID, schoolID string) error {
	if _, err := s.Get(ctx, studentID, schoolID); err != nil {
		return err
	}
	if _, err := s.parents.FindByID(ctx, parentID, schoolID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "parent not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get parent")
	}

	linked, err := s.repo.IsLinkedToParent(ctx, studentID, parentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check parent link")
	}
	if linked {
		return appErrors.Clone(appErrors.ErrConflict, "parent is already linked to this student")
	}

	if err := s.repo.LinkParent(ctx, studentID, parentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link parent")
	}
	return nil
}

// UnlinkParent removes the student-parent link.
func (s *StudentService) UnlinkParent(ctx context.Context, studentID, parentID, schoolID string) error {
	if _, err := s.Get(ctx, studentID, schoolID); err != nil {
		return err
	}
	linked, err := s.repo.IsLinkedToParent(ctx, studentID, parentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check parent link")
	}
	if !linked {
		return appErrors.Clone(appErrors.ErrNotFound, "parent is not linked to this student")
	}
	if err := s.repo.UnlinkParent(ctx, studentID, parentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unlink parent")
	}
	return nil
}

// Parents returns the parents linked to one student of the school.
func (s *StudentService) Parents(ctx context.Context, studentID, schoolID string) ([]models.Parent, error) {
	if _, err := s.Get(ctx, studentID, schoolID); err != nil {
		return nil, err
	}
	parents, err := s.repo.Parents(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list parents")
	}
	if parents == nil {
		parents = []models.Parent{}
	}
	return parents, nil
}

const dateLayout = "2006-01-02"

// parseDate accepts YYYY-MM-DD or RFC 3339 timestamps.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid date format")
}

func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := parseDate(*raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
