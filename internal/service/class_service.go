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

// MaxClassesPerTeacher caps how many classes one teacher may be assigned to.
const MaxClassesPerTeacher = 5

type classRepo interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error)
	FindByID(ctx context.Context, id, schoolID string) (*models.ClassDetail, error)
	ExistsByNameYear(ctx context.Context, name, academicYear, schoolID, excludeID string) (bool, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id, schoolID string) error
	CountStudents(ctx context.Context, classID string) (int, error)
	CountByTeacher(ctx context.Context, teacherID, excludeClassID string) (int, error)
}

type classTeacherRepo interface {
	FindByID(ctx context.Context, id, schoolID string) (*models.TeacherDetail, error)
}

// ClassService manages classes and teacher assignment.
type ClassService struct {
	repo     classRepo
	teachers classTeacherRepo
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewClassService constructs a ClassService.
func NewClassService(repo classRepo, teachers classTeacherRepo, logger *zap.Logger) *ClassService {
	return &ClassService{
		repo:     repo,
		teachers: teachers,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// CreateClassRequest creates a class in the caller's school.
type CreateClassRequest struct {
	Name         string  `json:"name" validate:"required,min=1,max=100"`
	AcademicYear string  `json:"academicYear" validate:"required"`
	TeacherID    *string `json:"teacherId"`
}

// UpdateClassRequest carries the mutable class fields. Setting teacherId to
// an empty string unassigns the teacher.
type UpdateClassRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=100"`
	AcademicYear *string `json:"academicYear"`
	TeacherID    *string `json:"teacherId"`
}

// List returns a page of the school's classes.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, models.Pagination, error) {
	filter.Normalize()
	if err := validation.Page(filter.Page, filter.Limit); err != nil {
		return nil, models.Pagination{}, err
	}

	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	if classes == nil {
		classes = []models.ClassDetail{}
	}
	return classes, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns one class of the school.
func (s *ClassService) Get(ctx context.Context, id, schoolID string) (*models.ClassDetail, error) {
	class, err := s.repo.FindByID(ctx, id, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get class")
	}
	return class, nil
}

// Create adds a class. The (name, academicYear) pair must be unique within
// the school and an assigned teacher may not exceed the class cap.
func (s *ClassService) Create(ctx context.Context, schoolID string, req CreateClassRequest) (*models.ClassDetail, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if err := validation.AcademicYear(req.AcademicYear, s.now()); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByNameYear(ctx, req.Name, req.AcademicYear, schoolID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a class with this name already exists for the academic year")
	}

	var teacherName *string
	if req.TeacherID != nil && *req.TeacherID != "" {
		name, err := s.checkTeacherLoad(ctx, *req.TeacherID, schoolID, "")
		if err != nil {
			return nil, err
		}
		teacherName = name
	} else {
		req.TeacherID = nil
	}

	class := &models.Class{
		Name:         req.Name,
		AcademicYear: req.AcademicYear,
		SchoolID:     schoolID,
		TeacherID:    req.TeacherID,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}

	s.logger.Info("class created", zap.String("class_id", class.ID), zap.String("academic_year", class.AcademicYear))
	return &models.ClassDetail{Class: *class, TeacherName: teacherName}, nil
}

// Update modifies one class of the school.
func (s *ClassService) Update(ctx context.Context, id, schoolID string, req UpdateClassRequest) (*models.ClassDetail, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	class, err := s.Get(ctx, id, schoolID)
	if err != nil {
		return nil, err
	}

	name := class.Name
	year := class.AcademicYear
	if req.Name != nil {
		name = *req.Name
	}
	if req.AcademicYear != nil {
		if err := validation.AcademicYear(*req.AcademicYear, s.now()); err != nil {
			return nil, err
		}
		year = *req.AcademicYear
	}
	if name != class.Name || year != class.AcademicYear {
		exists, err := s.repo.ExistsByNameYear(ctx, name, year, schoolID, class.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class name")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a class with this name already exists for the academic year")
		}
	}
	class.Name = name
	class.AcademicYear = year

	if req.TeacherID != nil {
		if *req.TeacherID == "" {
			class.TeacherID = nil
			class.TeacherName = nil
		} else if class.TeacherID == nil || *class.TeacherID != *req.TeacherID {
			teacherName, err := s.checkTeacherLoad(ctx, *req.TeacherID, schoolID, class.ID)
			if err != nil {
				return nil, err
			}
			class.TeacherID = req.TeacherID
			class.TeacherName = teacherName
		}
	}

	if err := s.repo.Update(ctx, &class.Class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return class, nil
}

// Delete removes a class with no enrolled students.
func (s *ClassService) Delete(ctx context.Context, id, schoolID string) error {
	if _, err := s.Get(ctx, id, schoolID); err != nil {
		return err
	}

	enrolled, err := s.repo.CountStudents(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	if enrolled > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "class still has enrolled students")
	}

	if err := s.repo.Delete(ctx, id, schoolID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	s.logger.Info("class deleted", zap.String("class_id", id))
	return nil
}

// checkTeacherLoad verifies the teacher exists in the school and is below
// the class cap, returning the teacher's display name.
func (s *ClassService) checkTeacherLoad(ctx context.Context, teacherID, schoolID, excludeClassID string) (*string, error) {
	teacher, err := s.teachers.FindByID(ctx, teacherID, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get teacher")
	}

	assigned, err := s.repo.CountByTeacher(ctx, teacherID, excludeClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count classes")
	}
	if assigned >= MaxClassesPerTeacher {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher is already assigned to the maximum number of classes")
	}
	return &teacher.Name, nil
}
