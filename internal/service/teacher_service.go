package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/school-admin/school-api/internal/models"
	"github.com/school-admin/school-api/internal/validation"
	appErrors "github.com/school-admin/school-api/pkg/errors"
)

type teacherRepo interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, int, error)
	FindByID(ctx context.Context, id, schoolID string) (*models.TeacherDetail, error)
	ExistsForUser(ctx context.Context, userID string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id, schoolID string) error
	CountClasses(ctx context.Context, teacherID string) (int, error)
}

type teacherUserRepo interface {
	FindInSchool(ctx context.Context, id, schoolID string) (*models.User, error)
}

// TeacherService manages teacher profiles built on TEACHER-role users.
type TeacherService struct {
	repo     teacherRepo
	users    teacherUserRepo
	validate *validator.Validate
	logger   *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepo, users teacherUserRepo, logger *zap.Logger) *TeacherService {
	return &TeacherService{repo: repo, users: users, validate: validator.New(), logger: logger}
}

// CreateTeacherRequest creates a profile for an existing TEACHER-role user
// of the same school.
type CreateTeacherRequest struct {
	UserID        string  `json:"userId" validate:"required"`
	EmployeeID    *string `json:"employeeId"`
	DateOfJoining *string `json:"dateOfJoining"`
}

// UpdateTeacherRequest carries the mutable profile fields.
type UpdateTeacherRequest struct {
	EmployeeID    *string `json:"employeeId"`
	DateOfJoining *string `json:"dateOfJoining"`
}

// List returns a page of the school's teachers.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, models.Pagination, error) {
	filter.Normalize()
	if err := validation.Page(filter.Page, filter.Limit); err != nil {
		return nil, models.Pagination{}, err
	}

	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	if teachers == nil {
		teachers = []models.TeacherDetail{}
	}
	return teachers, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns one teacher of the school.
func (s *TeacherService) Get(ctx context.Context, id, schoolID string) (*models.TeacherDetail, error) {
	teacher, err := s.repo.FindByID(ctx, id, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get teacher")
	}
	return teacher, nil
}

// Create adds a profile for a TEACHER-role user that does not have one yet.
func (s *TeacherService) Create(ctx context.Context, schoolID string, req CreateTeacherRequest) (*models.TeacherDetail, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	user, err := s.users.FindInSchool(ctx, req.UserID, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get user")
	}
	if user.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user does not have the TEACHER role")
	}

	exists, err := s.repo.ExistsForUser(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher profile")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "user already has a teacher profile")
	}

	joined, err := parseOptionalDate(req.DateOfJoining)
	if err != nil {
		return nil, err
	}

	teacher := &models.Teacher{
		UserID:        user.ID,
		SchoolID:      schoolID,
		EmployeeID:    req.EmployeeID,
		DateOfJoining: joined,
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}

	s.logger.Info("teacher created", zap.String("teacher_id", teacher.ID), zap.String("user_id", user.ID))
	return &models.TeacherDetail{Teacher: *teacher, Name: user.Name, Email: user.Email}, nil
}

// Update modifies one teacher profile.
func (s *TeacherService) Update(ctx context.Context, id, schoolID string, req UpdateTeacherRequest) (*models.TeacherDetail, error) {
	teacher, err := s.Get(ctx, id, schoolID)
	if err != nil {
		return nil, err
	}

	if req.EmployeeID != nil {
		teacher.EmployeeID = req.EmployeeID
	}
	if req.DateOfJoining != nil {
		joined, err := parseOptionalDate(req.DateOfJoining)
		if err != nil {
			return nil, err
		}
		teacher.DateOfJoining = joined
	}

	if err := s.repo.Update(ctx, &teacher.Teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return teacher, nil
}

// Delete removes a teacher profile. A teacher still assigned to classes
// cannot be removed.
func (s *TeacherService) Delete(ctx context.Context, id, schoolID string) error {
	if _, err := s.Get(ctx, id, schoolID); err != nil {
		return err
	}

	assigned, err := s.repo.CountClasses(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count classes")
	}
	if assigned > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "teacher is still assigned to classes")
	}

	if err := s.repo.Delete(ctx, id, schoolID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	s.logger.Info("teacher deleted", zap.String("teacher_id", id))
	return nil
}
