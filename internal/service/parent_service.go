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

type parentRepo interface {
	List(ctx context.Context, filter models.ParentFilter) ([]models.Parent, int, error)
	FindByID(ctx context.Context, id, schoolID string) (*models.Parent, error)
	Create(ctx context.Context, parent *models.Parent) error
	Update(ctx context.Context, parent *models.Parent) error
	SoftDelete(ctx context.Context, id, schoolID string) error
	Students(ctx context.Context, parentID string) ([]models.Student, error)
}

// ParentService manages parent profiles.
type ParentService struct {
	repo     parentRepo
	validate *validator.Validate
	logger   *zap.Logger
}

// NewParentService constructs a ParentService.
func NewParentService(repo parentRepo, logger *zap.Logger) *ParentService {
	return &ParentService{repo: repo, validate: validator.New(), logger: logger}
}

// CreateParentRequest creates a parent in the caller's school.
type CreateParentRequest struct {
	FirstName         string  `json:"firstName" validate:"required,min=1,max=100"`
	LastName          string  `json:"lastName" validate:"required,min=1,max=100"`
	RelationToStudent string  `json:"relationToStudent" validate:"required"`
	ContactPhone      *string `json:"contactPhone"`
	ContactEmail      *string `json:"contactEmail" validate:"omitempty,email"`
	UserID            *string `json:"userId"`
}

// UpdateParentRequest carries the mutable parent fields.
type UpdateParentRequest struct {
	FirstName         *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName          *string `json:"lastName" validate:"omitempty,min=1,max=100"`
	RelationToStudent *string `json:"relationToStudent"`
	ContactPhone      *string `json:"contactPhone"`
	ContactEmail      *string `json:"contactEmail" validate:"omitempty,email"`
	UserID            *string `json:"userId"`
}

// List returns a page of the school's parents.
func (s *ParentService) List(ctx context.Context, filter models.ParentFilter) ([]models.Parent, models.Pagination, error) {
	filter.Normalize()
	if err := validation.Page(filter.Page, filter.Limit); err != nil {
		return nil, models.Pagination{}, err
	}

	parents, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list parents")
	}
	if parents == nil {
		parents = []models.Parent{}
	}
	return parents, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns one parent of the school.
func (s *ParentService) Get(ctx context.Context, id, schoolID string) (*models.Parent, error) {
	parent, err := s.repo.FindByID(ctx, id, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "parent not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get parent")
	}
	return parent, nil
}

// Create adds a parent to the school.
func (s *ParentService) Create(ctx context.Context, schoolID string, req CreateParentRequest) (*models.Parent, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	relation := models.ParentRelation(req.RelationToStudent)
	if !relation.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid relation to student")
	}
	if req.ContactPhone != nil && *req.ContactPhone != "" {
		if err := validation.Phone(*req.ContactPhone); err != nil {
			return nil, err
		}
	}

	parent := &models.Parent{
		SchoolID:          schoolID,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		RelationToStudent: relation,
		ContactPhone:      req.ContactPhone,
		ContactEmail:      req.ContactEmail,
		UserID:            req.UserID,
	}
	if err := s.repo.Create(ctx, parent); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create parent")
	}

	s.logger.Info("parent created", zap.String("parent_id", parent.ID))
	return parent, nil
}

// Update modifies one parent of the school.
func (s *ParentService) Update(ctx context.Context, id, schoolID string, req UpdateParentRequest) (*models.Parent, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	parent, err := s.Get(ctx, id, schoolID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		parent.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		parent.LastName = *req.LastName
	}
	if req.RelationToStudent != nil {
		relation := models.ParentRelation(*req.RelationToStudent)
		if !relation.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid relation to student")
		}
		parent.RelationToStudent = relation
	}
	if req.ContactPhone != nil {
		if *req.ContactPhone != "" {
			if err := validation.Phone(*req.ContactPhone); err != nil {
				return nil, err
			}
		}
		parent.ContactPhone = req.ContactPhone
	}
	if req.ContactEmail != nil {
		parent.ContactEmail = req.ContactEmail
	}
	if req.UserID != nil {
		parent.UserID = req.UserID
	}

	if err := s.repo.Update(ctx, parent); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update parent")
	}
	return parent, nil
}

// Delete soft-deletes one parent.
func (s *ParentService) Delete(ctx context.Context, id, schoolID string) error {
	if _, err := s.Get(ctx, id, schoolID); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id, schoolID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete parent")
	}
	s.logger.Info("parent deleted", zap.String("parent_id", id))
	return nil
}

// Students returns the students linked to one parent of the school.
func (s *ParentService) Students(ctx context.Context, parentID, schoolID string) ([]models.Student, error) {
	if _, err := s.Get(ctx, parentID, schoolID); err != nil {
		return nil, err
	}
	students, err := s.repo.Students(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}
