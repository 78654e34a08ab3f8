package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/school-admin/school-api/internal/models"
	"github.com/school-admin/school-api/internal/validation"
	appErrors "github.com/school-admin/school-api/pkg/errors"
)

type userRepo interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindInSchool(ctx context.Context, id, schoolID string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id, schoolID string) error
}

// UserService manages user accounts within one school.
type UserService struct {
	repo     userRepo
	validate *validator.Validate
	logger   *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(repo userRepo, logger *zap.Logger) *UserService {
	return &UserService{repo: repo, validate: validator.New(), logger: logger}
}

// CreateUserRequest creates an account inside the caller's school.
type CreateUserRequest struct {
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required"`
	Name     string      `json:"name" validate:"required,min=2,max=120"`
	Role     models.Role `json:"role" validate:"required"`
}

// UpdateUserRequest carries the mutable account fields. Nil fields are left
// unchanged.
type UpdateUserRequest struct {
	Email    *string      `json:"email" validate:"omitempty,email"`
	Password *string      `json:"password"`
	Name     *string      `json:"name" validate:"omitempty,min=2,max=120"`
	Role     *models.Role `json:"role"`
	IsActive *bool        `json:"isActive"`
}

// List returns a page of the school's users.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, models.Pagination, error) {
	filter.Normalize()
	if err := validation.Page(filter.Page, filter.Limit); err != nil {
		return nil, models.Pagination{}, err
	}
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, models.Pagination{}, appErrors.Clone(appErrors.ErrValidation, "invalid role filter")
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	if users == nil {
		users = []models.User{}
	}
	return users, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns one user of the school.
func (s *UserService) Get(ctx context.Context, id, schoolID string) (*models.User, error) {
	user, err := s.repo.FindInSchool(ctx, id, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get user")
	}
	return user, nil
}

// Create adds an account to the school.
func (s *UserService) Create(ctx context.Context, schoolID string, req CreateUserRequest) (*models.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if !req.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid role")
	}
	if err := validation.Password(req.Password); err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         req.Role,
		SchoolID:     schoolID,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Update modifies one user of the school.
func (s *UserService) Update(ctx context.Context, id, schoolID string, req UpdateUserRequest) (*models.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	user, err := s.Get(ctx, id, schoolID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != user.Email {
		taken, err := s.repo.ExistsByEmail(ctx, *req.Email, user.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
		}
		user.Email = *req.Email
	}
	if req.Password != nil {
		if err := validation.Password(*req.Password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		user.PasswordHash = string(hash)
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid role")
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return user, nil
}

// Delete removes one user of the school. Callers cannot delete their own
// account.
func (s *UserService) Delete(ctx context.Context, id, schoolID, callerID string) error {
	if id == callerID {
		return appErrors.Clone(appErrors.ErrValidation, "cannot delete your own account")
	}
	if _, err := s.Get(ctx, id, schoolID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, schoolID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}
