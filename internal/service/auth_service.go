package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/school-admin/school-api/internal/models"
	"github.com/school-admin/school-api/internal/validation"
	"github.com/school-admin/school-api/pkg/config"
	appErrors "github.com/school-admin/school-api/pkg/errors"
)

type authUserRepo interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
}

type authSchoolRepo interface {
	ExistsByName(ctx context.Context, name string) (bool, error)
	CreateWithAdmin(ctx context.Context, school *models.School, admin *models.User) error
}

// AuthService handles registration, login and token lifecycle.
type AuthService struct {
	users    authUserRepo
	schools  authSchoolRepo
	jwtCfg   config.JWTConfig
	validate *validator.Validate
	logger   *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(users authUserRepo, schools authSchoolRepo, jwtCfg config.JWTConfig, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		schools:  schools,
		jwtCfg:   jwtCfg,
		validate: validator.New(),
		logger:   logger,
	}
}

// RegisterRequest creates a school together with its first admin account.
type RegisterRequest struct {
	SchoolName   string `json:"schoolName" validate:"required,min=2,max=200"`
	Address      string `json:"address" validate:"required,min=5,max=300"`
	ContactEmail string `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone string `json:"contactPhone" validate:"omitempty"`
	AdminName    string `json:"adminName" validate:"required,min=2,max=120"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required"`
}

// LoginRequest carries the login credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token to exchange for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Register creates a new school and its first ADMIN user atomically. A
// failure on either record leaves nothing behind.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.RegisterResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if err := validation.Password(req.Password); err != nil {
		return nil, err
	}
	if req.ContactPhone != "" {
		if err := validation.Phone(req.ContactPhone); err != nil {
			return nil, err
		}
	}

	taken, err := s.users.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
	}

	exists, err := s.schools.ExistsByName(ctx, req.SchoolName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check school name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a school with this name already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	school := &models.School{
		Name:    req.SchoolName,
		Address: req.Address,
	}
	if req.ContactEmail != "" {
		school.ContactEmail = &req.ContactEmail
	}
	if req.ContactPhone != "" {
		school.ContactPhone = &req.ContactPhone
	}
	admin := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.AdminName,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}

	if err := s.schools.CreateWithAdmin(ctx, school, admin); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register school")
	}

	s.logger.Info("school registered",
		zap.String("school_id", school.ID),
		zap.String("admin_id", admin.ID))

	return &models.RegisterResponse{
		User:   toAuthUser(admin),
		School: *school,
	}, nil
}

// Login verifies credentials and issues a token pair. Unknown email and bad
// password produce the same error so accounts cannot be probed.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*models.LoginResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, appErrors.ErrInactiveAccount
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))

	return &models.LoginResponse{TokenPair: *pair, User: toAuthUser(user)}, nil
}

// Refresh exchanges a valid refresh token for a fresh pair. The user record
// is re-read so deactivation takes effect on the next refresh.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*models.TokenPair, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	claims, err := s.parseToken(req.RefreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Kind != models.TokenRefresh {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "not a refresh token")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUnauthorized
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up user")
	}
	if !user.IsActive {
		return nil, appErrors.ErrInactiveAccount
	}

	return s.issueTokens(user)
}

// ValidateAccessToken parses a bearer token and rejects anything that is not
// a live access token.
func (s *AuthService) ValidateAccessToken(tokenString string) (*models.JWTClaims, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Kind != models.TokenAccess {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "not an access token")
	}
	return claims, nil
}

func (s *AuthService) parseToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unexpected signing method")
		}
		return []byte(s.jwtCfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) issueTokens(user *models.User) (*models.TokenPair, error) {
	now := time.Now().UTC()

	access, err := s.signToken(user, models.TokenAccess, now, now.Add(s.jwtCfg.Expiration))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}
	refresh, err := s.signToken(user, models.TokenRefresh, now, now.Add(s.jwtCfg.RefreshExpiration))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}

	return &models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) signToken(user *models.User, kind models.TokenKind, issuedAt, expiresAt time.Time) (string, error) {
	claims := models.JWTClaims{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
		SchoolID: user.SchoolID,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.jwtCfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtCfg.Secret))
}

func toAuthUser(user *models.User) models.AuthUser {
	return models.AuthUser{
		ID:       user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Role:     user.Role,
		SchoolID: user.SchoolID,
		IsActive: user.IsActive,
	}
}
