package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/school-admin/school-api/internal/models"
	"github.com/school-admin/school-api/pkg/config"
	appErrors "github.com/school-admin/school-api/pkg/errors"
)

type mockAuthUserRepo struct {
	usersByEmail map[string]*models.User
	usersByID    map[string]*models.User
}

func (m *mockAuthUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.usersByID[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUserRepo) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	user, ok := m.usersByEmail[email]
	return ok && user.ID != excludeID, nil
}

type mockAuthSchoolRepo struct {
	schoolNames map[string]bool
	created     *models.School
	admin       *models.User
}

func (m *mockAuthSchoolRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	return m.schoolNames[name], nil
}

func (m *mockAuthSchoolRepo) CreateWithAdmin(ctx context.Context, school *models.School, admin *models.User) error {
	school.ID = "school-1"
	admin.ID = "admin-1"
	admin.SchoolID = school.ID
	m.created = school
	m.admin = admin
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Expiration:        time.Hour,
		RefreshExpiration: 24 * time.Hour,
		Issuer:            "school-api",
	}
}

func newAuthService(users *mockAuthUserRepo, schools *mockAuthSchoolRepo) *AuthService {
	return NewAuthService(users, schools, testJWTConfig(), zap.NewNop())
}

func validRegisterRequest() RegisterRequest {
	return RegisterRequest{
		SchoolName: "Northside High",
		Address:    "1 School Lane",
		AdminName:  "Alex Admin",
		Email:      "admin@northside.example",
		Password:   "Passw0rd",
	}
}

func TestRegisterCreatesSchoolWithAdmin(t *testing.T) {
	users := &mockAuthUserRepo{usersByEmail: map[string]*models.User{}}
	schools := &mockAuthSchoolRepo{schoolNames: map[string]bool{}}
	svc := newAuthService(users, schools)

	res, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	assert.Equal(t, "school-1", res.School.ID)
	assert.Equal(t, models.RoleAdmin, res.User.Role)
	assert.Equal(t, "school-1", res.User.SchoolID)
	assert.True(t, res.User.IsActive)
	require.NotNil(t, schools.admin)
	assert.NotEqual(t, "Passw0rd", schools.admin.PasswordHash)
}

func TestRegisterWeakPassword(t *testing.T) {
	svc := newAuthService(&mockAuthUserRepo{}, &mockAuthSchoolRepo{})

	req := validRegisterRequest()
	req.Password = "nodigits"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRegisterShortAddress(t *testing.T) {
	svc := newAuthService(&mockAuthUserRepo{}, &mockAuthSchoolRepo{})

	req := validRegisterRequest()
	req.Address = "abc"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := &mockAuthUserRepo{usersByEmail: map[string]*models.User{
		"admin@northside.example": {ID: "u1", Email: "admin@northside.example"},
	}}
	svc := newAuthService(users, &mockAuthSchoolRepo{})

	_, err := svc.Register(context.Background(), validRegisterRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRegisterDuplicateSchoolName(t *testing.T) {
	users := &mockAuthUserRepo{usersByEmail: map[string]*models.User{}}
	schools := &mockAuthSchoolRepo{schoolNames: map[string]bool{"Northside High": true}}
	svc := newAuthService(users, schools)

	_, err := svc.Register(context.Background(), validRegisterRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func activeUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "u1",
		Email:        "user@example.com",
		PasswordHash: string(hash),
		Name:         "User",
		Role:         models.RoleTeacher,
		SchoolID:     "school-1",
		IsActive:     true,
	}
}

func TestLoginIssuesTokenPair(t *testing.T) {
	user := activeUser(t, "Passw0rd")
	users := &mockAuthUserRepo{
		usersByEmail: map[string]*models.User{user.Email: user},
		usersByID:    map[string]*models.User{user.ID: user},
	}
	svc := newAuthService(users, &mockAuthSchoolRepo{})

	res, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "Passw0rd"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.NotEqual(t, res.AccessToken, res.RefreshToken)
	assert.Equal(t, user.SchoolID, res.User.SchoolID)

	claims, err := svc.ValidateAccessToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.TokenAccess, claims.Kind)
}

func TestLoginWrongPasswordMatchesUnknownEmail(t *testing.T) {
	user := activeUser(t, "Passw0rd")
	users := &mockAuthUserRepo{usersByEmail: map[string]*models.User{user.Email: user}}
	svc := newAuthService(users, &mockAuthSchoolRepo{})

	_, badPassword := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "wrong-Passw0rd"})
	_, unknownEmail := svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "Passw0rd"})

	require.Error(t, badPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, appErrors.FromError(unknownEmail).Message, appErrors.FromError(badPassword).Message)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(badPassword).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := activeUser(t, "Passw0rd")
	user.IsActive = false
	users := &mockAuthUserRepo{usersByEmail: map[string]*models.User{user.Email: user}}
	svc := newAuthService(users, &mockAuthSchoolRepo{})

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "Passw0rd"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Message, appErrors.FromError(err).Message)
}

func TestRefreshRotatesPair(t *testing.T) {
	user := activeUser(t, "Passw0rd")
	users := &mockAuthUserRepo{
		usersByEmail: map[string]*models.User{user.Email: user},
		usersByID:    map[string]*models.User{user.ID: user},
	}
	svc := newAuthService(users, &mockAuthSchoolRepo{})

	login, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "Passw0rd"})
	require.NoError(t, err)

	pair, err := svc.Refresh(context.Background(), RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	user := activeUser(t, "Passw0rd")
	users := &mockAuthUserRepo{
		usersByEmail: map[string]*models.User{user.Email: user},
		usersByID:    map[string]*models.User{user.ID: user},
	}
	svc := newAuthService(users, &mockAuthSchoolRepo{})

	login, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "Passw0rd"})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), RefreshRequest{RefreshToken: login.AccessToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestRefreshDeactivatedUser(t *testing.T) {
	user := activeUser(t, "Passw0rd")
	users := &mockAuthUserRepo{
		usersByEmail: map[string]*models.User{user.Email: user},
		usersByID:    map[string]*models.User{user.ID: user},
	}
	svc := newAuthService(users, &mockAuthSchoolRepo{})

	login, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "Passw0rd"})
	require.NoError(t, err)

	user.IsActive = false
	_, err = svc.Refresh(context.Background(), RefreshRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Message, appErrors.FromError(err).Message)
}

func TestValidateAccessTokenRejectsRefreshToken(t *testing.T) {
	user := activeUser(t, "Passw0rd")
	users := &mockAuthUserRepo{
		usersByEmail: map[string]*models.User{user.Email: user},
		usersByID:    map[string]*models.User{user.ID: user},
	}
	svc := newAuthService(users, &mockAuthSchoolRepo{})

	login, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "Passw0rd"})
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(login.RefreshToken)
	require.Error(t, err)
}

func TestValidateAccessTokenGarbage(t *testing.T) {
	svc := newAuthService(&mockAuthUserRepo{}, &mockAuthSchoolRepo{})

	_, err := svc.ValidateAccessToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
