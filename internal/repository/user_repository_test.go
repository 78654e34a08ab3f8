package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/school-admin/school-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func userRows(users ...models.User) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "name", "role", "school_id", "is_active", "created_at", "updated_at"})
	for _, u := range users {
		rows.AddRow(u.ID, u.Email, u.PasswordHash, u.Name, string(u.Role), u.SchoolID, u.IsActive, u.CreatedAt, u.UpdatedAt)
	}
	return rows
}

func TestUserFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	user := models.User{ID: "u1", Email: "user@example.com", PasswordHash: "hash", Name: "User", Role: models.RoleAdmin, SchoolID: "school-1", IsActive: true, CreatedAt: now, UpdatedAt: now}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, name, role, school_id, is_active, created_at, updated_at FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("user@example.com").
		WillReturnRows(userRows(user))

	found, err := repo.FindByEmail(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", found.ID)
	assert.Equal(t, "school-1", found.SchoolID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserFindInSchool(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	user := models.User{ID: "u1", Email: "user@example.com", Role: models.RoleTeacher, SchoolID: "school-1", IsActive: true, CreatedAt: now, UpdatedAt: now}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, name, role, school_id, is_active, created_at, updated_at FROM users WHERE id = $1 AND school_id = $2")).
		WithArgs("u1", "school-1").
		WillReturnRows(userRows(user))

	found, err := repo.FindInSchool(context.Background(), "u1", "school-1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, found.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserExistsByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("user@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByEmail(context.Background(), "user@example.com", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserExistsByEmailNoRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE email = $1 AND id <> $2 LIMIT 1")).
		WithArgs("user@example.com", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsByEmail(context.Background(), "user@example.com", "u1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	user := models.User{ID: "u1", Email: "a@example.com", Name: "A", Role: models.RoleAdmin, SchoolID: "school-1", IsActive: true, CreatedAt: now, UpdatedAt: now}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, name, role, school_id, is_active, created_at, updated_at FROM users WHERE school_id = $1 ORDER BY created_at DESC LIMIT 10 OFFSET 0")).
		WithArgs("school-1").
		WillReturnRows(userRows(user))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE school_id = $1")).
		WithArgs("school-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	users, total, err := repo.List(context.Background(), models.UserFilter{SchoolID: "school-1", PageRequest: models.PageRequest{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserListRoleFilter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	role := models.RoleTeacher
	mock.ExpectQuery(regexp.QuoteMeta("WHERE school_id = $1 AND role = $2 ORDER BY created_at DESC LIMIT 10 OFFSET 0")).
		WithArgs("school-1", role).
		WillReturnRows(userRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE school_id = $1 AND role = $2")).
		WithArgs("school-1", role).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	users, total, err := repo.List(context.Background(), models.UserFilter{SchoolID: "school-1", Role: &role, PageRequest: models.PageRequest{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 1))

	user := &models.User{Email: "new@example.com", PasswordHash: "hash", Name: "New", Role: models.RoleParent, SchoolID: "school-1", IsActive: true}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1 AND school_id = $2")).
		WithArgs("u1", "school-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "u1", "school-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
