package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/school-admin/school-api/internal/models"
	appErrors "github.com/school-admin/school-api/pkg/errors"
)

type mockTeacherRepo struct {
	teachers    map[string]*models.TeacherDetail
	classCounts map[string]int
	nextID      int
}

func newMockTeacherRepo() *mockTeacherRepo {
	return &mockTeacherRepo{teachers: map[string]*models.TeacherDetail{}, classCounts: map[string]int{}}
}

func (m *mockTeacherRepo) List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, int, error) {
	var out []models.TeacherDetail
	for _, teacher := range m.teachers {
		if teacher.SchoolID == filter.SchoolID {
			out = append(out, *teacher)
		}
	}
	return out, len(out), nil
}

func (m *mockTeacherRepo) FindByID(ctx context.Context, id, schoolID string) (*models.TeacherDetail, error) {
	if teacher, ok := m.teachers[id]; ok && teacher.SchoolID == schoolID {
		copied := *teacher
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) ExistsForUser(ctx context.Context, userID string) (bool, error) {
	for _, teacher := range m.teachers {
		if teacher.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTeacherRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	m.nextID++
	teacher.ID = fmt.Sprintf("teacher-%d", m.nextID)
	m.teachers[teacher.ID] = &models.TeacherDetail{Teacher: *teacher}
	return nil
}

func (m *mockTeacherRepo) Update(ctx context.Context, teacher *models.Teacher) error {
	m.teachers[teacher.ID] = &models.TeacherDetail{Teacher: *teacher}
	return nil
}

func (m *mockTeacherRepo) Delete(ctx context.Context, id, schoolID string) error {
	delete(m.teachers, id)
	return nil
}

func (m *mockTeacherRepo) CountClasses(ctx context.Context, teacherID string) (int, error) {
	return m.classCounts[teacherID], nil
}

type mockTeacherUserRepo struct {
	users map[string]*models.User
}

func (m *mockTeacherUserRepo) FindInSchool(ctx context.Context, id, schoolID string) (*models.User, error) {
	if user, ok := m.users[id]; ok && user.SchoolID == schoolID {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func TestCreateTeacherProfile(t *testing.T) {
	repo := newMockTeacherRepo()
	users := &mockTeacherUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", SchoolID: "school-1", Role: models.RoleTeacher, Name: "Tess Teacher", Email: "tess@example.com"},
	}}
	svc := NewTeacherService(repo, users, zap.NewNop())

	teacher, err := svc.Create(context.Background(), "school-1", CreateTeacherRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "u1", teacher.UserID)
	assert.Equal(t, "Tess Teacher", teacher.Name)
}

func TestCreateTeacherWrongRole(t *testing.T) {
	users := &mockTeacherUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", SchoolID: "school-1", Role: models.RoleParent},
	}}
	svc := NewTeacherService(newMockTeacherRepo(), users, zap.NewNop())

	_, err := svc.Create(context.Background(), "school-1", CreateTeacherRequest{UserID: "u1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateTeacherDuplicateProfile(t *testing.T) {
	repo := newMockTeacherRepo()
	users := &mockTeacherUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", SchoolID: "school-1", Role: models.RoleTeacher},
	}}
	svc := NewTeacherService(repo, users, zap.NewNop())

	_, err := svc.Create(context.Background(), "school-1", CreateTeacherRequest{UserID: "u1"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "school-1", CreateTeacherRequest{UserID: "u1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateTeacherUserFromOtherSchool(t *testing.T) {
	users := &mockTeacherUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", SchoolID: "school-2", Role: models.RoleTeacher},
	}}
	svc := NewTeacherService(newMockTeacherRepo(), users, zap.NewNop())

	_, err := svc.Create(context.Background(), "school-1", CreateTeacherRequest{UserID: "u1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDeleteTeacherWithClasses(t *testing.T) {
	repo := newMockTeacherRepo()
	users := &mockTeacherUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", SchoolID: "school-1", Role: models.RoleTeacher},
	}}
	svc := NewTeacherService(repo, users, zap.NewNop())

	teacher, err := svc.Create(context.Background(), "school-1", CreateTeacherRequest{UserID: "u1"})
	require.NoError(t, err)
	repo.classCounts[teacher.ID] = 2

	err = svc.Delete(context.Background(), teacher.ID, "school-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestDeleteUnassignedTeacher(t *testing.T) {
	repo := newMockTeacherRepo()
	users := &mockTeacherUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", SchoolID: "school-1", Role: models.RoleTeacher},
	}}
	svc := NewTeacherService(repo, users, zap.NewNop())

	teacher, err := svc.Create(context.Background(), "school-1", CreateTeacherRequest{UserID: "u1"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), teacher.ID, "school-1"))
	assert.NotContains(t, repo.teachers, teacher.ID)
}

func TestCreateTeacherBadJoiningDate(t *testing.T) {
	users := &mockTeacherUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", SchoolID: "school-1", Role: models.RoleTeacher},
	}}
	svc := NewTeacherService(newMockTeacherRepo(), users, zap.NewNop())

	bad := "March 1st"
	_, err := svc.Create(context.Background(), "school-1", CreateTeacherRequest{UserID: "u1", DateOfJoining: &bad})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
