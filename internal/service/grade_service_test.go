package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/school-admin/school-api/internal/models"
	appErrors "github.com/school-admin/school-api/pkg/errors"
	"github.com/school-admin/school-api/pkg/export"
)

type mockGradeRepo struct {
	grades      map[string]*models.GradeDetail
	students    map[string]bool
	classes     map[string]bool
	enrollments map[string]bool
	nextID      int
}

func newMockGradeRepo() *mockGradeRepo {
	return &mockGradeRepo{
		grades:      map[string]*models.GradeDetail{},
		students:    map[string]bool{},
		classes:     map[string]bool{},
		enrollments: map[string]bool{},
	}
}

func (m *mockGradeRepo) enroll(studentID, classID string) {
	m.students[studentID] = true
	m.classes[classID] = true
	m.enrollments[studentID+"|"+classID] = true
}

func (m *mockGradeRepo) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, int, error) {
	grades, err := m.ListAll(ctx, filter)
	return grades, len(grades), err
}

func (m *mockGradeRepo) ListAll(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, error) {
	var out []models.GradeDetail
	for _, g := range m.grades {
		if g.SchoolID == filter.SchoolID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *mockGradeRepo) FindByID(ctx context.Context, id, schoolID string) (*models.GradeDetail, error) {
	if g, ok := m.grades[id]; ok && g.SchoolID == schoolID {
		copied := *g
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeRepo) Create(ctx context.Context, grade *models.Grade) error {
	m.nextID++
	grade.ID = fmt.Sprintf("grade-%d", m.nextID)
	m.grades[grade.ID] = &models.GradeDetail{Grade: *grade, StudentName: "Jo Ward", StudentNumber: "S-100", ClassName: "10A"}
	return nil
}

func (m *mockGradeRepo) Update(ctx context.Context, grade *models.Grade) error {
	m.grades[grade.ID] = &models.GradeDetail{Grade: *grade}
	return nil
}

func (m *mockGradeRepo) Delete(ctx context.Context, id, schoolID string) error {
	delete(m.grades, id)
	return nil
}

func (m *mockGradeRepo) StudentInSchool(ctx context.Context, studentID, schoolID string) (bool, error) {
	return m.students[studentID], nil
}

func (m *mockGradeRepo) ClassInSchool(ctx context.Context, classID, schoolID string) (bool, error) {
	return m.classes[classID], nil
}

func (m *mockGradeRepo) IsEnrolled(ctx context.Context, studentID, classID string) (bool, error) {
	return m.enrollments[studentID+"|"+classID], nil
}

func validGradeRequest() CreateGradeRequest {
	return CreateGradeRequest{
		StudentID: "stu-1",
		ClassID:   "class-1",
		Type:      string(models.GradeExam),
		Value:     85,
		MaxValue:  100,
		Date:      "2026-03-09",
		Title:     "Midterm exam",
	}
}

func TestCreateGrade(t *testing.T) {
	repo := newMockGradeRepo()
	repo.enroll("stu-1", "class-1")
	svc := NewGradeService(repo, zap.NewNop())

	grade, err := svc.Create(context.Background(), "school-1", "teacher-1", validGradeRequest())
	require.NoError(t, err)
	assert.Equal(t, models.GradeExam, grade.Type)
	assert.Equal(t, 85.0, grade.Value)
	assert.Equal(t, "teacher-1", grade.RecordedByID)
}

func TestCreateGradeNotEnrolled(t *testing.T) {
	repo := newMockGradeRepo()
	repo.students["stu-1"] = true
	repo.classes["class-1"] = true
	svc := NewGradeService(repo, zap.NewNop())

	_, err := svc.Create(context.Background(), "school-1", "teacher-1", validGradeRequest())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "not enrolled")
}

func TestCreateGradeValueExceedsMax(t *testing.T) {
	repo := newMockGradeRepo()
	repo.enroll("stu-1", "class-1")
	svc := NewGradeService(repo, zap.NewNop())

	req := validGradeRequest()
	req.Value = 110
	_, err := svc.Create(context.Background(), "school-1", "teacher-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateGradeRejectsValuesAboveScale(t *testing.T) {
	repo := newMockGradeRepo()
	repo.enroll("stu-1", "class-1")
	svc := NewGradeService(repo, zap.NewNop())

	req := validGradeRequest()
	req.Value = 150
	req.MaxValue = 200
	_, err := svc.Create(context.Background(), "school-1", "teacher-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.grades)
}

func TestCreateGradeDefaultsMaxValue(t *testing.T) {
	repo := newMockGradeRepo()
	repo.enroll("stu-1", "class-1")
	svc := NewGradeService(repo, zap.NewNop())

	req := validGradeRequest()
	req.MaxValue = 0
	grade, err := svc.Create(context.Background(), "school-1", "teacher-1", req)
	require.NoError(t, err)
	assert.Equal(t, float64(models.DefaultGradeMaxValue), grade.MaxValue)
}

func TestUpdateGradeRejectsMaxValueAboveScale(t *testing.T) {
	repo := newMockGradeRepo()
	repo.enroll("stu-1", "class-1")
	svc := NewGradeService(repo, zap.NewNop())

	grade, err := svc.Create(context.Background(), "school-1", "teacher-1", validGradeRequest())
	require.NoError(t, err)

	highMax := 150.0
	_, err = svc.Update(context.Background(), grade.ID, "school-1", UpdateGradeRequest{MaxValue: &highMax})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateGradeInvalidType(t *testing.T) {
	repo := newMockGradeRepo()
	repo.enroll("stu-1", "class-1")
	svc := NewGradeService(repo, zap.NewNop())

	req := validGradeRequest()
	req.Type = "VIBES"
	_, err := svc.Create(context.Background(), "school-1", "teacher-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateGradeValueRecheckedAgainstMax(t *testing.T) {
	repo := newMockGradeRepo()
	repo.enroll("stu-1", "class-1")
	svc := NewGradeService(repo, zap.NewNop())

	grade, err := svc.Create(context.Background(), "school-1", "teacher-1", validGradeRequest())
	require.NoError(t, err)

	lowMax := 50.0
	_, err = svc.Update(context.Background(), grade.ID, "school-1", UpdateGradeRequest{MaxValue: &lowMax})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportGradesCSV(t *testing.T) {
	repo := newMockGradeRepo()
	repo.enroll("stu-1", "class-1")
	svc := NewGradeService(repo, zap.NewNop())

	_, err := svc.Create(context.Background(), "school-1", "teacher-1", validGradeRequest())
	require.NoError(t, err)

	data, err := svc.Export(context.Background(), models.GradeFilter{SchoolID: "school-1"}, export.FormatCSV)
	require.NoError(t, err)

	csv := string(data)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Student ID")
	assert.Contains(t, lines[1], "Jo Ward")
	assert.Contains(t, lines[1], "85.00/100.00")
	assert.Contains(t, lines[1], "2026-03-09")
}

func TestExportGradesPDF(t *testing.T) {
	repo := newMockGradeRepo()
	repo.enroll("stu-1", "class-1")
	svc := NewGradeService(repo, zap.NewNop())

	_, err := svc.Create(context.Background(), "school-1", "teacher-1", validGradeRequest())
	require.NoError(t, err)

	data, err := svc.Export(context.Background(), models.GradeFilter{SchoolID: "school-1"}, export.FormatPDF)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestExportRejectsLoneDateBound(t *testing.T) {
	svc := NewGradeService(newMockGradeRepo(), zap.NewNop())

	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	_, err := svc.Export(context.Background(), models.GradeFilter{SchoolID: "school-1", EndDate: &end}, export.FormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
