package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/school-admin/school-api/internal/models"
	"github.com/school-admin/school-api/internal/validation"
	appErrors "github.com/school-admin/school-api/pkg/errors"
	"github.com/school-admin/school-api/pkg/export"
)

type gradeRepo interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, int, error)
	ListAll(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, error)
	FindByID(ctx context.Context, id, schoolID string) (*models.GradeDetail, error)
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, id, schoolID string) error
	StudentInSchool(ctx context.Context, studentID, schoolID string) (bool, error)
	ClassInSchool(ctx context.Context, classID, schoolID string) (bool, error)
	IsEnrolled(ctx context.Context, studentID, classID string) (bool, error)
}

// GradeService manages grades and the grade report export.
type GradeService struct {
	repo     gradeRepo
	validate *validator.Validate
	logger   *zap.Logger
}

// NewGradeService constructs a GradeService.
func NewGradeService(repo gradeRepo, logger *zap.Logger) *GradeService {
	return &GradeService{repo: repo, validate: validator.New(), logger: logger}
}

// CreateGradeRequest records a score for an enrolled student. Dates use the
// YYYY-MM-DD layout.
type CreateGradeRequest struct {
	StudentID string  `json:"studentId" validate:"required"`
	ClassID   string  `json:"classId" validate:"required"`
	Type      string  `json:"type" validate:"required"`
	Value     float64 `json:"value" validate:"min=0,max=100"`
	MaxValue  float64 `json:"maxValue" validate:"omitempty,gt=0,lte=100"`
	Date      string  `json:"date" validate:"required"`
	Title     string  `json:"title" validate:"required,min=1,max=200"`
	Remarks   *string `json:"remarks"`
}

// UpdateGradeRequest carries the mutable grade fields.
type UpdateGradeRequest struct {
	Type     *string  `json:"type"`
	Value    *float64 `json:"value" validate:"omitempty,min=0,max=100"`
	MaxValue *float64 `json:"maxValue" validate:"omitempty,gt=0,lte=100"`
	Date     *string  `json:"date"`
	Title    *string  `json:"title" validate:"omitempty,min=1,max=200"`
	Remarks  *string  `json:"remarks"`
}

// List returns a page of the school's grades.
func (s *GradeService) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, models.Pagination, error) {
	filter.Normalize()
	if err := validation.Page(filter.Page, filter.Limit); err != nil {
		return nil, models.Pagination{}, err
	}
	if err := validation.DateRange(filter.StartDate, filter.EndDate); err != nil {
		return nil, models.Pagination{}, err
	}
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, models.Pagination{}, appErrors.Clone(appErrors.ErrValidation, "invalid grade type filter")
	}

	grades, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	if grades == nil {
		grades = []models.GradeDetail{}
	}
	return grades, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns one grade of the school.
func (s *GradeService) Get(ctx context.Context, id, schoolID string) (*models.GradeDetail, error) {
	grade, err := s.repo.FindByID(ctx, id, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get grade")
	}
	return grade, nil
}

// Create records a grade. The student must be enrolled in the class.
func (s *GradeService) Create(ctx context.Context, schoolID, recordedByID string, req CreateGradeRequest) (*models.Grade, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	gradeType := models.GradeType(req.Type)
	if !gradeType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid grade type")
	}
	if req.MaxValue == 0 {
		req.MaxValue = models.DefaultGradeMaxValue
	}
	if req.Value > req.MaxValue {
		return nil, appErrors.Clone(appErrors.ErrValidation, "value cannot exceed maxValue")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	found, err := s.repo.StudentInSchool(ctx, req.StudentID, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student")
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	found, err = s.repo.ClassInSchool(ctx, req.ClassID, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class")
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}

	enrolled, err := s.repo.IsEnrolled(ctx, req.StudentID, req.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student is not enrolled in this class")
	}

	grade := &models.Grade{
		StudentID:    req.StudentID,
		ClassID:      req.ClassID,
		Type:         gradeType,
		Value:        req.Value,
		MaxValue:     req.MaxValue,
		Date:         date,
		Title:        req.Title,
		Remarks:      req.Remarks,
		RecordedByID: recordedByID,
		SchoolID:     schoolID,
	}
	if err := s.repo.Create(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade")
	}

	s.logger.Info("grade recorded", zap.String("grade_id", grade.ID), zap.String("class_id", grade.ClassID))
	return grade, nil
}

// Update modifies one grade of the school.
func (s *GradeService) Update(ctx context.Context, id, schoolID string, req UpdateGradeRequest) (*models.GradeDetail, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	grade, err := s.Get(ctx, id, schoolID)
	if err != nil {
		return nil, err
	}

	if req.Type != nil {
		gradeType := models.GradeType(*req.Type)
		if !gradeType.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid grade type")
		}
		grade.Type = gradeType
	}
	if req.Value != nil {
		grade.Value = *req.Value
	}
	if req.MaxValue != nil {
		grade.MaxValue = *req.MaxValue
	}
	if grade.Value > grade.MaxValue {
		return nil, appErrors.Clone(appErrors.ErrValidation, "value cannot exceed maxValue")
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return nil, err
		}
		grade.Date = date
	}
	if req.Title != nil {
		grade.Title = *req.Title
	}
	if req.Remarks != nil {
		grade.Remarks = req.Remarks
	}

	if err := s.repo.Update(ctx, &grade.Grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade")
	}
	return grade, nil
}

// Delete removes one grade.
func (s *GradeService) Delete(ctx context.Context, id, schoolID string) error {
	if _, err := s.Get(ctx, id, schoolID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, schoolID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade")
	}
	return nil
}

// Export renders every grade matching the filters as a downloadable report.
func (s *GradeService) Export(ctx context.Context, filter models.GradeFilter, format export.Format) ([]byte, error) {
	if err := validation.DateRange(filter.StartDate, filter.EndDate); err != nil {
		return nil, err
	}
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid grade type filter")
	}

	grades, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export grades")
	}

	table := export.Table{
		Title:   "Grade Report",
		Headers: []string{"Student", "Student ID", "Class", "Title", "Type", "Score", "Date"},
		Rows:    make([][]string, 0, len(grades)),
	}
	for _, g := range grades {
		table.Rows = append(table.Rows, []string{
			g.StudentName,
			g.StudentNumber,
			g.ClassName,
			g.Title,
			string(g.Type),
			fmt.Sprintf("%.2f/%.2f", g.Value, g.MaxValue),
			g.Date.Format("2006-01-02"),
		})
	}

	data, err := export.Render(table, format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return data, nil
}
