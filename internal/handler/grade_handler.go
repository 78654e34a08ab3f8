package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/school-admin/school-api/internal/models"
	"github.com/school-admin/school-api/internal/service"
	appErrors "github.com/school-admin/school-api/pkg/errors"
	"github.com/school-admin/school-api/pkg/export"
	"github.com/school-admin/school-api/pkg/response"
)

// GradeHandler exposes grade endpoints including the report export.
type GradeHandler struct {
	grades *service.GradeService
}

// NewGradeHandler constructs a GradeHandler.
func NewGradeHandler(grades *service.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

func gradeFilter(c *gin.Context, schoolID string) (models.GradeFilter, error) {
	page, err := pageRequest(c)
	if err != nil {
		return models.GradeFilter{}, err
	}
	start, end, err := dateRangeQuery(c)
	if err != nil {
		return models.GradeFilter{}, err
	}

	filter := models.GradeFilter{
		SchoolID:    schoolID,
		StudentID:   c.Query("studentId"),
		ClassID:     c.Query("classId"),
		StartDate:   start,
		EndDate:     end,
		PageRequest: page,
	}
	if raw := c.Query("type"); raw != "" {
		gradeType := models.GradeType(raw)
		filter.Type = &gradeType
	}
	return filter, nil
}

// List godoc
// @Summary List grades
// @Tags grades
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param studentId query string false "Student filter"
// @Param classId query string false "Class filter"
// @Param type query string false "Grade type filter"
// @Param startDate query string false "Range start (YYYY-MM-DD)"
// @Param endDate query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Paginated
// @Failure 400 {object} errors.Error
// @Router /grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter, err := gradeFilter(c, user.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	grades, pagination, err := h.grades.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, grades, pagination)
}

// Get godoc
// @Summary Get one grade
// @Tags grades
// @Produce json
// @Security BearerAuth
// @Param id path string true "Grade ID"
// @Success 200 {object} models.GradeDetail
// @Failure 404 {object} errors.Error
// @Router /grades/{id} [get]
func (h *GradeHandler) Get(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	grade, err := h.grades.Get(c.Request.Context(), c.Param("id"), user.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade)
}

// Create godoc
// @Summary Record a grade for an enrolled student
// @Tags grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateGradeRequest true "Grade payload"
// @Success 201 {object} models.Grade
// @Failure 400 {object} errors.Error
// @Failure 404 {object} errors.Error
// @Failure 409 {object} errors.Error
// @Router /grades [post]
func (h *GradeHandler) Create(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.CreateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	grade, err := h.grades.Create(c.Request.Context(), user.SchoolID, user.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grade)
}

// Update godoc
// @Summary Update one grade
// @Tags grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Grade ID"
// @Param payload body service.UpdateGradeRequest true "Fields to change"
// @Success 200 {object} models.GradeDetail
// @Failure 404 {object} errors.Error
// @Router /grades/{id} [patch]
func (h *GradeHandler) Update(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	grade, err := h.grades.Update(c.Request.Context(), c.Param("id"), user.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade)
}

// Delete godoc
// @Summary Delete one grade
// @Tags grades
// @Security BearerAuth
// @Param id path string true "Grade ID"
// @Success 204
// @Failure 404 {object} errors.Error
// @Router /grades/{id} [delete]
func (h *GradeHandler) Delete(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.grades.Delete(c.Request.Context(), c.Param("id"), user.SchoolID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Download a grade report as CSV or PDF
// @Tags grades
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Param studentId query string false "Student filter"
// @Param classId query string false "Class filter"
// @Param type query string false "Grade type filter"
// @Param startDate query string false "Range start (YYYY-MM-DD)"
// @Param endDate query string false "Range end (YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 400 {object} errors.Error
// @Router /grades/export [get]
func (h *GradeHandler) Export(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter, err := gradeFilter(c, user.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	data, err := h.grades.Export(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("grade-report-%s.%s", time.Now().UTC().Format("2006-01-02"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, format.ContentType(), data)
}
