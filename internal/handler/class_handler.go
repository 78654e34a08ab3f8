package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/school-admin/school-api/internal/models"
	"github.com/school-admin/school-api/internal/service"
	appErrors "github.com/school-admin/school-api/pkg/errors"
	"github.com/school-admin/school-api/pkg/response"
)

// ClassHandler exposes class management endpoints.
type ClassHandler struct {
	classes *service.ClassService
}

// NewClassHandler constructs a ClassHandler.
func NewClassHandler(classes *service.ClassService) *ClassHandler {
	return &ClassHandler{classes: classes}
}

// List godoc
// @Summary List the school's classes
// @Tags classes
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param search query string false "Class name search"
// @Param teacherId query string false "Teacher filter"
// @Param academicYear query string false "Academic year filter"
// @Success 200 {object} response.Paginated
// @Failure 400 {object} errors.Error
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, err := pageRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	filter := models.ClassFilter{
		SchoolID:     user.SchoolID,
		Search:       c.Query("search"),
		TeacherID:    c.Query("teacherId"),
		AcademicYear: c.Query("academicYear"),
		PageRequest:  page,
	}
	classes, pagination, err := h.classes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, classes, pagination)
}

// Get godoc
// @Summary Get one class
// @Tags classes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} models.ClassDetail
// @Failure 404 {object} errors.Error
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	class, err := h.classes.Get(c.Request.Context(), c.Param("id"), user.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class)
}

// Create godoc
// @Summary Create a class
// @Tags classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateClassRequest true "Class payload"
// @Success 201 {object} models.ClassDetail
// @Failure 400 {object} errors.Error
// @Failure 409 {object} errors.Error
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	class, err := h.classes.Create(c.Request.Context(), user.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Update godoc
// @Summary Update one class
// @Tags classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param payload body service.UpdateClassRequest true "Fields to change"
// @Success 200 {object} models.ClassDetail
// @Failure 404 {object} errors.Error
// @Failure 409 {object} errors.Error
// @Router /classes/{id} [patch]
func (h *ClassHandler) Update(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	class, err := h.classes.Update(c.Request.Context(), c.Param("id"), user.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class)
}

// Delete godoc
// @Summary Delete one class with no enrolled students
// @Tags classes
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 204
// @Failure 404 {object} errors.Error
// @Failure 409 {object} errors.Error
// @Router /classes/{id} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.classes.Delete(c.Request.Context(), c.Param("id"), user.SchoolID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
