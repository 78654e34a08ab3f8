package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/school-admin/school-api/internal/models"
	"github.com/school-admin/school-api/internal/service"
	appErrors "github.com/school-admin/school-api/pkg/errors"
	"github.com/school-admin/school-api/pkg/response"
)

// StudentHandler exposes student management endpoints.
type StudentHandler struct {
	students *service.StudentService
}

// NewStudentHandler constructs a StudentHandler.
func NewStudentHandler(students *service.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// List godoc
// @Summary List the school's students
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param search query string false "Name or student ID search"
// @Param enrollmentStatus query string false "Enrollment status filter"
// @Param classId query string false "Class filter"
// @Success 200 {object} response.Paginated
// @Failure 400 {object} errors.Error
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
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

	filter := models.StudentFilter{
		SchoolID:    user.SchoolID,
		Search:      c.Query("search"),
		ClassID:     c.Query("classId"),
		PageRequest: page,
	}
	if raw := c.Query("enrollmentStatus"); raw != "" {
		status := models.EnrollmentStatus(raw)
		filter.EnrollmentStatus = &status
	}

	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, students, pagination)
}

// Get godoc
// @Summary Get one student
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} models.Student
// @Failure 404 {object} errors.Error
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.students.Get(c.Request.Context(), c.Param("id"), user.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Create godoc
// @Summary Create a student
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateStudentRequest true "Student payload"
// @Success 201 {object} models.Student
// @Failure 400 {object} errors.Error
// @Failure 409 {object} errors.Error
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	student, err := h.students.Create(c.Request.Context(), user.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update one student
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body service.UpdateStudentRequest true "Fields to change"
// @Success 200 {object} models.Student
// @Failure 404 {object} errors.Error
// @Router /students/{id} [patch]
func (h *StudentHandler) Update(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	student, err := h.students.Update(c.Request.Context(), c.Param("id"), user.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Delete godoc
// @Summary Soft-delete one student
// @Tags students
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 204
// @Failure 404 {object} errors.Error
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.students.Delete(c.Request.Context(), c.Param("id"), user.SchoolID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Enroll godoc
// @Summary Enroll a student in a class
// @Tags students
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param classId path string true "Class ID"
// @Success 204
// @Failure 404 {object} errors.Error
// @Failure 409 {object} errors.Error
// @Router /students/{id}/classes/{classId} [post]
func (h *StudentHandler) Enroll(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.students.Enroll(c.Request.Context(), c.Param("id"), c.Param("classId"), user.SchoolID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Unenroll godoc
// @Summary Remove a student from a class
// @Tags students
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param classId path string true "Class ID"
// @Success 204
// @Failure 404 {object} errors.Error
// @Router /students/{id}/classes/{classId} [delete]
func (h *StudentHandler) Unenroll(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.students.Unenroll(c.Request.Context(), c.Param("id"), c.Param("classId"), user.SchoolID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Parents godoc
// @Summary List the parents linked to a student
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {array} models.Parent
// @Failure 404 {object} errors.Error
// @Router /students/{id}/parents [get]
func (h *StudentHandler) Parents(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	parents, err := h.students.Parents(c.Request.Context(), c.Param("id"), user.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parents)
}

// LinkParent godoc
// @Summary Link a parent to a student
// @Tags students
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param parentId path string true "Parent ID"
// @Success 204
// @Failure 404 {object} errors.Error
// @Failure 409 {object} errors.Error
// @Router /students/{id}/parents/{parentId} [post]
func (h *StudentHandler) LinkParent(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.students.LinkParent(c.Request.Context(), c.Param("id"), c.Param("parentId"), user.SchoolID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UnlinkParent godoc
// @Summary Unlink a parent from a student
// @Tags students
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param parentId path string true "Parent ID"
// @Success 204
// @Failure 404 {object} errors.Error
// @Router /students/{id}/parents/{parentId} [delete]
func (h *StudentHandler) UnlinkParent(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.students.UnlinkParent(c.Request.Context(), c.Param("id"), c.Param("parentId"), user.SchoolID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
