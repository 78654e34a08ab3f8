package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/school-admin/school-api/internal/models"
	"github.com/school-admin/school-api/internal/service"
	appErrors "github.com/school-admin/school-api/pkg/errors"
	"github.com/school-admin/school-api/pkg/response"
)

// ParentHandler exposes parent profile endpoints.
type ParentHandler struct {
	parents *service.ParentService
}

// NewParentHandler constructs a ParentHandler.
func NewParentHandler(parents *service.ParentService) *ParentHandler {
	return &ParentHandler{parents: parents}
}

// List godoc
// @Summary List the school's parents
// @Tags parents
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param search query string false "Name or contact email search"
// @Success 200 {object} response.Paginated
// @Failure 400 {object} errors.Error
// @Router /parents [get]
func (h *ParentHandler) List(c *gin.Context) {
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

	filter := models.ParentFilter{
		SchoolID:    user.SchoolID,
		Search:      c.Query("search"),
		PageRequest: page,
	}
	parents, pagination, err := h.parents.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, parents, pagination)
}

// Get godoc
// @Summary Get one parent
// @Tags parents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Parent ID"
// @Success 200 {object} models.Parent
// @Failure 404 {object} errors.Error
// @Router /parents/{id} [get]
func (h *ParentHandler) Get(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	parent, err := h.parents.Get(c.Request.Context(), c.Param("id"), user.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parent)
}

// Create godoc
// @Summary Create a parent
// @Tags parents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateParentRequest true "Parent payload"
// @Success 201 {object} models.Parent
// @Failure 400 {object} errors.Error
// @Router /parents [post]
func (h *ParentHandler) Create(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.CreateParentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	parent, err := h.parents.Create(c.Request.Context(), user.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, parent)
}

// Update godoc
// @Summary Update one parent
// @Tags parents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Parent ID"
// @Param payload body service.UpdateParentRequest true "Fields to change"
// @Success 200 {object} models.Parent
// @Failure 404 {object} errors.Error
// @Router /parents/{id} [patch]
func (h *ParentHandler) Update(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateParentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	parent, err := h.parents.Update(c.Request.Context(), c.Param("id"), user.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parent)
}

// Delete godoc
// @Summary Soft-delete one parent
// @Tags parents
// @Security BearerAuth
// @Param id path string true "Parent ID"
// @Success 204
// @Failure 404 {object} errors.Error
// @Router /parents/{id} [delete]
func (h *ParentHandler) Delete(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.parents.Delete(c.Request.Context(), c.Param("id"), user.SchoolID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Students godoc
// @Summary List the students linked to a parent
// @Tags parents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Parent ID"
// @Success 200 {array} models.Student
// @Failure 404 {object} errors.Error
// @Router /parents/{id}/students [get]
func (h *ParentHandler) Students(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	students, err := h.parents.Students(c.Request.Context(), c.Param("id"), user.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students)
}
