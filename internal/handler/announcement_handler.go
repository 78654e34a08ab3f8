package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/school-admin/school-api/internal/models"
	"github.com/school-admin/school-api/internal/service"
	appErrors "github.com/school-admin/school-api/pkg/errors"
	"github.com/school-admin/school-api/pkg/response"
)

// AnnouncementHandler exposes announcement endpoints.
type AnnouncementHandler struct {
	announcements *service.AnnouncementService
}

// NewAnnouncementHandler constructs an AnnouncementHandler.
func NewAnnouncementHandler(announcements *service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: announcements}
}

// List godoc
// @Summary List the school's announcements
// @Tags announcements
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param search query string false "Title or content search"
// @Param createdBy query string false "Author filter"
// @Param startDate query string false "Published range start (YYYY-MM-DD)"
// @Param endDate query string false "Published range end (YYYY-MM-DD)"
// @Success 200 {object} response.Paginated
// @Failure 400 {object} errors.Error
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
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
	start, end, err := dateRangeQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	filter := models.AnnouncementFilter{
		SchoolID:        user.SchoolID,
		Search:          c.Query("search"),
		CreatedByUserID: c.Query("createdBy"),
		StartDate:       start,
		EndDate:         end,
		PageRequest:     page,
	}
	announcements, pagination, err := h.announcements.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, announcements, pagination)
}

// Feed godoc
// @Summary List the announcements visible to the calling user
// @Tags announcements
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Paginated
// @Failure 400 {object} errors.Error
// @Router /announcements/feed [get]
func (h *AnnouncementHandler) Feed(c *gin.Context) {
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
	announcements, pagination, err := h.announcements.Feed(c.Request.Context(), user, page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, announcements, pagination)
}

// Get godoc
// @Summary Get one announcement
// @Tags announcements
// @Produce json
// @Security BearerAuth
// @Param id path string true "Announcement ID"
// @Success 200 {object} models.Announcement
// @Failure 404 {object} errors.Error
// @Router /announcements/{id} [get]
func (h *AnnouncementHandler) Get(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	announcement, err := h.announcements.Get(c.Request.Context(), c.Param("id"), user.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcement)
}

// Create godoc
// @Summary Publish an announcement
// @Tags announcements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateAnnouncementRequest true "Announcement payload"
// @Success 201 {object} models.Announcement
// @Failure 400 {object} errors.Error
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	announcement, err := h.announcements.Create(c.Request.Context(), user.SchoolID, user.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, announcement)
}

// Update godoc
// @Summary Update one announcement
// @Tags announcements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Announcement ID"
// @Param payload body service.UpdateAnnouncementRequest true "Fields to change"
// @Success 200 {object} models.Announcement
// @Failure 404 {object} errors.Error
// @Router /announcements/{id} [patch]
func (h *AnnouncementHandler) Update(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	announcement, err := h.announcements.Update(c.Request.Context(), c.Param("id"), user.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcement)
}

// Delete godoc
// @Summary Delete one announcement
// @Tags announcements
// @Security BearerAuth
// @Param id path string true "Announcement ID"
// @Success 204
// @Failure 404 {object} errors.Error
// @Router /announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.announcements.Delete(c.Request.Context(), c.Param("id"), user.SchoolID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
