package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/school-admin/school-api/internal/models"
	"github.com/school-admin/school-api/internal/service"
	appErrors "github.com/school-admin/school-api/pkg/errors"
	"github.com/school-admin/school-api/pkg/response"
)

// AttendanceHandler exposes attendance endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs an AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

func attendanceFilter(c *gin.Context, schoolID string) (models.AttendanceFilter, error) {
	page, err := pageRequest(c)
	if err != nil {
		return models.AttendanceFilter{}, err
	}
	start, end, err := dateRangeQuery(c)
	if err != nil {
		return models.AttendanceFilter{}, err
	}

	filter := models.AttendanceFilter{
		SchoolID:    schoolID,
		StudentID:   c.Query("studentId"),
		ClassID:     c.Query("classId"),
		StartDate:   start,
		EndDate:     end,
		PageRequest: page,
	}
	if raw := c.Query("status"); raw != "" {
		status := models.AttendanceStatus(raw)
		filter.Status = &status
	}
	return filter, nil
}

// List godoc
// @Summary List attendance records
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param studentId query string false "Student filter"
// @Param classId query string false "Class filter"
// @Param status query string false "Status filter"
// @Param startDate query string false "Range start (YYYY-MM-DD)"
// @Param endDate query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Paginated
// @Failure 400 {object} errors.Error
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter, err := attendanceFilter(c, user.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	records, pagination, err := h.attendance.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, records, pagination)
}

// ListByStudent godoc
// @Summary List one student's attendance history
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param status query string false "Status filter"
// @Param startDate query string false "Range start (YYYY-MM-DD)"
// @Param endDate query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Paginated
// @Failure 400 {object} errors.Error
// @Router /attendance/student/{studentId} [get]
func (h *AttendanceHandler) ListByStudent(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter, err := attendanceFilter(c, user.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter.StudentID = c.Param("studentId")
	records, pagination, err := h.attendance.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, records, pagination)
}

// ListByClass godoc
// @Summary List a class's attendance records
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param status query string false "Status filter"
// @Param startDate query string false "Range start (YYYY-MM-DD)"
// @Param endDate query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Paginated
// @Failure 400 {object} errors.Error
// @Router /attendance/class/{classId} [get]
func (h *AttendanceHandler) ListByClass(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter, err := attendanceFilter(c, user.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter.ClassID = c.Param("classId")
	records, pagination, err := h.attendance.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, records, pagination)
}

// Get godoc
// @Summary Get one attendance record
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Record ID"
// @Success 200 {object} models.AttendanceRecord
// @Failure 404 {object} errors.Error
// @Router /attendance/{id} [get]
func (h *AttendanceHandler) Get(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.attendance.Get(c.Request.Context(), c.Param("id"), user.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// Create godoc
// @Summary Record attendance for one student
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateAttendanceRequest true "Attendance payload"
// @Success 201 {object} models.AttendanceRecord
// @Failure 400 {object} errors.Error
// @Failure 409 {object} errors.Error
// @Router /attendance [post]
func (h *AttendanceHandler) Create(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.CreateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	record, err := h.attendance.Create(c.Request.Context(), user.SchoolID, user.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// CreateBulk godoc
// @Summary Record a batch of attendance entries atomically
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.BulkCreateAttendanceRequest true "Batch payload"
// @Success 201 {array} models.AttendanceRecord
// @Failure 400 {object} errors.Error
// @Failure 409 {object} errors.Error
// @Router /attendance/bulk [post]
func (h *AttendanceHandler) CreateBulk(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.BulkCreateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	records, err := h.attendance.CreateBulk(c.Request.Context(), user.SchoolID, user.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, records)
}

// Update godoc
// @Summary Update the status or remarks of one record
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Record ID"
// @Param payload body service.UpdateAttendanceRequest true "Fields to change"
// @Success 200 {object} models.AttendanceRecord
// @Failure 404 {object} errors.Error
// @Router /attendance/{id} [patch]
func (h *AttendanceHandler) Update(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	record, err := h.attendance.Update(c.Request.Context(), c.Param("id"), user.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// Delete godoc
// @Summary Delete one attendance record
// @Tags attendance
// @Security BearerAuth
// @Param id path string true "Record ID"
// @Success 204
// @Failure 404 {object} errors.Error
// @Router /attendance/{id} [delete]
func (h *AttendanceHandler) Delete(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.attendance.Delete(c.Request.Context(), c.Param("id"), user.SchoolID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Summary godoc
// @Summary Aggregate attendance counts by status
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param studentId query string false "Student filter"
// @Param classId query string false "Class filter"
// @Param startDate query string false "Range start (YYYY-MM-DD)"
// @Param endDate query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} models.AttendanceSummary
// @Failure 400 {object} errors.Error
// @Router /attendance/summary [get]
func (h *AttendanceHandler) Summary(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter, err := attendanceFilter(c, user.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.attendance.Summary(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary)
}
