package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/school-admin/school-api/internal/middleware"
	"github.com/school-admin/school-api/internal/models"
	appErrors "github.com/school-admin/school-api/pkg/errors"
)

// currentUser returns the authenticated user; the JWT middleware guarantees
// it is present on protected routes.
func currentUser(c *gin.Context) (models.AuthUser, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return models.AuthUser{}, appErrors.ErrUnauthorized
	}
	return user, nil
}

// pageRequest parses the page and limit query parameters. Non-numeric
// values are rejected; range policy is enforced by the services.
func pageRequest(c *gin.Context) (models.PageRequest, error) {
	var page models.PageRequest
	if raw := c.Query("page"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return page, appErrors.Clone(appErrors.ErrValidation, "page must be an integer")
		}
		page.Page = value
	}
	if raw := c.Query("limit"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return page, appErrors.Clone(appErrors.ErrValidation, "limit must be an integer")
		}
		page.Limit = value
	}
	return page, nil
}

// dateRangeQuery parses the optional startDate and endDate parameters in
// YYYY-MM-DD form. Pairing rules are enforced by the services.
func dateRangeQuery(c *gin.Context) (*time.Time, *time.Time, error) {
	parse := func(name string) (*time.Time, error) {
		raw := c.Query(name)
		if raw == "" {
			return nil, nil
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, name+" must use the YYYY-MM-DD format")
		}
		return &t, nil
	}
	start, err := parse("startDate")
	if err != nil {
		return nil, nil, err
	}
	end, err := parse("endDate")
	if err != nil {
		return nil, nil, err
	}
	return start, end, nil
}
