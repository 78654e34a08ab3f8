package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/school-admin/school-api/internal/models"
	appErrors "github.com/school-admin/school-api/pkg/errors"
	"github.com/school-admin/school-api/pkg/response"
)

// ContextUserKey is the gin context key holding the authenticated user.
const ContextUserKey = "currentUser"

type tokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.JWTClaims, error)
}

// JWT authenticates requests with a Bearer access token and stores the
// authenticated user in the context.
func JWT(auth tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing authorization header"))
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := auth.ValidateAccessToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, models.AuthUser{
			ID:       claims.UserID,
			Email:    claims.Email,
			Role:     claims.Role,
			SchoolID: claims.SchoolID,
			IsActive: true,
		})
		c.Next()
	}
}

// CurrentUser returns the authenticated user stored by the JWT middleware.
func CurrentUser(c *gin.Context) (models.AuthUser, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return models.AuthUser{}, false
	}
	user, ok := value.(models.AuthUser)
	return user, ok
}
