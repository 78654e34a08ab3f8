package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/school-admin/school-api/internal/models"
	appErrors "github.com/school-admin/school-api/pkg/errors"
	"github.com/school-admin/school-api/pkg/response"
)

// RBAC allows the request only when the authenticated user's role is in the
// allowed set. It must run after JWT.
func RBAC(allowed ...models.Role) gin.HandlerFunc {
	set := make(map[models.Role]struct{}, len(allowed))
	for _, role := range allowed {
		set[role] = struct{}{}
	}
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, permitted := set[user.Role]; !permitted {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "insufficient role"))
			c.Abort()
			return
		}
		c.Next()
	}
}
