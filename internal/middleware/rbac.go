package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/enrollments-service/pkg/errors"
	"github.com/noah-isme/enrollments-service/pkg/response"
)

// RequireRoles admits requests whose verified claims carry one of roles. It
// must run after JWT. An empty role list admits any authenticated caller.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if len(allowed) == 0 {
			c.Next()
			return
		}
		if _, ok := allowed[claims.Role]; ok {
			c.Next()
			return
		}
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role "+claims.Role+" may not modify enrollments"))
		c.Abort()
	}
}
