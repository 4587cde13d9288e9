package middleware

import (
	"net/http"

	"github.com/alumnet/alumnet-backend/internal/common"
	"github.com/alumnet/alumnet-backend/internal/domain"
	"github.com/gin-gonic/gin"
)

// RequireRole checks that the authenticated principal has one of the roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			common.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		for _, role := range roles {
			if principal.Role == role {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, common.Response{
			Success: false,
			Error:   &common.ErrorInfo{Code: string(common.KindForbidden), Message: "insufficient role"},
		})
		c.Abort()
	}
}

// RequireAdmin checks that the authenticated principal is an admin
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}
