package middleware

import (
	"errors"
	"strings"

	"github.com/alumnet/alumnet-backend/internal/common"
	"github.com/alumnet/alumnet-backend/internal/domain"
	"github.com/alumnet/alumnet-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// JWTAuth verifies the bearer token and injects the caller as an explicit
// principal into the request context. Handlers pass it onward; no service
// ever reads identity from ambient state.
func JWTAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			common.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.VerifyToken(parts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				common.Unauthorized(c, "token expired")
			} else {
				common.Unauthorized(c, "invalid token")
			}
			c.Abort()
			return
		}

		c.Set(principalKey, domain.Principal{
			ID:     claims.UserID,
			Name:   claims.Name,
			Role:   claims.Role,
			Status: claims.Status,
		})

		c.Next()
	}
}

// GetPrincipal extracts the authenticated principal from the context.
func GetPrincipal(c *gin.Context) (domain.Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return domain.Principal{}, false
	}
	principal, ok := value.(domain.Principal)
	return principal, ok
}
