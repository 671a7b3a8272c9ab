package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/precisesoft/ConnectKit-sub000/internal/domain"
	"github.com/precisesoft/ConnectKit-sub000/internal/service"
)

// Principal is the authenticated identity attached to a request
type Principal struct {
	UserID string
	Email  string
	Role   domain.Role
	Claims *domain.AccessClaims
}

const principalKey = "auth.principal"

// CurrentPrincipal returns the authenticated principal, if any
func CurrentPrincipal(c *gin.Context) (*Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}
	principal, ok := value.(*Principal)
	return principal, ok
}

// AuthMiddleware validates the bearer token, rejects blacklisted jtis and
// attaches a typed principal to the request context
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			respondError(c, domain.ErrInvalidToken)
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondError(c, domain.ErrInvalidToken)
			c.Abort()
			return
		}

		claims, err := authService.ValidateAccessToken(c.Request.Context(), parts[1])
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}

		c.Set(principalKey, &Principal{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
			Claims: claims,
		})

		c.Next()
	}
}

// RequireRole rejects requests whose principal lacks one of the roles
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			respondError(c, domain.ErrInvalidToken)
			c.Abort()
			return
		}

		for _, role := range roles {
			if principal.Role == role {
				c.Next()
				return
			}
		}

		respondError(c, domain.ErrForbidden)
		c.Abort()
	}
}
