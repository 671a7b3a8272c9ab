package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/precisesoft/ConnectKit-sub000/internal/domain"
	"github.com/precisesoft/ConnectKit-sub000/internal/service"
)

// RateLimitMiddleware throttles an action with the Redis-backed limiter.
// Administrators and the test environment are exempt by policy.
func RateLimitMiddleware(limiter *service.RateLimiter, env, action string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if env == "test" {
			c.Next()
			return
		}

		if principal, ok := CurrentPrincipal(c); ok && principal.Role == domain.RoleAdmin {
			c.Next()
			return
		}

		identity := IdentityKey(c)

		err := limiter.Allow(c.Request.Context(), action, identity, limit, window)
		if err != nil {
			if errors.Is(err, domain.ErrRateLimited) {
				c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
				c.Header("X-RateLimit-Remaining", "0")
				respondError(c, err)
				c.Abort()
				return
			}
			respondError(c, err)
			c.Abort()
			return
		}

		remaining, _ := limiter.Remaining(c.Request.Context(), action, identity, limit)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		c.Next()
	}
}

// IdentityKey resolves the throttling identity, preferring the
// authenticated user id over the client IP
func IdentityKey(c *gin.Context) string {
	if principal, ok := CurrentPrincipal(c); ok {
		return principal.UserID
	}
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		// the first entry is the originating client
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	return c.ClientIP()
}
