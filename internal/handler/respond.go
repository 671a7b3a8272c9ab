package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/precisesoft/ConnectKit-sub000/internal/domain"
	"github.com/precisesoft/ConnectKit-sub000/internal/dto"
	"go.uber.org/zap"
)

// respondError serializes a service-layer error uniformly. Unexpected
// errors are logged with full context and surfaced as a generic 500.
func respondError(c *gin.Context, err error) {
	appErr := domain.AsError(err)

	if appErr.Code == domain.CodeInternal {
		zap.L().Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}

	resp := dto.ErrorResponse{
		Error:   string(appErr.Code),
		Message: appErr.Message,
	}

	if appErr.LockedUntil != nil {
		resp.LockedUntil = appErr.LockedUntil.UTC().Format(time.RFC3339)
	}

	if appErr.RetryAfter > 0 {
		seconds := int(appErr.RetryAfter.Round(time.Second).Seconds())
		if seconds < 1 {
			seconds = 1
		}
		resp.RetryAfter = seconds
		c.Header("Retry-After", strconv.Itoa(seconds))
	}

	c.JSON(appErr.Status, resp)
}

// respondBindError maps a gin binding failure to a validation error
func respondBindError(c *gin.Context, err error) {
	respondError(c, domain.NewValidation("invalid request: %v", err))
}
