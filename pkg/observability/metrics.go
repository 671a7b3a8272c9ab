package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PrometheusHandler returns a Gin handler for Prometheus metrics
func PrometheusHandler(handler http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if handler != nil {
			handler.ServeHTTP(c.Writer, c.Request)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "metrics handler not initialized",
			})
		}
	}
}

// Metrics holds the service-level counters. A nil *Metrics is a no-op so
// unit tests can skip telemetry setup.
type Metrics struct {
	loginAttempts       metric.Int64Counter
	rateLimitRejections metric.Int64Counter
}

// NewMetrics registers the service counters on the global meter provider
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("connectkit")

	loginAttempts, err := meter.Int64Counter("auth_login_attempts_total",
		metric.WithDescription("Login attempts by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create login counter: %w", err)
	}

	rateLimitRejections, err := meter.Int64Counter("rate_limit_rejections_total",
		metric.WithDescription("Requests rejected by the rate limiter"))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit counter: %w", err)
	}

	return &Metrics{
		loginAttempts:       loginAttempts,
		rateLimitRejections: rateLimitRejections,
	}, nil
}

// RecordLogin counts a login attempt with its outcome
// (success, invalid_credentials, locked, unverified)
func (m *Metrics) RecordLogin(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.loginAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordRateLimitRejection counts a rejected request for an action
func (m *Metrics) RecordRateLimitRejection(ctx context.Context, action string) {
	if m == nil {
		return
	}
	m.rateLimitRejections.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
}
