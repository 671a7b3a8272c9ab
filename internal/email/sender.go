package email

import (
	"context"

	"go.uber.org/zap"
)

// Sender delivers the transactional mails of the auth flows. Delivery
// failures never fail the flow that triggered them.
type Sender interface {
	SendVerification(ctx context.Context, to, token string) error
	SendPasswordReset(ctx context.Context, to, token string) error
}

// LogSender is the fallback used when no SMTP host is configured. It only
// records that a mail would have been sent; tokens are never logged.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a logging no-op sender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendVerification(ctx context.Context, to, token string) error {
	s.logger.Info("SMTP not configured, skipping verification mail", zap.String("to", to))
	return nil
}

func (s *LogSender) SendPasswordReset(ctx context.Context, to, token string) error {
	s.logger.Info("SMTP not configured, skipping password reset mail", zap.String("to", to))
	return nil
}
