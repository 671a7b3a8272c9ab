package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/precisesoft/ConnectKit-sub000/internal/config"
)

// SMTPSender delivers mail through a plain SMTP relay
type SMTPSender struct {
	cfg config.SMTPConfig
}

// NewSMTPSender creates a sender for the configured relay
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) SendVerification(ctx context.Context, to, token string) error {
	subject := "Verify your ConnectKit email address"
	body := strings.Join([]string{
		"Welcome to ConnectKit.",
		"",
		"Verify your email address using this link:",
		fmt.Sprintf("%s/verify-email?token=%s", s.cfg.BaseURL, token),
		"",
		"The link is valid for 24 hours.",
	}, "\n")

	return s.send(to, subject, body)
}

func (s *SMTPSender) SendPasswordReset(ctx context.Context, to, token string) error {
	subject := "Reset your ConnectKit password"
	body := strings.Join([]string{
		"You requested a password reset.",
		"",
		"Reset your password using this link:",
		fmt.Sprintf("%s/reset-password?token=%s", s.cfg.BaseURL, token),
		"",
		"The link is valid for 1 hour. If you did not request this, you can ignore this email.",
	}, "\n")

	return s.send(to, subject, body)
}

func (s *SMTPSender) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	msg := buildMessage(s.cfg.From, to, subject, body)
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) string {
	lines := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}
	return strings.Join(lines, "\r\n")
}
