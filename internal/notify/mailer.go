package notify

import (
	"context"
	"fmt"

	"haven-backend/internal/config"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// Mailer delivers magic-link login emails.
type Mailer interface {
	SendLoginLink(ctx context.Context, to, link string) error
}

// NewMailer returns a Resend-backed mailer, or a LogMailer when no API key is
// configured.
func NewMailer(cfg config.EmailConfig, logger *zap.Logger) Mailer {
	if cfg.ResendAPIKey == "" {
		logger.Warn("RESEND_API_KEY not set, login links will only be logged")
		return NewLogMailer(logger)
	}
	return &ResendMailer{
		client: resend.NewClient(cfg.ResendAPIKey),
		from:   cfg.From,
		logger: logger,
	}
}

type ResendMailer struct {
	client *resend.Client
	from   string
	logger *zap.Logger
}

func (m *ResendMailer) SendLoginLink(ctx context.Context, to, link string) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: "Your Haven Login Link",
		Html:    loginEmailHTML(link),
	}

	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	m.logger.Info("login email sent", zap.String("email_id", sent.Id), zap.String("to", to))
	return nil
}

// LogMailer writes the login link to the log instead of sending it. Used in
// development.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendLoginLink(_ context.Context, to, link string) error {
	m.logger.Info("login link (dev mode)", zap.String("to", to), zap.String("link", link))
	return nil
}

func loginEmailHTML(link string) string {
	return fmt.Sprintf(`
			<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto; padding: 24px;">
				<h2 style="color: #333;">Welcome to Haven</h2>
				<p>Click the button below to log in to your account:</p>
				<a href="%s" style="display: inline-block; background: #0d9488; color: white; padding: 12px 24px; border-radius: 8px; text-decoration: none; font-weight: 600;">
					Open Haven
				</a>
				<p style="color: #888; font-size: 14px; margin-top: 16px;">
					This link expires soon and can only be used once.
				</p>
				<p style="color: #aaa; font-size: 12px;">
					If you didn't request this, you can safely ignore this email.
				</p>
			</div>
		`, link)
}
