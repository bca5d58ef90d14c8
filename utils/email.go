package utils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers transactional email
type Mailer interface {
	SendEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

// EmailService sends mail through SendGrid
type EmailService struct {
	client *sendgrid.Client
	sender string
}

// NewEmailService returns a SendGrid mailer, or a logging no-op mailer when no API key is configured.
func NewEmailService(apiKey, sender string, logger *slog.Logger) Mailer {
	if apiKey == "" || sender == "" {
		return &logMailer{logger: logger}
	}
	return &EmailService{client: sendgrid.NewSendClient(apiKey), sender: sender}
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	from := mail.NewEmail("Hostel Meals", es.sender)
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(from, subject, to, htmlContent, htmlContent)

	resp, err := es.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("failed to send email: sendgrid status %d", resp.StatusCode)
	}
	return nil
}

type logMailer struct {
	logger *slog.Logger
}

func (m *logMailer) SendEmail(ctx context.Context, toEmail, subject, _ string) error {
	m.logger.InfoContext(ctx, "email delivery disabled", slog.String("to", toEmail), slog.String("subject", subject))
	return nil
}

// SendBadgeReceipt tells a user their package purchase went through.
func SendBadgeReceipt(ctx context.Context, m Mailer, toEmail, badge string, amount float64, intentID string) error {
	subject := fmt.Sprintf("Your %s membership is active", badge)
	htmlContent := fmt.Sprintf(
		"<strong>Thank you for your purchase!</strong><br><br>Your badge is now <strong>%s</strong>.<br>Amount: <strong>%.2f</strong><br>Transaction: %s",
		badge, amount, intentID,
	)
	return m.SendEmail(ctx, toEmail, subject, htmlContent)
}
