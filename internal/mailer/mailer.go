// Package mailer delivers outgoing mail.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const defaultHost = "https://api.sendgrid.com"

// Message is a single plain-text and HTML email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.InfoContext(ctx, "email not sent, no mail provider configured",
		"to", msg.To, "subject", msg.Subject, "body", msg.Text)
	return nil
}

// SendGridMailer sends mail through the SendGrid v3 API.
type SendGridMailer struct {
	apiKey string
	from   *mail.Email
	host   string
}

func NewSendGridMailer(apiKey, fromAddress string) *SendGridMailer {
	return &SendGridMailer{
		apiKey: apiKey,
		from:   mail.NewEmail("Yatube", fromAddress),
		host:   defaultHost,
	}
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	message := mail.NewSingleEmail(m.from, msg.Subject, mail.NewEmail("", msg.To), msg.Text, msg.HTML)

	request := sendgrid.GetRequest(m.apiKey, "/v3/mail/send", m.host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("mailer: sending to %s: %w", msg.To, err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("mailer: sendgrid returned %d: %s", response.StatusCode, response.Body)
	}
	slog.InfoContext(ctx, "email sent", "to", msg.To, "status", response.StatusCode)
	return nil
}
