// Package mail delivers transactional email.
package mail

import (
	"context"
	"fmt"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Message is a plain transactional email
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends transactional email
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds sender settings
type Config struct {
	APIKey    string
	FromName  string
	FromEmail string
}

// SendGridMailer sends mail through the SendGrid v3 API
type SendGridMailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
	logger *zap.Logger
}

// NewSendGridMailer creates a SendGrid mailer
func NewSendGridMailer(cfg Config, logger *zap.Logger) *SendGridMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendGridMailer{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
		logger: logger,
	}
}

// Send delivers one message. Non-2xx responses are errors.
func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	to := sgmail.NewEmail(msg.ToName, msg.ToEmail)
	text := msg.Text
	if text == "" {
		text = msg.Subject
	}
	v3 := sgmail.NewSingleEmail(m.from, msg.Subject, to, text, msg.HTML)

	resp, err := m.client.SendWithContext(ctx, v3)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}

	m.logger.Debug("Email sent",
		zap.String("subject", msg.Subject),
		zap.Int("status", resp.StatusCode))
	return nil
}

// LogMailer writes messages to the log instead of sending them
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a mailer for development setups without an API key
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send logs the message
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("Email not sent (no mail provider configured)",
		zap.String("to", msg.ToEmail),
		zap.String("subject", msg.Subject))
	return nil
}

// RecordingMailer keeps sent messages in memory
type RecordingMailer struct {
	mu   sync.Mutex
	sent []Message
}

// Send records the message
func (m *RecordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages
func (m *RecordingMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}

// New picks SendGrid when an API key is configured
func New(cfg Config, logger *zap.Logger) Mailer {
	if cfg.APIKey == "" {
		return NewLogMailer(logger)
	}
	return NewSendGridMailer(cfg, logger)
}

var (
	_ Mailer = (*SendGridMailer)(nil)
	_ Mailer = (*LogMailer)(nil)
	_ Mailer = (*RecordingMailer)(nil)
)
