// Package mail sends notification emails.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strconv"
	"sync"

	"github.com/jordan-wright/email"
)

// Message is a plain-text email.
type Message struct {
	To      []string
	Subject string
	Text    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// SMTPConfig describes the outgoing mail server.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends through an SMTP server with PLAIN auth when credentials
// are configured.
type SMTPMailer struct {
	cfg    SMTPConfig
	logger *slog.Logger
	send   func(e *email.Email, addr string, a smtp.Auth) error
}

func NewSMTPMailer(cfg SMTPConfig, logger *slog.Logger) *SMTPMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPMailer{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, a smtp.Auth) error {
			return e.Send(addr, a)
		},
	}
}

func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	if len(m.To) == 0 {
		return fmt.Errorf("send mail %q: no recipients", m.Subject)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = m.To
	e.Subject = m.Subject
	e.Text = []byte(m.Text)

	addr := s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.ErrorContext(ctx, "Failed to send email", "to", m.To, "subject", m.Subject, "error", err)
		return fmt.Errorf("send mail %q: %w", m.Subject, err)
	}

	s.logger.InfoContext(ctx, "Email sent", "to", m.To, "subject", m.Subject)
	return nil
}

// LogMailer only records messages in the log. It is the default when no
// SMTP server is configured, and keeps the last messages for inspection.
type LogMailer struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent []Message
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (l *LogMailer) Send(ctx context.Context, m Message) error {
	l.mu.Lock()
	l.sent = append(l.sent, m)
	if len(l.sent) > 100 {
		l.sent = l.sent[len(l.sent)-100:]
	}
	l.mu.Unlock()

	l.logger.InfoContext(ctx, "Email not sent, SMTP disabled", "to", m.To, "subject", m.Subject, "body", m.Text)
	return nil
}

// Sent returns a copy of the recorded messages, oldest first.
func (l *LogMailer) Sent() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Message(nil), l.sent...)
}

// New picks the SMTP mailer when a host is configured, the log mailer
// otherwise.
func New(cfg SMTPConfig, logger *slog.Logger) Mailer {
	if cfg.Host == "" {
		return NewLogMailer(logger)
	}
	return NewSMTPMailer(cfg, logger)
}
