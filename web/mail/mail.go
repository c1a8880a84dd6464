// Package mail delivers outgoing messages through SMTP or the log.
package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
	"github.com/yamdb/api-yamdb/config"
	"github.com/yamdb/api-yamdb/logger"
)

// Mailer delivers one plain-text message.
type Mailer interface {
	Deliver(ctx context.Context, subject, body, to string) error
}

// New returns the backend selected by cfg.Backend ("console" or "smtp").
func New(cfg config.MailConfig) (Mailer, error) {
	switch cfg.Backend {
	case "", "console":
		return &ConsoleMailer{From: cfg.From}, nil
	case "smtp":
		return NewSMTPMailer(cfg)
	default:
		return nil, fmt.Errorf("unknown mail backend %q", cfg.Backend)
	}
}

// ConsoleMailer writes messages to the log instead of sending them.
type ConsoleMailer struct {
	From string
}

func (m *ConsoleMailer) Deliver(_ context.Context, subject, body, to string) error {
	logger.Infof("mail from=%s to=%s subject=%q\n%s", m.From, to, subject, body)
	return nil
}

// SMTPMailer sends messages through an SMTP relay.
type SMTPMailer struct {
	client *gomail.Client
	from   string
}

func NewSMTPMailer(cfg config.MailConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is not configured")
	}
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.From}, nil
}

func (m *SMTPMailer) Deliver(ctx context.Context, subject, body, to string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("sender %q: %w", m.from, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
