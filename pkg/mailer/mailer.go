package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/fashionmart/fashionmart-backend/pkg/config"
	"github.com/fashionmart/fashionmart-backend/pkg/logger"
)

// Sender delivers transactional email. Implementations must be safe for
// concurrent use; callers treat delivery as best-effort.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Mailer sends HTML email over SMTP via go-mail.
type Mailer struct {
	client *mail.Client
	from   string
	logg   *logger.Logger
}

var errHostRequired = errors.New("smtp host is required")

// New builds an SMTP mailer from the provided configuration.
func New(cfg config.SMTPConfig, logg *logger.Logger) (*Mailer, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errHostRequired
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating smtp client: %w", err)
	}

	return &Mailer{client: client, from: cfg.DefaultFrom, logg: logg}, nil
}

// Send delivers one HTML message.
func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("setting from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	if m.logg != nil {
		m.logg.Info(m.logg.WithField(ctx, "recipient", to), "email sent")
	}
	return nil
}
