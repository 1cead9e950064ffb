package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/ca-srg/chanstats/internal/config"
)

// Mailer sends the weekly report over authenticated SMTP with STARTTLS.
type Mailer struct {
	cfg *config.Config
}

// New constructs a Mailer from the SMTP settings in cfg. The settings must
// already have passed cfg.ValidateMail.
func New(cfg *config.Config) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send delivers an HTML mail with the given attachments to the configured
// To and Cc recipients.
func (m *Mailer) Send(ctx context.Context, subject, htmlBody string, attachments []string) error {
	msg, err := buildMessage(m.cfg, subject, htmlBody, attachments)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.cfg.SMTPServer,
		mail.WithPort(m.cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.MailUsername),
		mail.WithPassword(m.cfg.MailPassword),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send report mail: %w", err)
	}
	return nil
}

// buildMessage assembles the MIME message independently of transport.
func buildMessage(cfg *config.Config, subject, htmlBody string, attachments []string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(cfg.MailUsername); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", cfg.MailUsername, err)
	}
	if err := msg.To(cfg.MailTo...); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	if len(cfg.MailCc) > 0 {
		if err := msg.Cc(cfg.MailCc...); err != nil {
			return nil, fmt.Errorf("invalid cc address: %w", err)
		}
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	for _, path := range attachments {
		msg.AttachFile(path)
	}
	return msg, nil
}
