// Package mailer renders named email templates and delivers the result over
// SMTP. Failures are classified: template and address problems are permanent,
// transport problems are transient and eligible for retry.
package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// Config holds connection parameters for the SMTP transport.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// AppName is used as the sender display name.
	AppName string
	// Encryption selects the TLS policy: "none", "starttls" or "ssl_tls".
	Encryption string
}

// SMTP delivers rendered emails using the go-mail library.
type SMTP struct {
	config   Config
	renderer *Renderer
}

// NewSMTP creates an SMTP sender with the given configuration and renderer.
func NewSMTP(config Config, renderer *Renderer) *SMTP {
	return &SMTP{config: config, renderer: renderer}
}

// Name returns the provider identifier.
func (s *SMTP) Name() string { return "smtp" }

// SendMail renders the named template against tmplCtx and sends the result to
// a single recipient.
func (s *SMTP) SendMail(ctx context.Context, to, subject, templateName string, tmplCtx map[string]any) error {
	html, err := s.renderer.Render(templateName, tmplCtx)
	if err != nil {
		return err
	}

	m := mail.NewMsg()
	if err := m.FromFormat(s.config.AppName, s.config.From); err != nil {
		return Permanent(fmt.Errorf("invalid from address %q: %w", s.config.From, err))
	}
	if err := m.To(to); err != nil {
		return Permanent(fmt.Errorf("invalid recipient %q: %w", to, err))
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextHTML, html)

	opts := []mail.Option{
		mail.WithPort(s.config.Port),
		mail.WithTLSPolicy(tlsPolicyFromEncryption(s.config.Encryption)),
	}
	if s.config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.config.Username),
			mail.WithPassword(s.config.Password),
		)
	}

	c, err := mail.NewClient(s.config.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

// tlsPolicyFromEncryption converts the encryption string to a go-mail TLSPolicy.
func tlsPolicyFromEncryption(enc string) mail.TLSPolicy {
	switch enc {
	case "ssl_tls":
		return mail.TLSMandatory
	case "starttls":
		return mail.TLSOpportunistic
	default:
		return mail.NoTLS
	}
}
