// Package notifier delivers outbound user notifications. It is injected into
// services as a capability so tests can substitute a no-op or recording
// implementation instead of touching the network.
package notifier

import (
	"fmt"
	"time"

	"foliomart/internal/config"

	"github.com/wneessen/go-mail"
)

// Notifier sends user-facing notification emails. Implementations must be
// safe for concurrent use; callers treat every send as best-effort.
type Notifier interface {
	SendPasswordReset(toEmail, resetURL string) error
	SendLoginAlert(toEmail string, at time.Time) error
}

// SMTPNotifier sends emails via SMTP using go-mail.
type SMTPNotifier struct {
	cfg *config.Config
}

// NewSMTPNotifier creates an SMTP-backed notifier from the application config.
func NewSMTPNotifier(cfg *config.Config) (*SMTPNotifier, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.SMTPFrom == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}
	return &SMTPNotifier{cfg: cfg}, nil
}

// SendPasswordReset emails a password-reset link containing the raw token.
func (n *SMTPNotifier) SendPasswordReset(toEmail, resetURL string) error {
	body := fmt.Sprintf(
		"A password reset was requested for your account.\n\n"+
			"Reset your password within 30 minutes using the link below:\n\n%s\n\n"+
			"If you did not request this, you can ignore this email.\n",
		resetURL,
	)
	return n.send(toEmail, "Reset your password", body)
}

// SendLoginAlert emails a notification about a new login.
func (n *SMTPNotifier) SendLoginAlert(toEmail string, at time.Time) error {
	body := fmt.Sprintf(
		"Your account was signed in at %s.\n\n"+
			"If this was not you, reset your password immediately.\n",
		at.Format(time.RFC1123),
	)
	return n.send(toEmail, "New sign-in to your account", body)
}

func (n *SMTPNotifier) send(to, subject, body string) error {
	msg := mail.NewMsg()

	if n.cfg.SMTPFromName != "" {
		if err := msg.FromFormat(n.cfg.SMTPFromName, n.cfg.SMTPFrom); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(n.cfg.SMTPFrom); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(n.cfg.SMTPPort),
	}

	if n.cfg.SMTPTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Implicit TLS for port 465, STARTTLS for everything else
		if n.cfg.SMTPPort == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if n.cfg.SMTPUsername != "" && n.cfg.SMTPPassword != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.SMTPUsername),
			mail.WithPassword(n.cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(n.cfg.SMTPHost, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

// Noop is a Notifier that discards all notifications. Used when SMTP is not
// configured and as a default in tests.
type Noop struct{}

func (Noop) SendPasswordReset(string, string) error { return nil }
func (Noop) SendLoginAlert(string, time.Time) error { return nil }
