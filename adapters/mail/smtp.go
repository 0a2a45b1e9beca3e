package mail

import (
	"context"
	"fmt"
	"net/url"

	gomail "github.com/wneessen/go-mail"

	"github.com/tmarcial/passage/core"
)

// SMTPConfig carries the delivery credentials and the public base URL the
// verification link points back at.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	BaseURL  string
	BasePath string // auth mount point, e.g. /api/auth
}

// SMTPMailer delivers verification links over SMTP.
type SMTPMailer struct {
	client *gomail.Client
	config SMTPConfig
}

var _ core.Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(config SMTPConfig) (*SMTPMailer, error) {
	client, err := gomail.NewClient(config.Host,
		gomail.WithPort(config.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(config.Username),
		gomail.WithPassword(config.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &SMTPMailer{client: client, config: config}, nil
}

func (m *SMTPMailer) SendVerification(ctx context.Context, email, token string, repeat bool) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.config.From); err != nil {
		return err
	}
	if err := msg.To(email); err != nil {
		return err
	}

	msg.Subject(subject(repeat))
	msg.SetBodyString(gomail.TypeTextPlain, body(VerificationLink(m.config.BaseURL, m.config.BasePath, token), repeat))

	return m.client.DialAndSendWithContext(ctx, msg)
}

// VerificationLink builds the clickable consume-token URL.
func VerificationLink(baseURL, basePath, token string) string {
	return baseURL + basePath + "/verify/" + url.PathEscape(token)
}

func subject(repeat bool) string {
	if repeat {
		return "Your verification link (resent)"
	}
	return "Please verify your email"
}

func body(link string, repeat bool) string {
	if repeat {
		return "Here is your verification link again:\n\n" + link + "\n"
	}
	return "Welcome! Confirm your email address by opening this link:\n\n" + link + "\n"
}
