package config

import (
	"crypto/tls"
	"errors"

	mail "github.com/go-mail/mail/v2"
)

// ErrMailerNotConfigured is returned when SMTP_HOST or SMTP_FROM is missing.
var ErrMailerNotConfigured = errors.New("smtp not configured (SMTP_HOST/SMTP_FROM)")

// Mailer sends HTML e-mail through the configured SMTP relay.
type Mailer struct {
	host          string
	port          int
	user          string
	pass          string
	from          string
	skipTLSVerify bool
}

// NewMailer builds a Mailer from the SMTP part of the settings.
func NewMailer(s Settings) *Mailer {
	port := s.SMTPPort
	if port == 0 {
		port = 587
	}
	return &Mailer{
		host:          s.SMTPHost,
		port:          port,
		user:          s.SMTPUser,
		pass:          s.SMTPPass,
		from:          s.SMTPFrom,
		skipTLSVerify: s.SMTPSkipTLSVerify,
	}
}

// Configured reports whether the mailer can attempt delivery.
func (m *Mailer) Configured() bool {
	return m != nil && m.host != "" && m.from != ""
}

func (m *Mailer) SendMail(to []string, subject, html string) error {
	if len(to) == 0 {
		return nil
	}
	if !m.Configured() {
		return ErrMailerNotConfigured
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	d := mail.NewDialer(m.host, m.port, m.user, m.pass)

	// STARTTLS is mandatory on 587 (Gmail/Office365 style relays).
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         m.host,
		InsecureSkipVerify: m.skipTLSVerify, // dev only
	}

	return d.DialAndSend(msg)
}
