// Package mail delivers transactional email over SMTP.
package mail

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Mailer sends a single plain-text message. Delivery failures surface as
// errors; retries are the caller's concern.
type Mailer interface {
	Deliver(to, subject, body string) error
}

// SMTPMailer talks to a plain SMTP endpoint (Mailpit in development).
type SMTPMailer struct {
	host string
	port int
	from string
	auth smtp.Auth
}

// NewSMTPMailer constructs an SMTPMailer. username may be empty for
// unauthenticated relays.
func NewSMTPMailer(host string, port int, from, username, password string) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{host: host, port: port, from: from, auth: auth}
}

// Deliver sends one message and returns once the server accepted it.
func (m *SMTPMailer) Deliver(to, subject, body string) error {
	msg := strings.NewReplacer("\r\n", "\n").Replace(body)
	payload := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.from, to, subject, strings.ReplaceAll(msg, "\n", "\r\n"))
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := smtp.SendMail(addr, m.auth, m.from, []string{to}, []byte(payload)); err != nil {
		return fmt.Errorf("platform/mail: send to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes messages to the log instead of delivering them. Used when
// no SMTP endpoint is configured.
type LogMailer struct {
	Logger *slog.Logger
}

// Deliver logs the message and reports success.
func (m *LogMailer) Deliver(to, subject, body string) error {
	if m.Logger != nil {
		m.Logger.Info("mail delivery skipped",
			slog.String("to", to),
			slog.String("subject", subject),
			slog.String("body", body))
	}
	return nil
}
