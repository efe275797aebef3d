// Package mailer is the notification sink: it dispatches the pre-formatted
// digest built by the reminder, nothing more.
package mailer

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

type Mailer struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	Recipients []string
}

// Configured reports whether enough SMTP settings are present to send.
func (m *Mailer) Configured() bool {
	return m.Host != "" && m.From != "" && len(m.Recipients) > 0
}

// Send delivers the digest to all recipients.
func (m *Mailer) Send(subject, body string) error {
	if !m.Configured() {
		return errors.New("smtp host, from address and recipients must be configured")
	}
	port := m.Port
	if port == 0 {
		port = 587
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.From)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(m.Recipients, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	addr := fmt.Sprintf("%s:%d", m.Host, port)
	return smtp.SendMail(addr, auth, m.From, m.Recipients, []byte(msg.String()))
}
