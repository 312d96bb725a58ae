package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/ixfabric/ixfrecon/internal/logger"
)

// Mailer sends (or records, never raises) one notification email. It
// returns true when the send was suppressed as a debug no-op, matching
// the EmailLogEntry.Debug column. No example repo in the pack imports a
// mail-sending library, so this is the one intentional stdlib-only
// component (net/smtp) — logged in DESIGN.md.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) (debug bool)
}

// SMTPConfig configures the real SMTP transport.
type SMTPConfig struct {
	Host string
	Port int
	From string
	Auth smtp.Auth
}

// SMTPMailer sends mail through net/smtp, best-effort: failures are
// logged, never propagated, matching spec.md §5's "email send ... may be
// synchronous or a no-op debug path" without the run depending on it.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) bool {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		m.cfg.From, to, subject, body)
	if err := smtp.SendMail(addr, m.cfg.Auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		logger.Warn("notify: smtp send failed", "to", to, "error", err)
	}
	return false
}

// DebugMailer short-circuits every send to a local sink, the Go
// equivalent of original_source/ixf.py's debug_mail: used when
// MAIL_DEBUG is set so test/staging runs never deliver real mail.
type DebugMailer struct {
	Sent []DebugMessage
}

type DebugMessage struct {
	To, Subject, Body string
}

func NewDebugMailer() *DebugMailer {
	return &DebugMailer{}
}

func (m *DebugMailer) Send(_ context.Context, to, subject, body string) bool {
	m.Sent = append(m.Sent, DebugMessage{To: to, Subject: subject, Body: body})
	return true
}
