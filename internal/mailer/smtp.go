package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	To       string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers messages through an authenticated SMTP relay. The
// submitter's address is set as Reply-To so the owner can answer directly.
type SMTPSender struct {
	cfg      SMTPConfig
	sendMail sendMailFunc
}

// NewSMTPSender creates an SMTPSender. Port defaults to 587.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.To == "" {
		cfg.To = cfg.Username
	}
	return &SMTPSender{cfg: cfg, sendMail: smtp.SendMail}
}

// Send delivers msg. The context is only checked before dialing because
// net/smtp does not accept one.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if s.cfg.Host == "" || s.cfg.Username == "" || s.cfg.Password == "" {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := s.sendMail(addr, auth, s.cfg.Username, []string{s.cfg.To}, s.compose(msg)); err != nil {
		return fmt.Errorf("smtp send via %s: %w", addr, err)
	}
	slog.Info("contact email sent", "provider", "smtp", "from", msg.Email)
	return nil
}

func (s *SMTPSender) compose(msg Message) []byte {
	var b strings.Builder
	b.WriteString("To: " + s.cfg.To + "\r\n")
	b.WriteString("From: " + s.cfg.Username + "\r\n")
	b.WriteString("Reply-To: " + headerSafe(msg.Email) + "\r\n")
	b.WriteString("Subject: Portfolio Contact: " + headerSafe(msg.Name) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "New contact form submission from your portfolio:\r\n\r\nName: %s\r\nEmail: %s\r\nMessage:\r\n%s\r\n\r\n---\r\nSent from your portfolio contact form\r\n",
		msg.Name, msg.Email, crlf(msg.Message))
	return []byte(b.String())
}

func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

func crlf(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\n", "\r\n")
}
