// Package mailer validates contact-form submissions and delivers them to the
// portfolio owner through SMTP or EmailJS. Delivery is attempted once.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	maxNameLen    = 100
	maxMessageLen = 5000
)

// Transient notices shown to the visitor after a submission.
const (
	NoticeSent   = "Message sent successfully! 🎉"
	NoticeFailed = "Failed to send message. Please try again."
)

// ErrNotConfigured is returned by senders that lack credentials.
var ErrNotConfigured = errors.New("email delivery is not configured")

// Message is a contact-form submission.
type Message struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// ValidationError describes the first invalid field of a Message.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Normalize trims surrounding whitespace from every field.
func (m Message) Normalize() Message {
	return Message{
		Name:    strings.TrimSpace(m.Name),
		Email:   strings.TrimSpace(m.Email),
		Message: strings.TrimSpace(m.Message),
	}
}

// Validate checks that every field is present and the email parses as a
// bare address.
func (m Message) Validate() error {
	m = m.Normalize()
	switch {
	case m.Name == "":
		return &ValidationError{Field: "name", Reason: "is required"}
	case utf8.RuneCountInString(m.Name) > maxNameLen:
		return &ValidationError{Field: "name", Reason: fmt.Sprintf("must be at most %d characters", maxNameLen)}
	case strings.ContainsAny(m.Name, "\r\n"):
		return &ValidationError{Field: "name", Reason: "must be a single line"}
	case m.Email == "":
		return &ValidationError{Field: "email", Reason: "is required"}
	case m.Message == "":
		return &ValidationError{Field: "message", Reason: "is required"}
	case utf8.RuneCountInString(m.Message) > maxMessageLen:
		return &ValidationError{Field: "message", Reason: fmt.Sprintf("must be at most %d characters", maxMessageLen)}
	}

	addr, err := mail.ParseAddress(m.Email)
	if err != nil || addr.Address != m.Email {
		return &ValidationError{Field: "email", Reason: "is not a valid address"}
	}
	return nil
}

// Sender delivers a validated message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Disabled is a Sender used when no provider is configured.
type Disabled struct{}

func (Disabled) Send(context.Context, Message) error { return ErrNotConfigured }

// Submit validates msg and hands it to s exactly once.
func Submit(ctx context.Context, s Sender, msg Message) error {
	msg = msg.Normalize()
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := s.Send(ctx, msg); err != nil {
		return fmt.Errorf("sending contact message: %w", err)
	}
	return nil
}
