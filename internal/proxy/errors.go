package proxy

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when the chat endpoint does not answer within
	// the configured timeout or the caller cancels the request.
	ErrTimeout = errors.New("chat endpoint timed out")

	// ErrMalformed is returned when the response body is not JSON or lacks
	// the configured reply field.
	ErrMalformed = errors.New("malformed chat response")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// User-visible apologies shown in place of a remote reply.
const (
	ApologyTimeout   = "Server seems to be down at the moment. Please try again later."
	ApologyMalformed = "Received an invalid response from the server."
	ApologyStatus    = "The server encountered an error. Please try again later."
	ApologyDefault   = "Sorry, I couldn't connect to the chatbot server. Please try again later."
)

// Apology maps a Send error to the text shown to the visitor.
func Apology(err error) string {
	var statusErr *StatusError
	switch {
	case errors.Is(err, ErrTimeout):
		return ApologyTimeout
	case errors.Is(err, ErrMalformed):
		return ApologyMalformed
	case errors.As(err, &statusErr):
		return ApologyStatus
	default:
		return ApologyDefault
	}
}
