// Package session keeps the per-widget conversation transcript: an
// append-only list of turns that lives until the visitor resets the chat or
// the session goes idle.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/sayeesx/folio/internal/composer"
)

var (
	// ErrNotFound is returned for unknown or expired sessions.
	ErrNotFound = errors.New("session not found")

	// ErrBusy is returned when a session already has a message in flight.
	ErrBusy = errors.New("session has a message in flight")
)

// Sender identifies who wrote a turn.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// CategoryWelcome marks the greeting turn added when a session opens.
const CategoryWelcome = "welcome"

type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Turn is one immutable chat message.
type Turn struct {
	ID        string           `json:"id"`
	SessionID string           `json:"session_id"`
	Sender    Sender           `json:"sender"`
	Text      string           `json:"text"`
	Category  string           `json:"category,omitempty"`
	Action    *composer.Action `json:"action,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Transcript is a session with its turns in append order.
type Transcript struct {
	Session Session `json:"session"`
	Turns   []Turn  `json:"messages"`
}

// Store persists sessions and turns. Implementations must return
// ErrNotFound from Get, Append, Turns and Delete for unknown sessions.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Append(ctx context.Context, t Turn) error
	Turns(ctx context.Context, id string) ([]Turn, error)
	Delete(ctx context.Context, id string) error
}

// Purger is implemented by stores that need explicit idle-session cleanup.
// Stores with native expiry, such as Redis, do not implement it.
type Purger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int, error)
}
