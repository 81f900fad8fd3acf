package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

type Session struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Turn is one chat message. Seq is assigned by AppendTurn and orders turns
// within a session.
type Turn struct {
	ID         string
	SessionID  string
	Seq        int
	Sender     string // "user" or "bot"
	Text       string
	Category   string
	ActionJSON string // JSON object stored as text, empty when absent
	CreatedAt  time.Time
}
