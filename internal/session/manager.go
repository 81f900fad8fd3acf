package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sayeesx/folio/internal/composer"
	"github.com/sayeesx/folio/internal/pipeline"
	"github.com/sayeesx/folio/internal/profile"
)

// ErrEmptyMessage is returned by Exchange for blank input.
var ErrEmptyMessage = errors.New("message is empty")

// Responder produces the bot reply for a visitor message.
type Responder interface {
	Respond(ctx context.Context, text string) pipeline.Reply
}

// Manager owns session lifecycles on top of a Store.
type Manager struct {
	store    Store
	profiles pipeline.ProfileSource
	now      func() time.Time
	logger   *slog.Logger

	mu   sync.Mutex
	busy map[string]struct{}
}

func NewManager(store Store, profiles pipeline.ProfileSource) *Manager {
	return &Manager{
		store:    store,
		profiles: profiles,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   slog.Default(),
		busy:     make(map[string]struct{}),
	}
}

func (m *Manager) profile() profile.Profile {
	if m.profiles == nil {
		return profile.Profile{}
	}
	p, err := m.profiles.GetProfile()
	if err != nil {
		m.logger.Warn("loading profile for session failed", "error", err)
	}
	return p
}

// Open starts a new session seeded with the welcome turn.
func (m *Manager) Open(ctx context.Context) (Transcript, error) {
	now := m.now()
	s := Session{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
	if err := m.store.Create(ctx, s); err != nil {
		return Transcript{}, fmt.Errorf("creating session: %w", err)
	}

	welcome := Turn{
		ID:        uuid.New().String(),
		SessionID: s.ID,
		Sender:    SenderBot,
		Text:      composer.Welcome(m.profile()),
		Category:  CategoryWelcome,
		CreatedAt: now,
	}
	if err := m.store.Append(ctx, welcome); err != nil {
		return Transcript{}, fmt.Errorf("adding welcome turn: %w", err)
	}

	m.logger.Debug("session opened", "session_id", s.ID)
	return Transcript{Session: s, Turns: []Turn{welcome}}, nil
}

// Get returns the session and its turns.
func (m *Manager) Get(ctx context.Context, id string) (Transcript, error) {
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return Transcript{}, err
	}
	turns, err := m.store.Turns(ctx, id)
	if err != nil {
		return Transcript{}, err
	}
	return Transcript{Session: s, Turns: turns}, nil
}

// Exchange records the visitor message, asks r for a reply and records that
// too. Only one message per session may be in flight; a second concurrent
// call gets ErrBusy.
func (m *Manager) Exchange(ctx context.Context, id, text string, r Responder) (pipeline.Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return pipeline.Reply{}, ErrEmptyMessage
	}

	if !m.acquire(id) {
		return pipeline.Reply{}, ErrBusy
	}
	defer m.release(id)

	if err := m.store.Append(ctx, Turn{
		ID:        uuid.New().String(),
		SessionID: id,
		Sender:    SenderUser,
		Text:      text,
		CreatedAt: m.now(),
	}); err != nil {
		return pipeline.Reply{}, err
	}

	reply := r.Respond(ctx, text)

	// The reply is recorded even if the caller went away mid-answer.
	bot := Turn{
		ID:        uuid.New().String(),
		SessionID: id,
		Sender:    SenderBot,
		Text:      reply.Text,
		Category:  reply.Category,
		Action:    reply.Action,
		CreatedAt: m.now(),
	}
	if err := m.store.Append(context.WithoutCancel(ctx), bot); err != nil {
		return reply, fmt.Errorf("recording reply: %w", err)
	}
	return reply, nil
}

// Reset discards the session and all its turns.
func (m *Manager) Reset(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	m.logger.Debug("session reset", "session_id", id)
	return nil
}

// QuickActions returns the suggestion buttons shown under the welcome turn.
func (m *Manager) QuickActions() []composer.QuickAction {
	return composer.QuickActions(m.profile())
}

func (m *Manager) acquire(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.busy[id]; ok {
		return false
	}
	m.busy[id] = struct{}{}
	return true
}

func (m *Manager) release(id string) {
	m.mu.Lock()
	delete(m.busy, id)
	m.mu.Unlock()
}
