package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sayeesx/folio/internal/composer"
	"github.com/sayeesx/folio/internal/storage"
)

// SQLiteStore persists sessions in the SQLite database managed by
// storage.Store.
type SQLiteStore struct {
	db *storage.Store
}

func NewSQLiteStore(db *storage.Store) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Create(ctx context.Context, sess Session) error {
	return s.db.CreateSession(ctx, storage.Session{
		ID:        sess.ID,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	})
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Session, error) {
	row, err := s.db.GetSession(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	return Session{ID: row.ID, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, t Turn) error {
	var actionJSON string
	if t.Action != nil {
		b, err := json.Marshal(t.Action)
		if err != nil {
			return fmt.Errorf("marshaling action: %w", err)
		}
		actionJSON = string(b)
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	_, err := s.db.AppendTurn(ctx, storage.Turn{
		ID:         t.ID,
		SessionID:  t.SessionID,
		Sender:     string(t.Sender),
		Text:       t.Text,
		Category:   t.Category,
		ActionJSON: actionJSON,
		CreatedAt:  t.CreatedAt,
	})
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *SQLiteStore) Turns(ctx context.Context, id string) ([]Turn, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.ListTurns(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]Turn, 0, len(rows))
	for _, r := range rows {
		t := Turn{
			ID:        r.ID,
			SessionID: r.SessionID,
			Sender:    Sender(r.Sender),
			Text:      r.Text,
			Category:  r.Category,
			CreatedAt: r.CreatedAt,
		}
		if r.ActionJSON != "" {
			var a composer.Action
			if err := json.Unmarshal([]byte(r.ActionJSON), &a); err != nil {
				return nil, fmt.Errorf("decoding action of turn %s: %w", r.ID, err)
			}
			t.Action = &a
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	err := s.db.DeleteSession(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *SQLiteStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return s.db.DeleteSessionsBefore(ctx, cutoff)
}
