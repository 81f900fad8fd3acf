package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreateSession(t *testing.T, s *Store, id string, at time.Time) {
	t.Helper()
	if err := s.CreateSession(context.Background(), Session{ID: id, CreatedAt: at, UpdatedAt: at}); err != nil {
		t.Fatalf("CreateSession(%s): %v", id, err)
	}
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

// TestMigrationsOrdered verifies migrations are applied in ascending numeric order.
func TestMigrationsOrdered(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(versions) < 2 {
		t.Fatalf("expected at least two applied migrations, got %v", versions)
	}

	for i := 1; i < len(versions); i++ {
		if versions[i] <= versions[i-1] {
			t.Errorf("migrations not in ascending order: %v", versions)
			break
		}
	}
}

func TestIndexesExist(t *testing.T) {
	s := openTestStore(t)

	for _, idx := range []string{"idx_turns_session_seq", "idx_sessions_updated"} {
		var count int
		err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&count)
		if err != nil {
			t.Fatalf("querying sqlite_master for %q: %v", idx, err)
		}
		if count != 1 {
			t.Errorf("index %q not found in sqlite_master", idx)
		}
	}
}

func TestParseMigrationVersion(t *testing.T) {
	v, err := parseMigrationVersion("002_session_activity.sql")
	if err != nil || v != 2 {
		t.Errorf("parseMigrationVersion = %d, %v", v, err)
	}
	if _, err := parseMigrationVersion("bad.sql"); err == nil {
		t.Error("expected error for unnumbered migration")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mustCreateSession(t, s, "s1", now)

	got, err := s.GetSession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.ID != "s1" || !got.CreatedAt.Equal(now) || !got.UpdatedAt.Equal(now) {
		t.Errorf("GetSession = %+v", got)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetSession(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendAndListTurns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mustCreateSession(t, s, "s1", start)

	turns := []Turn{
		{ID: "t1", SessionID: "s1", Sender: "bot", Text: "welcome", Category: "welcome"},
		{ID: "t2", SessionID: "s1", Sender: "user", Text: "hi"},
		{ID: "t3", SessionID: "s1", Sender: "bot", Text: "hello!", Category: "greeting", ActionJSON: `{"target":"about"}`},
	}
	for i, tr := range turns {
		tr.CreatedAt = start.Add(time.Duration(i) * time.Second)
		seq, err := s.AppendTurn(ctx, tr)
		if err != nil {
			t.Fatalf("AppendTurn(%s): %v", tr.ID, err)
		}
		if seq != i+1 {
			t.Errorf("seq = %d, want %d", seq, i+1)
		}
	}

	got, err := s.ListTurns(ctx, "s1")
	if err != nil {
		t.Fatalf("ListTurns: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(got))
	}
	for i, tr := range got {
		if tr.ID != turns[i].ID || tr.Seq != i+1 {
			t.Errorf("turn %d = %+v", i, tr)
		}
	}
	if got[2].ActionJSON != `{"target":"about"}` || got[2].Category != "greeting" {
		t.Errorf("last turn fields lost: %+v", got[2])
	}

	sess, _ := s.GetSession(ctx, "s1")
	if !sess.UpdatedAt.Equal(start.Add(2 * time.Second)) {
		t.Errorf("UpdatedAt = %v, want last turn time", sess.UpdatedAt)
	}
}

func TestAppendTurn_UnknownSession(t *testing.T) {
	s := openTestStore(t)
	_, err := s.AppendTurn(context.Background(), Turn{ID: "t1", SessionID: "nope", Sender: "user", Text: "hi", CreatedAt: time.Now()})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendTurn_InvalidSender(t *testing.T) {
	s := openTestStore(t)
	mustCreateSession(t, s, "s1", time.Now())
	_, err := s.AppendTurn(context.Background(), Turn{ID: "t1", SessionID: "s1", Sender: "robot", Text: "hi", CreatedAt: time.Now()})
	if err == nil {
		t.Error("expected CHECK constraint failure for unknown sender")
	}
}

func TestAppendTurn_Concurrent(t *testing.T) {
	s := openTestStore(t)
	mustCreateSession(t, s, "s1", time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.AppendTurn(context.Background(), Turn{
				ID: fmt.Sprintf("t%d", i), SessionID: "s1", Sender: "user", Text: "x", CreatedAt: time.Now(),
			})
			if err != nil {
				t.Errorf("AppendTurn: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := s.ListTurns(context.Background(), "s1")
	if err != nil {
		t.Fatalf("ListTurns: %v", err)
	}
	if len(got) != 20 {
		t.Fatalf("expected 20 turns, got %d", len(got))
	}
	for i, tr := range got {
		if tr.Seq != i+1 {
			t.Fatalf("sequence gap at %d: %d", i, tr.Seq)
		}
	}
}

func TestDeleteSession(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	mustCreateSession(t, s, "s1", time.Now())
	s.AppendTurn(ctx, Turn{ID: "t1", SessionID: "s1", Sender: "user", Text: "hi", CreatedAt: time.Now()})

	if err := s.DeleteSession(ctx, "s1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := s.GetSession(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("session still present: %v", err)
	}
	turns, err := s.ListTurns(ctx, "s1")
	if err != nil {
		t.Fatalf("ListTurns: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("expected turns to be deleted, got %d", len(turns))
	}
	if err := s.DeleteSession(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteSessionsBefore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mustCreateSession(t, s, "old", now.Add(-2*time.Hour))
	mustCreateSession(t, s, "fresh", now)
	s.AppendTurn(ctx, Turn{ID: "t1", SessionID: "old", Sender: "user", Text: "hi", CreatedAt: now.Add(-2 * time.Hour)})

	n, err := s.DeleteSessionsBefore(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("DeleteSessionsBefore: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d sessions, want 1", n)
	}
	count, _ := s.CountSessions(ctx)
	if count != 1 {
		t.Errorf("CountSessions = %d, want 1", count)
	}
	if _, err := s.GetSession(ctx, "fresh"); err != nil {
		t.Errorf("fresh session purged: %v", err)
	}
}
