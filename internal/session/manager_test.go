package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sayeesx/folio/internal/composer"
	"github.com/sayeesx/folio/internal/pipeline"
	"github.com/sayeesx/folio/internal/profile"
)

type staticProfiles struct{ p profile.Profile }

func (s staticProfiles) GetProfile() (profile.Profile, error) { return s.p, nil }

type echoResponder struct{}

func (echoResponder) Respond(_ context.Context, text string) pipeline.Reply {
	return pipeline.Reply{
		Text:     "echo: " + text,
		Category: "topic",
		Action:   composer.NavigateTo(composer.TargetSkills),
		Source:   pipeline.SourceLocal,
	}
}

// blockingResponder holds every call until release is closed.
type blockingResponder struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingResponder) Respond(_ context.Context, text string) pipeline.Reply {
	b.entered <- struct{}{}
	<-b.release
	return pipeline.Reply{Text: "done", Category: "fallback"}
}

func newTestManager() *Manager {
	return NewManager(NewMemoryStore(), staticProfiles{p: profile.Default()})
}

func TestManager_OpenAddsWelcome(t *testing.T) {
	m := newTestManager()
	tr, err := m.Open(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, tr.Session.ID)
	require.Len(t, tr.Turns, 1)
	assert.Equal(t, SenderBot, tr.Turns[0].Sender)
	assert.Equal(t, CategoryWelcome, tr.Turns[0].Category)
	assert.Equal(t, composer.Welcome(profile.Default()), tr.Turns[0].Text)

	got, err := m.Get(context.Background(), tr.Session.ID)
	require.NoError(t, err)
	assert.Len(t, got.Turns, 1)
}

func TestManager_OpenDistinctIDs(t *testing.T) {
	m := newTestManager()
	a, err := m.Open(context.Background())
	require.NoError(t, err)
	b, err := m.Open(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a.Session.ID, b.Session.ID)
}

func TestManager_Exchange(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	tr, err := m.Open(ctx)
	require.NoError(t, err)

	reply, err := m.Exchange(ctx, tr.Session.ID, "  skills?  ", echoResponder{})
	require.NoError(t, err)
	assert.Equal(t, "echo: skills?", reply.Text)

	got, err := m.Get(ctx, tr.Session.ID)
	require.NoError(t, err)
	require.Len(t, got.Turns, 3)

	assert.Equal(t, SenderUser, got.Turns[1].Sender)
	assert.Equal(t, "skills?", got.Turns[1].Text)
	assert.Equal(t, SenderBot, got.Turns[2].Sender)
	assert.Equal(t, "echo: skills?", got.Turns[2].Text)
	require.NotNil(t, got.Turns[2].Action)
	assert.Equal(t, composer.TargetSkills, got.Turns[2].Action.Target)
}

func TestManager_ExchangeEmpty(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	tr, err := m.Open(ctx)
	require.NoError(t, err)

	_, err = m.Exchange(ctx, tr.Session.ID, "   ", echoResponder{})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	got, err := m.Get(ctx, tr.Session.ID)
	require.NoError(t, err)
	assert.Len(t, got.Turns, 1, "blank input must not be recorded")
}

func TestManager_ExchangeUnknownSession(t *testing.T) {
	m := newTestManager()
	_, err := m.Exchange(context.Background(), "missing", "hi", echoResponder{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_ExchangeBusy(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	tr, err := m.Open(ctx)
	require.NoError(t, err)

	br := &blockingResponder{entered: make(chan struct{}), release: make(chan struct{})}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := m.Exchange(ctx, tr.Session.ID, "first", br)
		assert.NoError(t, err)
	}()
	<-br.entered

	_, err = m.Exchange(ctx, tr.Session.ID, "second", echoResponder{})
	assert.ErrorIs(t, err, ErrBusy)

	close(br.release)
	wg.Wait()

	// The guard is released once the first exchange finishes.
	_, err = m.Exchange(ctx, tr.Session.ID, "third", echoResponder{})
	assert.NoError(t, err)

	got, err := m.Get(ctx, tr.Session.ID)
	require.NoError(t, err)
	assert.Len(t, got.Turns, 5)
}

func TestManager_ExchangeRecordsAfterCancel(t *testing.T) {
	m := newTestManager()
	tr, err := m.Open(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	r := responderFunc(func(context.Context, string) pipeline.Reply {
		cancel()
		return pipeline.Reply{Text: "late", Category: "fallback"}
	})

	_, err = m.Exchange(ctx, tr.Session.ID, "hi", r)
	require.NoError(t, err)

	got, err := m.Get(context.Background(), tr.Session.ID)
	require.NoError(t, err)
	require.Len(t, got.Turns, 3)
	assert.Equal(t, "late", got.Turns[2].Text)
}

type responderFunc func(ctx context.Context, text string) pipeline.Reply

func (f responderFunc) Respond(ctx context.Context, text string) pipeline.Reply { return f(ctx, text) }

func TestManager_Reset(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	tr, err := m.Open(ctx)
	require.NoError(t, err)

	require.NoError(t, m.Reset(ctx, tr.Session.ID))
	_, err = m.Get(ctx, tr.Session.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Reset(ctx, tr.Session.ID), ErrNotFound)
}

func TestManager_QuickActions(t *testing.T) {
	m := newTestManager()
	got := m.QuickActions()
	assert.Equal(t, composer.QuickActions(profile.Default()), got)
	assert.NotEmpty(t, got)
}

// --- sweeper ---

type failingPurger struct{}

func (failingPurger) PurgeBefore(context.Context, time.Time) (int, error) {
	return 0, errors.New("disk full")
}

func TestSweeper_RunOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, Session{ID: "old", CreatedAt: base, UpdatedAt: base}))
	require.NoError(t, store.Create(ctx, Session{ID: "new", CreatedAt: base, UpdatedAt: base.Add(50 * time.Minute)}))

	s := NewSweeper(store, 30*time.Minute, 0)
	s.now = func() time.Time { return base.Add(time.Hour) }

	n, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.Get(ctx, "new")
	assert.NoError(t, err)
}

func TestSweeper_ZeroTTLKeepsEverything(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, Session{ID: "old", CreatedAt: base, UpdatedAt: base}))

	n, err := NewSweeper(store, 0, 0).RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweeper_RunOnceError(t *testing.T) {
	_, err := NewSweeper(failingPurger{}, time.Minute, 0).RunOnce(context.Background())
	assert.ErrorContains(t, err, "disk full")
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewSweeper(NewMemoryStore(), time.Minute, 10*time.Millisecond).Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
