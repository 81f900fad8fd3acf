package profile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// --- Mock source ---

type mockSource struct {
	mu      sync.Mutex
	profile Profile
	err     error

	loadCalls int
}

func (m *mockSource) Load() (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCalls++
	if m.err != nil {
		return Profile{}, m.err
	}
	return deepCopyProfile(&m.profile), nil
}

func (m *mockSource) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

func (m *mockSource) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// --- Mock clock ---

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// --- Tests ---

func TestGetProfile_Default(t *testing.T) {
	mgr := NewManager(StaticSource{Profile: Default()})

	p, err := mgr.GetProfile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Basic.Name != "Sayees" {
		t.Errorf("Name = %q, want %q", p.Basic.Name, "Sayees")
	}
	if len(p.Projects) == 0 || p.Projects[0].Name != "Exquio" {
		t.Errorf("first project = %+v, want Exquio", p.Projects)
	}
}

func TestGetProfile_SourceError(t *testing.T) {
	src := &mockSource{err: errors.New("disk on fire")}
	mgr := NewManager(src)

	if _, err := mgr.GetProfile(); err == nil {
		t.Fatal("expected error when nothing is cached")
	}
}

func TestGetProfile_StaleOnReloadFailure(t *testing.T) {
	src := &mockSource{profile: Default()}
	clock := &mockClock{now: time.Now()}
	mgr := NewManagerWithClock(src, clock, time.Minute)

	if _, err := mgr.GetProfile(); err != nil {
		t.Fatalf("first load: %v", err)
	}

	src.setErr(errors.New("broken yaml"))
	clock.Advance(2 * time.Minute)

	p, err := mgr.GetProfile()
	if err != nil {
		t.Fatalf("expected stale profile, got error: %v", err)
	}
	if p.Basic.Name != "Sayees" {
		t.Errorf("Name = %q, want cached value", p.Basic.Name)
	}
}

func TestGetProfile_ReturnsCopy(t *testing.T) {
	mgr := NewManager(StaticSource{Profile: Default()})

	p1, _ := mgr.GetProfile()
	p1.Projects[0].Name = "mutated"
	p1.Conversational.Greetings[0] = "mutated"
	p1.Basic.Interests[0] = "mutated"

	p2, _ := mgr.GetProfile()
	if p2.Projects[0].Name == "mutated" {
		t.Error("project mutation leaked into cache")
	}
	if p2.Conversational.Greetings[0] == "mutated" {
		t.Error("phrase bank mutation leaked into cache")
	}
	if p2.Basic.Interests[0] == "mutated" {
		t.Error("interests mutation leaked into cache")
	}
}

func TestCacheTTL(t *testing.T) {
	src := &mockSource{profile: Default()}
	clock := &mockClock{now: time.Now()}
	mgr := NewManagerWithClock(src, clock, 60*time.Second)

	mgr.GetProfile()
	mgr.GetProfile()

	if calls := src.calls(); calls != 1 {
		t.Errorf("expected 1 source call (cache hit on second), got %d", calls)
	}
}

func TestCacheExpiry(t *testing.T) {
	src := &mockSource{profile: Default()}
	clock := &mockClock{now: time.Now()}
	ttl := 60 * time.Second
	mgr := NewManagerWithClock(src, clock, ttl)

	mgr.GetProfile()

	// Advance past TTL
	clock.Advance(ttl + time.Second)

	mgr.GetProfile()

	if calls := src.calls(); calls != 2 {
		t.Errorf("expected 2 source calls (cache expired), got %d", calls)
	}
}

func TestInvalidate(t *testing.T) {
	src := &mockSource{profile: Default()}
	clock := &mockClock{now: time.Now()}
	mgr := NewManagerWithClock(src, clock, time.Hour)

	mgr.GetProfile()
	mgr.Invalidate()
	mgr.GetProfile()

	if calls := src.calls(); calls != 2 {
		t.Errorf("expected 2 source calls after Invalidate, got %d", calls)
	}
}

func TestWatch_InvalidatesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	if err := os.WriteFile(path, DefaultYAML(), 0o644); err != nil {
		t.Fatal(err)
	}

	clock := &mockClock{now: time.Now()}
	mgr := NewManagerWithClock(FileSource{Path: path}, clock, time.Hour)

	p, err := mgr.GetProfile()
	if err != nil {
		t.Fatalf("initial load: %v", err)
	}
	if p.Basic.Name != "Sayees" {
		t.Fatalf("Name = %q", p.Basic.Name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mgr.Watch(ctx, path) }()

	updated := strings.Replace(string(DefaultYAML()), "name: Sayees", "name: Renamed Owner", 1)
	deadline := time.Now().Add(5 * time.Second)
	for {
		if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
		p, err = mgr.GetProfile()
		if err == nil && p.Basic.Name == "Renamed Owner" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("watcher did not invalidate cache; name = %q, err = %v", p.Basic.Name, err)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Watch did not return after cancel")
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize(Default())

	for _, want := range []string{"Sayees", "Mangaluru", "Exquio", "Yenepoya College of Science"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q: %s", want, summary)
		}
	}
}

func TestSummarize_Empty(t *testing.T) {
	if got := Summarize(Profile{}); got == "" {
		t.Error("expected non-empty summary for empty profile")
	}
}

func TestSummarize_Budget(t *testing.T) {
	p := Default()
	for i := 0; i < 200; i++ {
		p.Projects = append(p.Projects, Project{Name: "Some fairly long project name number"})
	}

	if got := Summarize(p); len(got) > maxSummaryChars {
		t.Errorf("summary too long: %d chars", len(got))
	}
}
