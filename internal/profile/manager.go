package profile

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"
)

// Source produces a fresh Profile. Implemented by FileSource and
// StaticSource.
type Source interface {
	Load() (Profile, error)
}

// FileSource loads the profile from a YAML file on every call.
type FileSource struct {
	Path string
}

func (s FileSource) Load() (Profile, error) {
	p, err := LoadFile(s.Path)
	if err != nil {
		return Profile{}, err
	}
	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("%s: %w", s.Path, err)
	}
	return p, nil
}

// StaticSource always returns the same profile.
type StaticSource struct {
	Profile Profile
}

func (s StaticSource) Load() (Profile, error) { return s.Profile, nil }

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Manager provides cached access to the profile. Callers always receive a
// deep copy, so composing a reply never mutates the cached value.
type Manager struct {
	source Source
	clock  Clock
	ttl    time.Duration
	logger *slog.Logger

	mu       sync.RWMutex
	cached   *Profile
	cachedAt time.Time
}

// NewManager creates a Manager with a 60-second cache TTL.
func NewManager(source Source) *Manager {
	return NewManagerWithClock(source, realClock{}, 60*time.Second)
}

// NewManagerWithClock creates a Manager with a custom clock and cache TTL.
// A nil clock uses wall time.
func NewManagerWithClock(source Source, clock Clock, ttl time.Duration) *Manager {
	if clock == nil {
		clock = realClock{}
	}
	return &Manager{
		source: source,
		clock:  clock,
		ttl:    ttl,
		logger: slog.Default(),
	}
}

// GetProfile returns the cached profile, reloading it from the source when
// the TTL has expired or the cache was invalidated. If a reload fails and a
// previous profile is cached, the stale copy is served and the error logged.
func (m *Manager) GetProfile() (Profile, error) {
	// Fast path: read lock for cache hit.
	m.mu.RLock()
	if m.fresh() {
		p := deepCopyProfile(m.cached)
		m.mu.RUnlock()
		return p, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock.
	if m.fresh() {
		return deepCopyProfile(m.cached), nil
	}

	p, err := m.source.Load()
	if err != nil {
		if m.cached != nil {
			m.logger.Warn("profile reload failed, serving cached copy", "error", err)
			m.cachedAt = m.clock.Now()
			return deepCopyProfile(m.cached), nil
		}
		return Profile{}, fmt.Errorf("loading profile: %w", err)
	}
	m.cached = &p
	m.cachedAt = m.clock.Now()
	return deepCopyProfile(&p), nil
}

func (m *Manager) fresh() bool {
	return m.cached != nil && m.clock.Now().Before(m.cachedAt.Add(m.ttl))
}

// Invalidate forces the next GetProfile call to reload from the source.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.cachedAt = time.Time{}
	m.mu.Unlock()
}

// Watch invalidates the cache whenever the file at path is written, created,
// or renamed into place. The parent directory is watched because editors
// commonly replace files instead of writing them in place. Watch blocks until
// ctx is cancelled.
func (m *Manager) Watch(ctx context.Context, path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				m.logger.Info("profile changed, invalidating cache", "path", abs, "op", ev.Op.String())
				m.Invalidate()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			m.logger.Warn("profile watcher error", "error", err)
		}
	}
}

// maxSummaryChars caps the summary so it fits comfortably in a tool result.
const maxSummaryChars = 1200

// Summarize renders p as a short paragraph.
func Summarize(p Profile) string {
	var parts []string

	b := p.Basic
	if b.Name != "" {
		intro := b.Name
		if b.Role != "" {
			intro += ", " + b.Role
		}
		parts = append(parts, intro+".")
	}
	if b.Location.Current != "" {
		parts = append(parts, fmt.Sprintf("Based in %s.", b.Location.Current))
	}
	if c := p.Education.Current; c.Degree != "" {
		study := "Studying " + c.Degree
		if c.College != "" {
			study += " at " + c.College
		}
		parts = append(parts, study+".")
	}
	if len(b.Interests) > 0 {
		parts = append(parts, fmt.Sprintf("Interests: %s.", strings.Join(b.Interests, ", ")))
	}
	if len(p.Projects) > 0 {
		names := make([]string, 0, len(p.Projects))
		for _, proj := range p.Projects {
			names = append(names, proj.Name)
		}
		parts = append(parts, fmt.Sprintf("Projects: %s.", strings.Join(names, ", ")))
	}
	if extra := p.Contact.Other; len(extra) > 0 {
		keys := make([]string, 0, len(extra))
		for k := range extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var handles []string
		for _, k := range keys {
			handles = append(handles, k+": "+extra[k])
		}
		parts = append(parts, fmt.Sprintf("Also on %s.", strings.Join(handles, ", ")))
	}

	if len(parts) == 0 {
		return "Profile: not yet configured."
	}

	summary := strings.Join(parts, " ")
	if len(summary) > maxSummaryChars {
		// Ensure we don't split a multi-byte UTF-8 character.
		end := maxSummaryChars
		for end > 0 && !utf8.RuneStart(summary[end]) {
			end--
		}
		if idx := strings.LastIndex(summary[:end], " "); idx > 0 {
			summary = summary[:idx]
		} else {
			summary = summary[:end]
		}
	}
	return summary
}

func deepCopyProfile(p *Profile) Profile {
	if p == nil {
		return Profile{}
	}
	cp := *p

	cp.Basic.Interests = cloneStrings(p.Basic.Interests)
	cp.Basic.Languages = cloneStrings(p.Basic.Languages)
	if p.Education.Previous != nil {
		cp.Education.Previous = make([]School, len(p.Education.Previous))
		copy(cp.Education.Previous, p.Education.Previous)
	}
	if p.Timeline != nil {
		cp.Timeline = make([]Milestone, len(p.Timeline))
		copy(cp.Timeline, p.Timeline)
	}
	cp.Skills = Skills{
		Languages:  cloneStrings(p.Skills.Languages),
		Frameworks: cloneStrings(p.Skills.Frameworks),
		DataAI:     cloneStrings(p.Skills.DataAI),
		Tools:      cloneStrings(p.Skills.Tools),
		Soft:       cloneStrings(p.Skills.Soft),
	}
	if p.Projects != nil {
		cp.Projects = make([]Project, len(p.Projects))
		for i, proj := range p.Projects {
			proj.Technologies = cloneStrings(proj.Technologies)
			cp.Projects[i] = proj
		}
	}
	if p.Contact.Other != nil {
		cp.Contact.Other = maps.Clone(p.Contact.Other)
	}
	cp.Conversational = Conversational{
		Greetings: cloneStrings(p.Conversational.Greetings),
		Goodbye:   cloneStrings(p.Conversational.Goodbye),
		Thanks:    cloneStrings(p.Conversational.Thanks),
		Humor:     cloneStrings(p.Conversational.Humor),
		Unknown:   cloneStrings(p.Conversational.Unknown),
	}
	return cp
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	cp := make([]string, len(s))
	copy(cp, s)
	return cp
}
