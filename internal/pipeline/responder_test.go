package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sayeesx/folio/internal/intent"
	"github.com/sayeesx/folio/internal/profile"
	"github.com/sayeesx/folio/internal/proxy"
)

// --- mock remote ---

type mockRemote struct {
	reply string
	err   error
	calls int
	got   string
}

func (m *mockRemote) Send(_ context.Context, message string) (string, error) {
	m.calls++
	m.got = message
	return m.reply, m.err
}

// --- mock profiles ---

type mockProfiles struct {
	p   profile.Profile
	err error
}

func (m mockProfiles) GetProfile() (profile.Profile, error) { return m.p, m.err }

func defaultProfiles() mockProfiles { return mockProfiles{p: profile.Default()} }

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeLocal, false},
		{"local", ModeLocal, false},
		{" Remote ", ModeRemote, false},
		{"HYBRID", ModeHybrid, false},
		{"llm", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRespond_Local(t *testing.T) {
	r := NewResponder(ModeLocal, nil, defaultProfiles(), nil)

	got := r.Respond(context.Background(), "tell me about your projects")
	if got.Source != SourceLocal {
		t.Errorf("Source = %q, want local", got.Source)
	}
	if got.Category != string(intent.CategoryTopic) || got.Topic != intent.TopicProjects {
		t.Errorf("Category/Topic = %q/%q", got.Category, got.Topic)
	}
	if !strings.Contains(got.Text, "Exquio") {
		t.Errorf("Text = %q, want first project", got.Text)
	}
	if got.Action == nil || got.Action.Target != "projects" {
		t.Errorf("Action = %+v", got.Action)
	}
}

func TestRespond_LocalNoisy(t *testing.T) {
	r := NewResponder(ModeLocal, nil, defaultProfiles(), nil)
	got := r.Respond(context.Background(), "xk9# zzqp")
	if got.Text != intent.ClarificationText {
		t.Errorf("Text = %q, want clarification", got.Text)
	}
}

func TestRespond_LocalProfileError(t *testing.T) {
	r := NewResponder(ModeLocal, nil, mockProfiles{err: errors.New("unreadable")}, nil)
	got := r.Respond(context.Background(), "purple elephants")
	if got.Text == "" {
		t.Error("expected a reply even without a profile")
	}
	if got.Category != string(intent.CategoryFallback) {
		t.Errorf("Category = %q, want fallback", got.Category)
	}
}

func TestRespond_Remote(t *testing.T) {
	remote := &mockRemote{reply: "remote says hi"}
	r := NewResponder(ModeRemote, nil, defaultProfiles(), remote)

	got := r.Respond(context.Background(), "hello")
	if got.Text != "remote says hi" || got.Source != SourceRemote || got.Category != CategoryRemote {
		t.Errorf("Respond = %+v", got)
	}
	if remote.got != "hello" {
		t.Errorf("remote got %q", remote.got)
	}
}

func TestRespond_RemoteFailure(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w after 15s", proxy.ErrTimeout), proxy.ApologyTimeout},
		{&proxy.StatusError{Code: 500}, proxy.ApologyStatus},
		{fmt.Errorf("%w: bad json", proxy.ErrMalformed), proxy.ApologyMalformed},
		{errors.New("connection refused"), proxy.ApologyDefault},
	}
	for _, tt := range tests {
		remote := &mockRemote{err: tt.err}
		r := NewResponder(ModeRemote, nil, defaultProfiles(), remote)

		got := r.Respond(context.Background(), "hello")
		if got.Text != tt.want {
			t.Errorf("err %v: Text = %q, want %q", tt.err, got.Text, tt.want)
		}
		if got.Category != CategoryRemoteError {
			t.Errorf("Category = %q, want remote_error", got.Category)
		}
		if remote.calls != 1 {
			t.Errorf("expected 1 remote call, got %d", remote.calls)
		}
	}
}

func TestRespond_HybridFallsBackToLocal(t *testing.T) {
	remote := &mockRemote{err: proxy.ErrTimeout}
	r := NewResponder(ModeHybrid, nil, defaultProfiles(), remote)

	got := r.Respond(context.Background(), "Who Are You?")
	if got.Source != SourceLocal {
		t.Errorf("Source = %q, want local fallback", got.Source)
	}
	if got.Category != string(intent.CategoryIdentity) {
		t.Errorf("Category = %q, want identity", got.Category)
	}
	if remote.calls != 1 {
		t.Errorf("expected 1 remote call, got %d", remote.calls)
	}
}

func TestRespond_HybridPrefersRemote(t *testing.T) {
	remote := &mockRemote{reply: "from remote"}
	r := NewResponder(ModeHybrid, nil, defaultProfiles(), remote)

	got := r.Respond(context.Background(), "hi")
	if got.Source != SourceRemote || got.Text != "from remote" {
		t.Errorf("Respond = %+v", got)
	}
}

func TestNewResponder_RemoteWithoutClient(t *testing.T) {
	r := NewResponder(ModeRemote, nil, defaultProfiles(), nil)
	if r.Mode() != ModeLocal {
		t.Errorf("Mode() = %q, want local when no remote client", r.Mode())
	}
	got := r.Respond(context.Background(), "hi")
	if got.Source != SourceLocal {
		t.Errorf("Source = %q", got.Source)
	}
}
