// Package pipeline decides how a visitor message is answered: by the local
// rule-based classifier, by the hosted chat endpoint, or remote-first with
// local fallback.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sayeesx/folio/internal/composer"
	"github.com/sayeesx/folio/internal/intent"
	"github.com/sayeesx/folio/internal/profile"
	"github.com/sayeesx/folio/internal/proxy"
)

// Mode selects the answering strategy.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
	ModeHybrid Mode = "hybrid"
)

// ParseMode validates a configured mode name. Empty means local.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeLocal, nil
	case ModeLocal, ModeRemote, ModeHybrid:
		return m, nil
	}
	return "", fmt.Errorf("unknown chat mode %q (want local, remote or hybrid)", s)
}

// Reply sources and remote-only categories.
const (
	SourceLocal  = "local"
	SourceRemote = "remote"

	CategoryRemote      = "remote"
	CategoryRemoteError = "remote_error"
)

// ProfileSource provides the current profile. Implemented by profile.Manager.
type ProfileSource interface {
	GetProfile() (profile.Profile, error)
}

// RemoteChatter sends a message to a hosted chat endpoint. Implemented by
// proxy.Client.
type RemoteChatter interface {
	Send(ctx context.Context, message string) (string, error)
}

// Reply is the answer to one visitor message.
type Reply struct {
	Text       string           `json:"text"`
	Category   string           `json:"category"`
	Topic      string           `json:"topic,omitempty"`
	Action     *composer.Action `json:"action,omitempty"`
	Source     string           `json:"source"`
	DurationMs int64            `json:"duration_ms"`
}

// Responder answers visitor messages according to its mode.
type Responder struct {
	mode       Mode
	classifier *intent.Classifier
	profiles   ProfileSource
	remote     RemoteChatter
	logger     *slog.Logger
}

// NewResponder creates a Responder. Remote and hybrid modes without a
// remote client degrade to local answering.
func NewResponder(mode Mode, classifier *intent.Classifier, profiles ProfileSource, remote RemoteChatter) *Responder {
	logger := slog.Default()
	if mode == "" {
		mode = ModeLocal
	}
	if mode != ModeLocal && remote == nil {
		logger.Warn("chat mode needs a remote endpoint, answering locally", "mode", mode)
		mode = ModeLocal
	}
	if classifier == nil {
		classifier = intent.New(nil, nil)
	}
	return &Responder{
		mode:       mode,
		classifier: classifier,
		profiles:   profiles,
		remote:     remote,
		logger:     logger,
	}
}

// Mode returns the effective answering mode.
func (r *Responder) Mode() Mode { return r.mode }

// Respond answers text. It never fails: remote failures become an apology
// (remote mode) or a local answer (hybrid mode).
func (r *Responder) Respond(ctx context.Context, text string) (out Reply) {
	start := time.Now()
	defer func() {
		out.DurationMs = time.Since(start).Milliseconds()
	}()

	switch r.mode {
	case ModeRemote:
		reply, err := r.remote.Send(ctx, text)
		if err != nil {
			r.logger.Warn("remote chat failed", "error", err)
			return Reply{Text: proxy.Apology(err), Category: CategoryRemoteError, Source: SourceRemote}
		}
		return Reply{Text: reply, Category: CategoryRemote, Source: SourceRemote}

	case ModeHybrid:
		reply, err := r.remote.Send(ctx, text)
		if err == nil {
			return Reply{Text: reply, Category: CategoryRemote, Source: SourceRemote}
		}
		r.logger.Warn("remote chat failed, answering locally", "error", err)
	}

	return r.local(text)
}

func (r *Responder) local(text string) Reply {
	var p profile.Profile
	if r.profiles != nil {
		var err error
		if p, err = r.profiles.GetProfile(); err != nil {
			r.logger.Warn("loading profile for reply failed", "error", err)
		}
	}

	res := r.classifier.Classify(text, p)
	r.logger.Debug("message classified", "category", res.Category, "topic", res.Topic)
	return Reply{
		Text:     res.Text,
		Category: string(res.Category),
		Topic:    res.Topic,
		Action:   res.Action,
		Source:   SourceLocal,
	}
}
