package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sayeesx/folio/internal/mailer"
	"github.com/sayeesx/folio/internal/pipeline"
	"github.com/sayeesx/folio/internal/profile"
	"github.com/sayeesx/folio/internal/session"
)

const maxRequestBodySize = 1 << 20 // 1MB

// ProfileProvider returns the current portfolio profile.
type ProfileProvider interface {
	GetProfile() (profile.Profile, error)
}

// Responder answers a single visitor message.
type Responder interface {
	Respond(ctx context.Context, text string) pipeline.Reply
}

type Deps struct {
	Profiles  ProfileProvider
	Responder Responder
	Sessions  *session.Manager
	Mailer    mailer.Sender // optional; nil behaves like mailer.Disabled

	// AllowedOrigins lists CORS origins. "*" allows any origin; empty
	// disables CORS headers.
	AllowedOrigins []string
}

// NewHandler returns the HTTP API for the portfolio widget.
func NewHandler(deps Deps) http.Handler {
	if deps.Mailer == nil {
		deps.Mailer = mailer.Disabled{}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(slog.Default()))
	r.Use(middleware.Recoverer)
	r.Use(CORS(deps.AllowedOrigins))

	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/profile", handleGetProfile(deps))
		r.Get("/quick-actions", handleQuickActions(deps))
		r.Post("/chat", handleChat(deps))
		r.Post("/sessions", handleOpenSession(deps))
		r.Get("/sessions/{id}", handleGetSession(deps))
		r.Delete("/sessions/{id}", handleDeleteSession(deps))
		r.Post("/contact", handleContact(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encoding response failed", "error", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
