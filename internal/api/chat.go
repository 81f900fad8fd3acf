package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sayeesx/folio/internal/composer"
	"github.com/sayeesx/folio/internal/pipeline"
	"github.com/sayeesx/folio/internal/session"
)

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type ChatResponse struct {
	pipeline.Reply
	SessionID string `json:"session_id,omitempty"`
}

type OpenSessionResponse struct {
	Session      session.Session        `json:"session"`
	Messages     []session.Turn         `json:"messages"`
	QuickActions []composer.QuickAction `json:"quick_actions"`
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := decodeBody(w, r, &req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		msg := strings.TrimSpace(req.Message)
		if msg == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		}

		if req.SessionID == "" {
			reply := deps.Responder.Respond(r.Context(), msg)
			writeJSON(w, http.StatusOK, ChatResponse{Reply: reply})
			return
		}

		if deps.Sessions == nil {
			httpError(w, http.StatusNotFound, "not_found_error", "sessions are not enabled")
			return
		}

		reply, err := deps.Sessions.Exchange(r.Context(), req.SessionID, msg, deps.Responder)
		switch {
		case err == nil:
		case errors.Is(err, session.ErrNotFound):
			httpError(w, http.StatusNotFound, "not_found_error", "session %s not found", req.SessionID)
			return
		case errors.Is(err, session.ErrBusy):
			httpError(w, http.StatusConflict, "conflict_error", "session %s already has a message in flight", req.SessionID)
			return
		case errors.Is(err, session.ErrEmptyMessage):
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		case reply.Text != "":
			// The visitor still gets the answer even if it could not be recorded.
			slog.Warn("chat reply not recorded", "session_id", req.SessionID, "error", err)
		default:
			httpError(w, http.StatusInternalServerError, "api_error", "chat failed: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, ChatResponse{Reply: reply, SessionID: req.SessionID})
	}
}

func handleOpenSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Sessions == nil {
			httpError(w, http.StatusNotFound, "not_found_error", "sessions are not enabled")
			return
		}
		tr, err := deps.Sessions.Open(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "opening session: %v", err)
			return
		}
		writeJSON(w, http.StatusCreated, OpenSessionResponse{
			Session:      tr.Session,
			Messages:     tr.Turns,
			QuickActions: deps.Sessions.QuickActions(),
		})
	}
}

func handleGetSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Sessions == nil {
			httpError(w, http.StatusNotFound, "not_found_error", "sessions are not enabled")
			return
		}
		id := chi.URLParam(r, "id")
		tr, err := deps.Sessions.Get(r.Context(), id)
		if errors.Is(err, session.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found_error", "session %s not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading session: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, tr)
	}
}

func handleDeleteSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Sessions == nil {
			httpError(w, http.StatusNotFound, "not_found_error", "sessions are not enabled")
			return
		}
		id := chi.URLParam(r, "id")
		err := deps.Sessions.Reset(r.Context(), id)
		if errors.Is(err, session.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found_error", "session %s not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "deleting session: %v", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
