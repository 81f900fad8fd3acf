package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sayeesx/folio/internal/composer"
	"github.com/sayeesx/folio/internal/mailer"
	"github.com/sayeesx/folio/internal/profile"
)

const contactTimeout = 30 * time.Second

type ContactResponse struct {
	Status string `json:"status"`
	Notice string `json:"notice"`
}

func handleGetProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Profiles.GetProfile()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading profile: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handleQuickActions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p profile.Profile
		if deps.Profiles != nil {
			p, _ = deps.Profiles.GetProfile()
		}
		writeJSON(w, http.StatusOK, composer.QuickActions(p))
	}
}

func handleContact(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var msg mailer.Message
		if err := decodeBody(w, r, &msg); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		// Delivery continues if the visitor disconnects.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), contactTimeout)
		defer cancel()
		err := mailer.Submit(ctx, deps.Mailer, msg)

		var verr *mailer.ValidationError
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, ContactResponse{Status: "sent", Notice: mailer.NoticeSent})
		case errors.As(err, &verr):
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%s", verr.Error())
		default:
			slog.Error("contact message not delivered", "error", err)
			writeJSON(w, http.StatusBadGateway, ContactResponse{Status: "failed", Notice: mailer.NoticeFailed})
		}
	}
}
