package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultEmailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"
	emailJSTimeout         = 15 * time.Second
)

// EmailJSConfig holds EmailJS REST API credentials.
type EmailJSConfig struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
	// PrivateKey is the optional access token required when the account
	// enforces strict mode for non-browser calls.
	PrivateKey string
	Endpoint   string
}

// EmailJSSender delivers messages through the EmailJS REST API using the
// same template parameters as the browser contact form.
type EmailJSSender struct {
	cfg        EmailJSConfig
	httpClient *http.Client
}

// NewEmailJSSender creates an EmailJSSender.
func NewEmailJSSender(cfg EmailJSConfig) *EmailJSSender {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEmailJSEndpoint
	}
	return &EmailJSSender{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: emailJSTimeout},
	}
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

func (s *EmailJSSender) Send(ctx context.Context, msg Message) error {
	if s.cfg.ServiceID == "" || s.cfg.TemplateID == "" || s.cfg.PublicKey == "" {
		return fmt.Errorf("%w: emailjs service, template and public key are required", ErrNotConfigured)
	}

	body, err := json.Marshal(emailJSRequest{
		ServiceID:   s.cfg.ServiceID,
		TemplateID:  s.cfg.TemplateID,
		UserID:      s.cfg.PublicKey,
		AccessToken: s.cfg.PrivateKey,
		TemplateParams: map[string]string{
			"name":    msg.Name,
			"email":   msg.Email,
			"message": msg.Message,
		},
	})
	if err != nil {
		return fmt.Errorf("marshaling emailjs request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating emailjs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing emailjs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("emailjs returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	slog.Info("contact email sent", "provider", "emailjs", "from", msg.Email)
	return nil
}
