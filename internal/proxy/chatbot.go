// Package proxy forwards visitor messages to a hosted chat endpoint.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout matches the widget's request timeout.
	DefaultTimeout = 15 * time.Second

	// DefaultResponseField is the JSON field holding the reply text.
	DefaultResponseField = "response"

	maxResponseSize = 1 << 20
	maxErrorBody    = 512
)

// Client posts messages to a hosted chat endpoint. Requests are never
// retried; a failed call surfaces immediately as an error.
type Client struct {
	url        string
	field      string
	timeout    time.Duration
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithResponseField sets the JSON field the reply is read from.
func WithResponseField(field string) Option {
	return func(c *Client) {
		if field != "" {
			c.field = field
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a client for the endpoint at url.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:        strings.TrimRight(url, "/"),
		field:      DefaultResponseField,
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the endpoint the client posts to.
func (c *Client) URL() string { return c.url }

type chatRequest struct {
	Message string `json:"message"`
}

// Send posts message and returns the reply text.
func (c *Client) Send(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(chatRequest{Message: message})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if tErr := c.timeoutErr(reqCtx, err); tErr != nil {
			return "", tErr
		}
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if tErr := c.timeoutErr(reqCtx, err); tErr != nil {
			return "", tErr
		}
		return "", fmt.Errorf("reading response: %w", err)
	}
	return c.extract(raw)
}

func (c *Client) extract(raw []byte) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	v, ok := fields[c.field]
	if !ok {
		return "", fmt.Errorf("%w: missing %q field", ErrMalformed, c.field)
	}
	var text string
	if err := json.Unmarshal(v, &text); err != nil {
		return "", fmt.Errorf("%w: %q is not a string", ErrMalformed, c.field)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty %q field", ErrMalformed, c.field)
	}
	return text, nil
}

// timeoutErr reports a deadline or a caller cancellation as ErrTimeout, and
// returns nil for every other failure.
func (c *Client) timeoutErr(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%w: request cancelled", ErrTimeout)
	case isTimeout(ctx, err):
		return fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
	}
	return nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
