package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestSend_ResponseField(t *testing.T) {
	var gotMessage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		gotMessage = body["message"]
		fmt.Fprint(w, `{"response":"Hello from remote"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.Send(context.Background(), "hi there")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got != "Hello from remote" {
		t.Errorf("reply = %q, want %q", got, "Hello from remote")
	}
	if gotMessage != "hi there" {
		t.Errorf("server got message %q", gotMessage)
	}
}

func TestSend_ReplyField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"reply":"configured field","response":"wrong field"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithResponseField("reply"))
	got, err := c.Send(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got != "configured field" {
		t.Errorf("reply = %q, want %q", got, "configured field")
	}
}

func TestSend_Non2xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream sleeping")
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Send(context.Background(), "hi")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusBadGateway {
		t.Errorf("Code = %d", statusErr.Code)
	}
	if statusErr.Body != "upstream sleeping" {
		t.Errorf("Body = %q", statusErr.Body)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 attempt (no retry), got %d", got)
	}
	if Apology(err) != ApologyStatus {
		t.Errorf("Apology = %q", Apology(err))
	}
}

func TestSend_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"missing field", `{"answer":"hi"}`},
		{"not a string", `{"response":42}`},
		{"empty", `{"response":"   "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).Send(context.Background(), "hi")
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
			if Apology(err) != ApologyMalformed {
				t.Errorf("Apology = %q", Apology(err))
			}
		})
	}
}

func TestSend_Timeout(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithTimeout(50*time.Millisecond))
	start := time.Now()
	_, err := c.Send(context.Background(), "hi")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Send took %s, timeout not honoured", elapsed)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 attempt, got %d", got)
	}
	if Apology(err) != ApologyTimeout {
		t.Errorf("Apology = %q", Apology(err))
	}
}

func TestSend_CallerCancelled(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := NewClient(srv.URL, WithTimeout(5*time.Second)).Send(ctx, "hi")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if Apology(err) != ApologyTimeout {
		t.Errorf("Apology = %q", Apology(err))
	}
}

func TestSend_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Send(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected error for closed server")
	}
	if Apology(err) != ApologyDefault {
		t.Errorf("Apology = %q, want default", Apology(err))
	}
}

func TestNewClient_TrimsSlash(t *testing.T) {
	c := NewClient("https://chat.example.com/api/chat/")
	if c.URL() != "https://chat.example.com/api/chat" {
		t.Errorf("URL() = %q", c.URL())
	}
}
