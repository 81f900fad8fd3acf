//go:build !darwin

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileBackendRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	b := newPlatformBackend()
	if err := b.Store("server.port", "4100"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := b.Store("chat.mode", "hybrid"); err != nil {
		t.Fatalf("Store: %v", err)
	}

	// A fresh backend sees the persisted values.
	b = newPlatformBackend()
	port, ok, err := b.Lookup("server.port")
	if err != nil || !ok || port != "4100" {
		t.Errorf("Lookup(server.port) = %q, %v, %v", port, ok, err)
	}
	mode, ok, err := b.Lookup("chat.mode")
	if err != nil || !ok || mode != "hybrid" {
		t.Errorf("Lookup(chat.mode) = %q, %v, %v", mode, ok, err)
	}

	if err := b.Remove("chat.mode"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := b.Lookup("chat.mode"); ok {
		t.Error("chat.mode still present after Remove")
	}
}

func TestFileBackendHandEditedValues(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path := filepath.Join(dir, "folio", "config.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	doc := `{"settings": {"server.port": 4200, "log.level": "warn", "chat.debug": true}}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	b := newPlatformBackend()
	if v, ok, err := b.Lookup("server.port"); err != nil || !ok || v != "4200" {
		t.Errorf("Lookup(server.port) = %q, %v, %v", v, ok, err)
	}
	if v, ok, err := b.Lookup("chat.debug"); err != nil || !ok || v != "true" {
		t.Errorf("Lookup(chat.debug) = %q, %v, %v", v, ok, err)
	}

	cfg, err := loadWith(b, "")
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 4200 || cfg.Log.Level != "warn" {
		t.Errorf("Port = %d, Level = %q", cfg.Server.Port, cfg.Log.Level)
	}
}

func TestFileBackendPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if err := SetKey("log.level", "debug"); err != nil {
		t.Fatalf("SetKey: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "folio", "config.json"))
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file mode = %o, want 600", perm)
	}
}

func TestFileBackendSecrets(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	clearEnv(t)

	if err := SetSecret("mail.smtp_password", "app-password"); err != nil {
		t.Fatalf("SetSecret: %v", err)
	}

	b := newPlatformBackend()
	got, ok, err := b.Secret("mail.smtp_password")
	if err != nil || !ok || got != "app-password" {
		t.Errorf("Secret = %q, %v, %v", got, ok, err)
	}
	if _, ok, _ := b.Lookup("mail.smtp_password"); ok {
		t.Error("secret visible as a plain setting")
	}

	cfg, err := loadWith(b, "")
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Mail.SMTPPassword != "app-password" {
		t.Errorf("SMTPPassword = %q", cfg.Mail.SMTPPassword)
	}
}
