//go:build !darwin

package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

func defaultDataDir() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "folio")
}

func configFilePath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "folio", "config.json")
}

// xdgDir returns $env, falling back to $HOME/<rel...> and finally ".".
func xdgDir(env string, rel ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(append([]string{home}, rel...)...)
}

// configDoc is the on-disk layout. Settings may be hand-edited, so numbers
// and booleans are accepted alongside strings.
type configDoc struct {
	Settings map[string]any    `json:"settings"`
	Secrets  map[string]string `json:"secrets,omitempty"`
}

// fileBackend keeps settings and secrets in one JSON document readable only
// by the owner.
type fileBackend struct {
	path string
	doc  configDoc
}

func newPlatformBackend() Backend {
	b := &fileBackend{path: configFilePath()}
	if err := b.load(); err != nil {
		slog.Warn("config file ignored, using defaults", "path", b.path, "error", err)
	}
	return b
}

func (b *fileBackend) load() error {
	b.doc = configDoc{Settings: map[string]any{}, Secrets: map[string]string{}}
	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	var doc configDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing: %w", err)
	}
	if doc.Settings != nil {
		b.doc.Settings = doc.Settings
	}
	if doc.Secrets != nil {
		b.doc.Secrets = doc.Secrets
	}
	return nil
}

// save replaces the document atomically.
func (b *fileBackend) save() error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := json.MarshalIndent(b.doc, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(b.path), ".config-*.json")
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), b.path)
}

func (b *fileBackend) Lookup(key string) (string, bool, error) {
	v, ok := b.doc.Settings[key]
	if !ok {
		return "", false, nil
	}
	switch val := v.(type) {
	case string:
		return val, true, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true, nil
	case bool:
		return strconv.FormatBool(val), true, nil
	}
	return "", true, fmt.Errorf("%s: unsupported value %v", key, v)
}

func (b *fileBackend) Store(key, val string) error {
	b.doc.Settings[key] = val
	return b.save()
}

func (b *fileBackend) Remove(key string) error {
	delete(b.doc.Settings, key)
	return b.save()
}

func (b *fileBackend) Secret(key string) (string, bool, error) {
	v, ok := b.doc.Secrets[key]
	return v, ok && v != "", nil
}

func (b *fileBackend) StoreSecret(key, val string) error {
	b.doc.Secrets[key] = val
	return b.save()
}
