//go:build darwin

package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const defaultsDomain = "com.folio.app"

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Library", "Application Support", "folio")
	}
	return "folio-data"
}

// darwinBackend stores settings in UserDefaults and secrets in the login
// Keychain under service "folio".
type darwinBackend struct {
	domain string
}

func newPlatformBackend() Backend {
	return &darwinBackend{domain: defaultsDomain}
}

// run executes name; an exit with missingCode reports found as false.
func run(missingCode int, name string, args ...string) (out string, found bool, err error) {
	raw, err := exec.Command(name, args...).Output()
	out = strings.TrimSpace(string(raw))
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == missingCode {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%s %s: %w", name, args[0], err)
	}
	return out, true, nil
}

func (b *darwinBackend) Lookup(key string) (string, bool, error) {
	return run(1, "defaults", "read", b.domain, key)
}

func (b *darwinBackend) Store(key, val string) error {
	_, _, err := run(-1, "defaults", "write", b.domain, key, "-string", val)
	return err
}

func (b *darwinBackend) Remove(key string) error {
	_, _, err := run(1, "defaults", "delete", b.domain, key)
	return err
}

// security exits 44 when the item does not exist.
func (b *darwinBackend) Secret(key string) (string, bool, error) {
	return run(44, "security", "find-generic-password", "-s", secretService, "-a", secretAccount(key), "-w")
}

func (b *darwinBackend) StoreSecret(key, val string) error {
	_, _, err := run(-1, "security", "add-generic-password", "-U",
		"-s", secretService, "-a", secretAccount(key), "-w", val)
	return err
}
