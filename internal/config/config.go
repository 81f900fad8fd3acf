package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Chat    ChatConfig
	Profile ProfileConfig
	Session SessionConfig
	Mail    MailConfig
	Log     LogConfig
}

type ServerConfig struct {
	Host string
	Port int

	// AllowedOrigins is a comma-separated CORS allow list. "*" allows any.
	AllowedOrigins string
}

// Origins splits AllowedOrigins into trimmed, non-empty entries.
func (s ServerConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(s.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type ChatConfig struct {
	Mode          string
	RemoteURL     string
	ResponseField string
	Timeout       time.Duration
}

type ProfileConfig struct {
	// Path to a profile YAML document. Empty uses the built-in profile.
	Path     string
	CacheTTL time.Duration
}

type SessionConfig struct {
	Backend   string
	DataDir   string
	RedisAddr string
	TTL       time.Duration
}

type MailConfig struct {
	Provider          string
	SMTPHost          string
	SMTPPort          int
	SMTPUser          string
	SMTPPassword      string
	To                string
	EmailJSServiceID  string
	EmailJSTemplateID string
	EmailJSPublicKey  string
	EmailJSPrivateKey string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 4000,
		},
		Chat: ChatConfig{
			Mode:          "local",
			ResponseField: "response",
			Timeout:       15 * time.Second,
		},
		Profile: ProfileConfig{
			CacheTTL: time.Minute,
		},
		Session: SessionConfig{
			Backend:   "memory",
			DataDir:   defaultDataDir(),
			RedisAddr: "localhost:6379",
			TTL:       24 * time.Hour,
		},
		Mail: MailConfig{
			Provider: "none",
			SMTPPort: 587,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform backend, a .env file in the
// working directory, environment variables, and the platform secret store.
//
// On macOS settings live in UserDefaults (domain: com.folio.app) and secrets
// in the login Keychain (service: folio). Elsewhere both live in
// $XDG_CONFIG_HOME/folio/config.json, under "settings" and "secrets".
//
// Environment variables (FOLIO_*) override backend values on all platforms.
// Variables from .env never override ones already set in the environment.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), ".env")
}

func loadWith(b Backend, dotenvPath string) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", dotenvPath, err)
		}
	}

	applyEnvOverrides(&cfg)
	applySecrets(&cfg, b)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	var problems []string

	switch c.Chat.Mode {
	case "local":
	case "remote", "hybrid":
		if c.Chat.RemoteURL == "" {
			problems = append(problems, fmt.Sprintf(
				"chat.mode %q needs chat.remote_url (set FOLIO_CHAT_REMOTE_URL)", c.Chat.Mode))
		}
	default:
		problems = append(problems, fmt.Sprintf("chat.mode %q is not one of local, remote, hybrid", c.Chat.Mode))
	}

	switch c.Session.Backend {
	case "memory", "sqlite", "redis":
	default:
		problems = append(problems, fmt.Sprintf("session.backend %q is not one of memory, sqlite, redis", c.Session.Backend))
	}

	switch c.Mail.Provider {
	case "none", "":
	case "smtp":
		if c.Mail.SMTPHost == "" || c.Mail.SMTPUser == "" {
			problems = append(problems, "mail.provider smtp needs mail.smtp_host and mail.smtp_user")
		}
	case "emailjs":
		if c.Mail.EmailJSServiceID == "" || c.Mail.EmailJSTemplateID == "" || c.Mail.EmailJSPublicKey == "" {
			problems = append(problems, "mail.provider emailjs needs the service id, template id and public key")
		}
	default:
		problems = append(problems, fmt.Sprintf("mail.provider %q is not one of none, smtp, emailjs", c.Mail.Provider))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Chat.Timeout <= 0 {
		problems = append(problems, "chat.timeout must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

const secretService = "folio"

// secretAccount maps "mail.smtp_password" to "smtp_password".
func secretAccount(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		return key[i+1:]
	}
	return key
}
