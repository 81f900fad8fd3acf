package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kDuration
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.host", typ: kString, env: "FOLIO_SERVER_HOST",
		apply:   func(cfg *Config, v any) { cfg.Server.Host = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Host },
	},
	{
		key: "server.port", typ: kInt, env: "FOLIO_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.allowed_origins", typ: kString, env: "FOLIO_SERVER_ALLOWED_ORIGINS",
		apply:   func(cfg *Config, v any) { cfg.Server.AllowedOrigins = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.AllowedOrigins },
	},
	{
		key: "chat.mode", typ: kString, env: "FOLIO_CHAT_MODE",
		apply:   func(cfg *Config, v any) { cfg.Chat.Mode = v.(string) },
		extract: func(cfg Config) any { return cfg.Chat.Mode },
	},
	{
		key: "chat.remote_url", typ: kString, env: "FOLIO_CHAT_REMOTE_URL",
		apply:   func(cfg *Config, v any) { cfg.Chat.RemoteURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Chat.RemoteURL },
	},
	{
		key: "chat.response_field", typ: kString, env: "FOLIO_CHAT_RESPONSE_FIELD",
		apply:   func(cfg *Config, v any) { cfg.Chat.ResponseField = v.(string) },
		extract: func(cfg Config) any { return cfg.Chat.ResponseField },
	},
	{
		key: "chat.timeout", typ: kDuration, env: "FOLIO_CHAT_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Chat.Timeout = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Chat.Timeout },
	},
	{
		key: "profile.path", typ: kString, env: "FOLIO_PROFILE_PATH",
		apply:   func(cfg *Config, v any) { cfg.Profile.Path = v.(string) },
		extract: func(cfg Config) any { return cfg.Profile.Path },
	},
	{
		key: "profile.cache_ttl", typ: kDuration, env: "FOLIO_PROFILE_CACHE_TTL",
		apply:   func(cfg *Config, v any) { cfg.Profile.CacheTTL = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Profile.CacheTTL },
	},
	{
		key: "session.backend", typ: kString, env: "FOLIO_SESSION_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Session.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Session.Backend },
	},
	{
		key: "session.data_dir", typ: kString, env: "FOLIO_SESSION_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Session.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Session.DataDir },
	},
	{
		key: "session.redis_addr", typ: kString, env: "FOLIO_SESSION_REDIS_ADDR",
		apply:   func(cfg *Config, v any) { cfg.Session.RedisAddr = v.(string) },
		extract: func(cfg Config) any { return cfg.Session.RedisAddr },
	},
	{
		key: "session.ttl", typ: kDuration, env: "FOLIO_SESSION_TTL",
		apply:   func(cfg *Config, v any) { cfg.Session.TTL = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Session.TTL },
	},
	{
		key: "mail.provider", typ: kString, env: "FOLIO_MAIL_PROVIDER",
		apply:   func(cfg *Config, v any) { cfg.Mail.Provider = v.(string) },
		extract: func(cfg Config) any { return cfg.Mail.Provider },
	},
	{
		key: "mail.smtp_host", typ: kString, env: "FOLIO_MAIL_SMTP_HOST",
		apply:   func(cfg *Config, v any) { cfg.Mail.SMTPHost = v.(string) },
		extract: func(cfg Config) any { return cfg.Mail.SMTPHost },
	},
	{
		key: "mail.smtp_port", typ: kInt, env: "FOLIO_MAIL_SMTP_PORT",
		apply:   func(cfg *Config, v any) { cfg.Mail.SMTPPort = v.(int) },
		extract: func(cfg Config) any { return cfg.Mail.SMTPPort },
	},
	{
		key: "mail.smtp_user", typ: kString, env: "FOLIO_MAIL_SMTP_USER",
		apply:   func(cfg *Config, v any) { cfg.Mail.SMTPUser = v.(string) },
		extract: func(cfg Config) any { return cfg.Mail.SMTPUser },
	},
	{
		key: "mail.smtp_password", typ: kString, env: "FOLIO_MAIL_SMTP_PASSWORD",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Mail.SMTPPassword = v.(string) },
		extract: func(cfg Config) any { return cfg.Mail.SMTPPassword },
	},
	{
		key: "mail.to", typ: kString, env: "FOLIO_MAIL_TO",
		apply:   func(cfg *Config, v any) { cfg.Mail.To = v.(string) },
		extract: func(cfg Config) any { return cfg.Mail.To },
	},
	{
		key: "mail.emailjs_service_id", typ: kString, env: "FOLIO_MAIL_EMAILJS_SERVICE_ID",
		apply:   func(cfg *Config, v any) { cfg.Mail.EmailJSServiceID = v.(string) },
		extract: func(cfg Config) any { return cfg.Mail.EmailJSServiceID },
	},
	{
		key: "mail.emailjs_template_id", typ: kString, env: "FOLIO_MAIL_EMAILJS_TEMPLATE_ID",
		apply:   func(cfg *Config, v any) { cfg.Mail.EmailJSTemplateID = v.(string) },
		extract: func(cfg Config) any { return cfg.Mail.EmailJSTemplateID },
	},
	{
		key: "mail.emailjs_public_key", typ: kString, env: "FOLIO_MAIL_EMAILJS_PUBLIC_KEY",
		apply:   func(cfg *Config, v any) { cfg.Mail.EmailJSPublicKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Mail.EmailJSPublicKey },
	},
	{
		key: "mail.emailjs_private_key", typ: kString, env: "FOLIO_MAIL_EMAILJS_PRIVATE_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Mail.EmailJSPrivateKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Mail.EmailJSPrivateKey },
	},
	{
		key: "log.level", typ: kString, env: "FOLIO_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

// parse converts raw into the value apply expects.
func (s keySpec) parse(raw string) (any, error) {
	switch s.typ {
	case kInt:
		i, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid integer value for %s: %w", s.key, err)
		}
		return i, nil
	case kDuration:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid duration value for %s: %w", s.key, err)
		}
		return d, nil
	}
	return raw, nil
}

func lookupSpec(key string) (keySpec, bool) {
	for _, s := range specs {
		if s.key == key {
			return s, true
		}
	}
	return keySpec{}, false
}

// applyRaw sets s from raw. Values that do not parse keep the current
// setting and are reported on stderr.
func applyRaw(cfg *Config, s keySpec, raw, source string) {
	v, err := s.parse(raw)
	if err != nil {
		slog.Warn("ignoring config value", "source", source, "error", err)
		return
	}
	s.apply(cfg, v)
}

func applyBackend(cfg *Config, b Backend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		raw, ok, err := b.Lookup(s.key)
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
		if ok && raw != "" {
			applyRaw(cfg, s, raw, "backend")
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if raw := os.Getenv(s.env); raw != "" {
			applyRaw(cfg, s, raw, s.env)
		}
	}
}

// applySecrets fills secrets still empty after the environment from the
// backend's secret store. Lookup failures leave the secret unset.
func applySecrets(cfg *Config, b Backend) {
	for _, s := range specs {
		if !s.secret || s.extract(*cfg).(string) != "" {
			continue
		}
		v, ok, err := b.Secret(s.key)
		if err != nil {
			slog.Debug("secret store unavailable", "key", s.key, "error", err)
			continue
		}
		if ok {
			s.apply(cfg, strings.TrimSpace(v))
		}
	}
}
