package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sayeesx/folio/internal/api"
	"github.com/sayeesx/folio/internal/composer"
	"github.com/sayeesx/folio/internal/config"
	"github.com/sayeesx/folio/internal/intent"
	"github.com/sayeesx/folio/internal/mailer"
	"github.com/sayeesx/folio/internal/pipeline"
	"github.com/sayeesx/folio/internal/profile"
	"github.com/sayeesx/folio/internal/proxy"
	"github.com/sayeesx/folio/internal/session"
	"github.com/sayeesx/folio/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the folio server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running folio server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show folio status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "folio.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func setupLogging(level string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

// services holds everything a chat front end needs.
type services struct {
	profiles   *profile.Manager
	classifier *intent.Classifier
	responder  *pipeline.Responder
}

// buildServices wires the profile, classifier and responder from cfg.
func buildServices(cfg config.Config) (*services, error) {
	mode, err := pipeline.ParseMode(cfg.Chat.Mode)
	if err != nil {
		return nil, err
	}

	var src profile.Source = profile.StaticSource{Profile: profile.Default()}
	if cfg.Profile.Path != "" {
		src = profile.FileSource{Path: cfg.Profile.Path}
	}
	profiles := profile.NewManagerWithClock(src, nil, cfg.Profile.CacheTTL)

	classifier := intent.New(composer.New(composer.NewPicker(nil)), nil)

	var remote pipeline.RemoteChatter
	if cfg.Chat.RemoteURL != "" {
		remote = proxy.NewClient(cfg.Chat.RemoteURL,
			proxy.WithResponseField(cfg.Chat.ResponseField),
			proxy.WithTimeout(cfg.Chat.Timeout),
		)
	}

	return &services{
		profiles:   profiles,
		classifier: classifier,
		responder:  pipeline.NewResponder(mode, classifier, profiles, remote),
	}, nil
}

// openSessionStore returns the configured session store and a function that
// releases its resources.
func openSessionStore(cfg config.SessionConfig) (session.Store, func() error, error) {
	switch cfg.Backend {
	case "", "memory":
		return session.NewMemoryStore(), func() error { return nil }, nil
	case "sqlite":
		db, err := storage.Open(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening storage: %w", err)
		}
		return session.NewSQLiteStore(db), db.Close, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return session.NewRedisStore(client, "folio", cfg.TTL), client.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
}

func newMailer(cfg config.MailConfig) (mailer.Sender, error) {
	return mailer.New(mailer.Config{
		Provider: cfg.Provider,
		SMTP: mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			To:       cfg.To,
		},
		EmailJS: mailer.EmailJSConfig{
			ServiceID:  cfg.EmailJSServiceID,
			TemplateID: cfg.EmailJSTemplateID,
			PublicKey:  cfg.EmailJSPublicKey,
			PrivateKey: cfg.EmailJSPrivateKey,
		},
	})
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "folio version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	// Refuse to start twice. The health endpoint is the source of truth, the
	// PID file only improves the message.
	pidPath := pidFilePath(cfg.Session.DataDir)
	healthCtx, cancelHealth := context.WithTimeout(context.Background(), 2*time.Second)
	resp, err := apiClientFor(cfg, 2*time.Second).get(healthCtx, "/health")
	cancelHealth()
	if err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("folio is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("folio is already running on %s", cfg.Server.Addr())
		return fmt.Errorf("server already running on %s", cfg.Server.Addr())
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}

	store, closeStore, err := openSessionStore(cfg.Session)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing session store: %v\n", err)
		}
	}()
	sessions := session.NewManager(store, svc.profiles)

	mail, err := newMailer(cfg.Mail)
	if err != nil {
		return err
	}

	handler := api.NewHandler(api.Deps{
		Profiles:       svc.profiles,
		Responder:      svc.responder,
		Sessions:       sessions,
		Mailer:         mail,
		AllowedOrigins: cfg.Server.Origins(),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("chat responder ready",
		"mode", svc.responder.Mode(),
		"remote_url", cfg.Chat.RemoteURL,
		"session_backend", cfg.Session.Backend,
		"mail_provider", cfg.Mail.Provider,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fmt.Fprintf(os.Stderr, "folio listening on %s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if cfg.Profile.Path != "" {
		g.Go(func() error {
			if err := svc.profiles.Watch(gctx, cfg.Profile.Path); err != nil {
				slog.Warn("profile watcher stopped", "path", cfg.Profile.Path, "error", err)
			}
			return nil
		})
	}

	if purger, ok := store.(session.Purger); ok {
		sweeper := session.NewSweeper(purger, cfg.Session.TTL, 0)
		g.Go(func() error {
			sweeper.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Session.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("folio is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop folio (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to folio (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	printStatus("Server", "%s", serverState(ctx, apiClientFor(cfg, 2*time.Second), cfg.Server.Addr()))
	printStatus("Mode", "%s", cfg.Chat.Mode)
	if cfg.Chat.RemoteURL != "" {
		printStatus("Remote", "%s", cfg.Chat.RemoteURL)
	}
	profilePath := cfg.Profile.Path
	if profilePath == "" {
		profilePath = "built-in"
	}
	printStatus("Profile", "%s", profilePath)
	printStatus("Sessions", "%s", sessionLabel(cfg.Session))
	if n, ok := storedSessions(ctx, cfg.Session); ok {
		printStatus("Stored", "%d sessions", n)
	}
	printStatus("Mail", "%s", cfg.Mail.Provider)
	printStatus("Data dir", "%s", cfg.Session.DataDir)
	return nil
}

// serverState checks /health and describes the result for status output.
func serverState(ctx context.Context, c *apiClient, addr string) string {
	resp, err := c.get(ctx, "/health")
	if err != nil {
		return "stopped"
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("error (HTTP %d)", resp.StatusCode)
	}
	return "running on " + addr
}

// storedSessions counts sessions in an existing sqlite database. It never
// creates one.
func storedSessions(ctx context.Context, cfg config.SessionConfig) (int, bool) {
	if cfg.Backend != "sqlite" {
		return 0, false
	}
	if _, err := os.Stat(filepath.Join(cfg.DataDir, storage.FileName)); err != nil {
		return 0, false
	}
	db, err := storage.Open(cfg.DataDir)
	if err != nil {
		slog.Debug("opening session database", "error", err)
		return 0, false
	}
	defer db.Close()

	n, err := db.CountSessions(ctx)
	if err != nil {
		slog.Debug("counting sessions", "error", err)
		return 0, false
	}
	return n, true
}

func sessionLabel(cfg config.SessionConfig) string {
	switch cfg.Backend {
	case "redis":
		return fmt.Sprintf("redis at %s (ttl %s)", cfg.RedisAddr, cfg.TTL)
	case "sqlite":
		return fmt.Sprintf("sqlite in %s (ttl %s)", cfg.DataDir, cfg.TTL)
	}
	return fmt.Sprintf("memory (ttl %s)", cfg.TTL)
}
