package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/sayeesx/folio/internal/api"
	"github.com/sayeesx/folio/internal/config"
	"github.com/sayeesx/folio/internal/mailer"
	"github.com/sayeesx/folio/internal/pipeline"
	"github.com/sayeesx/folio/internal/profile"
)

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <message...>",
	Short: "Ask the assistant a question",
	Long: `Ask the assistant a question.

By default the message is answered in-process using the configured mode and
profile. With --server it is sent to a running folio server instead.

Examples:
  folio ask "what are your skills?"
  folio ask --server --session 3f1c... "tell me about your projects"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		msg := strings.TrimSpace(strings.Join(args, " "))
		if msg == "" {
			return errors.New("message is required")
		}
		useServer, _ := cmd.Flags().GetBool("server")
		sessionID, _ := cmd.Flags().GetString("session")
		asJSON, _ := cmd.Flags().GetBool("json")

		var reply pipeline.Reply
		if useServer {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			resp, err := askServer(cmd.Context(), client, msg, sessionID)
			if err != nil {
				return err
			}
			reply = resp.Reply
		} else {
			if sessionID != "" {
				return errors.New("--session requires --server")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			setupLogging("warn")
			svc, err := buildServices(cfg)
			if err != nil {
				return err
			}
			reply = svc.responder.Respond(cmd.Context(), msg)
		}

		return writeReply(os.Stdout, reply, asJSON)
	},
}

func init() {
	askCmd.Flags().Bool("server", false, "send the message to the running server")
	askCmd.Flags().String("session", "", "session to record the exchange in (requires --server)")
	askCmd.Flags().Bool("json", false, "print the full reply as JSON")
}

func askServer(ctx context.Context, client *apiClient, msg, sessionID string) (api.ChatResponse, error) {
	var out api.ChatResponse
	resp, err := client.post(ctx, "/api/chat", api.ChatRequest{Message: msg, SessionID: sessionID})
	if err != nil {
		return out, err
	}
	if err := decodeJSON(resp, &out); err != nil {
		return out, err
	}
	return out, nil
}

func writeReply(w io.Writer, reply pipeline.Reply, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reply)
	}
	path := ""
	if reply.Action != nil {
		path = reply.Action.Path
	}
	fmt.Fprintln(w, reply.Text)
	meta := colorize(colorCyan, "["+reply.Category+"]")
	if path != "" {
		meta += " " + colorize(colorCyan, "→ "+path)
	}
	fmt.Fprintln(os.Stderr, meta)
	return nil
}

// --- contact ---

var contactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Send a contact-form message through the running server",
	Long: `Send a contact-form message through the running server.

Example:
  folio contact --name Ada --email ada@example.com --message "Loved the site"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		message, _ := cmd.Flags().GetString("message")

		msg := mailer.Message{Name: name, Email: email, Message: message}
		if err := msg.Validate(); err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		result, err := submitContact(cmd.Context(), client, msg)
		if err != nil {
			return err
		}
		if result.Status != "sent" {
			printError("%s", result.Notice)
			return errors.New("message not delivered")
		}
		printSuccess("%s", result.Notice)
		return nil
	},
}

func init() {
	contactCmd.Flags().String("name", "", "your name")
	contactCmd.Flags().String("email", "", "your email address")
	contactCmd.Flags().String("message", "", "the message to send")
}

// submitContact posts msg to the server. A delivery failure is reported in
// the result, not as an error.
func submitContact(ctx context.Context, client *apiClient, msg mailer.Message) (api.ContactResponse, error) {
	var out api.ContactResponse
	resp, err := client.post(ctx, "/api/contact", msg)
	if err != nil {
		return out, err
	}
	if resp.StatusCode == http.StatusBadGateway {
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return out, fmt.Errorf("decoding response: %w", err)
		}
		return out, nil
	}
	if err := decodeJSON(resp, &out); err != nil {
		return out, err
	}
	return out, nil
}

// --- mcp ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the assistant over MCP on stdin/stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		// stdout carries the protocol; logs stay on stderr.
		setupLogging(cfg.Log.Level)

		svc, err := buildServices(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Profile.Path != "" {
			go func() {
				if err := svc.profiles.Watch(ctx, cfg.Profile.Path); err != nil {
					fmt.Fprintf(os.Stderr, "warning: profile watcher stopped: %v\n", err)
				}
			}()
		}

		mcpSrv := api.NewMCPServer(api.MCPDeps{
			Profiles:  svc.profiles,
			Responder: svc.responder,
			Topics:    svc.classifier.Topics(),
			Version:   version,
		})
		err = server.NewStdioServer(mcpSrv).Listen(ctx, os.Stdin, os.Stdout)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect and manage the portfolio profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		p, err := loadProfile(cfg.Profile.Path)
		if err != nil {
			return err
		}

		if summary, _ := cmd.Flags().GetBool("summary"); summary {
			fmt.Println(profile.Summarize(p))
			return nil
		}

		out, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var profileValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check a profile document for problems",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			path = cfg.Profile.Path
		}
		if path == "" {
			printWarning("no profile.path configured, checking the built-in profile")
		}

		if _, err := loadProfile(path); err != nil {
			var verr *profile.ValidationError
			if errors.As(err, &verr) {
				for _, p := range verr.Problems {
					printError("%s", p)
				}
				return fmt.Errorf("%d problem(s) found", len(verr.Problems))
			}
			return err
		}
		printSuccess("Profile is valid")
		return nil
	},
}

var profileInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write the built-in profile to a file as a starting point",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		force, _ := cmd.Flags().GetBool("force")
		if err := writeDefaultProfile(path, force); err != nil {
			return err
		}
		printSuccess("Wrote %s", path)
		fmt.Fprintf(os.Stderr, "  use it with: folio config set profile.path %s\n", path)
		return nil
	},
}

func init() {
	profileShowCmd.Flags().Bool("summary", false, "print a one-paragraph summary instead of JSON")
	profileInitCmd.Flags().Bool("force", false, "overwrite an existing file")
	profileCmd.AddCommand(profileShowCmd, profileValidateCmd, profileInitCmd)
}

// loadProfile reads and validates the profile at path, or the built-in
// profile when path is empty.
func loadProfile(path string) (profile.Profile, error) {
	if path == "" {
		p := profile.Default()
		return p, p.Validate()
	}
	p, err := profile.LoadFile(path)
	if err != nil {
		return profile.Profile{}, err
	}
	return p, p.Validate()
}

func writeDefaultProfile(path string, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		return err
	}
	if _, err := f.Write(profile.DefaultYAML()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value in the platform config store.\n\nKeys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

var configSetSecretCmd = &cobra.Command{
	Use:   "set-secret <key>",
	Short: "Store a secret in the platform secret store",
	Long: `Store a secret in the platform secret store.

The value is read from the first line of stdin so it never appears in shell
history. Secret keys: ` + strings.Join(config.SecretKeys(), ", "),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		value, err := readSecret(cmd.InOrStdin())
		if err != nil {
			return err
		}
		if err := config.SetSecret(key, value); err != nil {
			return err
		}
		printSuccess("Stored %s", key)
		return nil
	},
}

func readSecret(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	line, _, _ := strings.Cut(string(data), "\n")
	line = strings.TrimRight(line, "\r")
	if line == "" {
		return "", errors.New("secret must not be empty")
	}
	return line, nil
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configUnsetCmd, configSetSecretCmd)
}
