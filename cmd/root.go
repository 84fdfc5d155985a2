package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/counterdeskhq/counterdesk/engine"
)

var (
	verbose      bool
	apiBaseURL   string
	clientID     string
	clientSecret string
	sessionFile  string
	Logger       *slog.Logger

	rootCmd = &cobra.Command{
		Use:   "counterdesk",
		Short: "A terminal back-office client for persons and transactions",
		Long: `Counterdesk is a terminal user interface for the retail back-office
API. It provides authenticated list views over customers and
transactions with per-field filtering, column sorting and pagination,
gated by role-based permissions.`,
		Example: `  counterdesk
  counterdesk --api https://apidev.example.com/v1
  counterdesk -v`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogger()
		},
		RunE: runCounterdesk,
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api", envOr("COUNTERDESK_API", "http://localhost:9711"), "Base URL of the back-office API")
	rootCmd.PersistentFlags().StringVar(&clientID, "client-id", envOr("COUNTERDESK_CLIENT_ID", "2"), "OAuth client id for the password grant")
	rootCmd.PersistentFlags().StringVar(&clientSecret, "client-secret", envOr("COUNTERDESK_CLIENT_SECRET", "demo-secret"), "OAuth client secret for the password grant")
	rootCmd.PersistentFlags().StringVar(&sessionFile, "session-file", "", "Path of the persisted session store (defaults to the user config dir)")

	// will be reconfigured in PersistentPreRun based on flags
	setupLogger()
}

func runCounterdesk(cmd *cobra.Command, args []string) error {
	if err := LaunchTUI(); err != nil {
		return fmt.Errorf("failed to launch TUI: %w", err)
	}
	return nil
}

// setupLogger configures the global slog logger based on the verbose flag
func setupLogger() {
	var opts *slog.HandlerOptions

	if verbose {
		opts = &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		}
	} else {
		opts = &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	Logger = slog.New(handler)
	slog.SetDefault(Logger)

	if verbose {
		Logger.Debug("verbose logging enabled",
			"level", slog.LevelDebug.String(),
			"pid", os.Getpid())
	}
}

// GetLogger returns the global logger instance
func GetLogger() *slog.Logger {
	if Logger == nil {
		setupLogger()
	}
	return Logger
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// openSessionStore resolves the session store path and opens it.
func openSessionStore() (engine.Store, error) {
	path := sessionFile
	if path == "" {
		var err error
		path, err = engine.DefaultStorePath()
		if err != nil {
			return nil, err
		}
	}
	return engine.NewFileStore(path)
}

// newAPIClient builds the API client from the global flags.
func newAPIClient(logger *slog.Logger) *engine.Client {
	return engine.NewClient(engine.ClientConfig{
		BaseURL:      apiBaseURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Timeout:      10 * time.Second,
		CacheTTL:     engine.DefaultCacheTTL,
		Logger:       logger,
	})
}
