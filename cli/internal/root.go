// Package cli implements the shotctl command line interface for the
// shotdeck auth API.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/oneshotcoding/shotdeck/internal/client"
	"github.com/oneshotcoding/shotdeck/internal/pkg/logger"
)

// Global flags
var (
	serverURL string
	tokenFile string

	logLevel      string
	logFile       string
	logToStderr   bool
	alsoLogStderr bool
	logFormat     string
)

// NewRootCommand creates the root cobra command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "shotctl",
		Short:         "CLI for the Shotdeck auth API",
		Long:          "A command line interface for inspecting and managing your Shotdeck session and linked accounts.",
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors (main.go handles it)
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServerURL(),
		"Base URL of the auth API (SHOTDECK_API_URL)")
	rootCmd.PersistentFlags().StringVar(&tokenFile, "token-file", "",
		"Path to the stored token file (default ~/.config/shotdeck/tokens.json)")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"Log file path (if specified, logs to file instead of stderr)")
	rootCmd.PersistentFlags().BoolVar(&logToStderr, "logtostderr", false,
		"Log to stderr (default behavior unless --log-file specified)")
	rootCmd.PersistentFlags().BoolVar(&alsoLogStderr, "alsologtostderr", false,
		"Log to both file and stderr")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"Log format (text, json)")

	rootCmd.AddCommand(newLoginCommand())
	rootCmd.AddCommand(newMeCommand())
	rootCmd.AddCommand(newAccountsCommand())
	rootCmd.AddCommand(newLogoutCommand())
	rootCmd.AddCommand(newLogoutAllCommand())

	return rootCmd
}

func defaultServerURL() string {
	if url := os.Getenv("SHOTDECK_API_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

// newClient builds an API client backed by the file token store
func newClient() (*client.Client, error) {
	store, err := client.NewFileTokenStore(tokenFile)
	if err != nil {
		return nil, err
	}
	return client.New(serverURL, store), nil
}

// setupLogging configures the global logger based on CLI flags
func setupLogging() error {
	if logFile == "" {
		logToStderr = true
	}

	cfg := logger.Config{
		Level:         logger.ParseLevel(logLevel),
		LogFile:       logFile,
		LogToStderr:   logToStderr,
		AlsoLogStderr: alsoLogStderr,
		Format:        logFormat,
	}

	globalLogger, err := logger.SetupLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	slog.SetDefault(globalLogger)
	return nil
}
