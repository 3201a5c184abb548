package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oneshotcoding/shotdeck/internal/auth"
	"github.com/oneshotcoding/shotdeck/internal/auth/oauth"
	"github.com/oneshotcoding/shotdeck/internal/config"
	"github.com/oneshotcoding/shotdeck/internal/domain/services"
	"github.com/oneshotcoding/shotdeck/internal/infrastructure/database/postgres"
	"github.com/oneshotcoding/shotdeck/internal/pkg/idgen"
	"github.com/oneshotcoding/shotdeck/internal/pkg/logger"
	"github.com/oneshotcoding/shotdeck/migrations"
	"github.com/oneshotcoding/shotdeck/server/internal/http/handlers"
	"github.com/oneshotcoding/shotdeck/server/internal/http/middleware"
)

// sweepInterval is how often revoked and expired refresh token rows are
// deleted. Rows stop mattering the moment they are revoked or expire;
// the sweep only bounds table growth.
const sweepInterval = time.Hour

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		envFile       string
		nodeID        int64
		logLevel      string
		logFile       string
		logToStderr   bool
		alsoLogStderr bool
		logFormat     string
	)

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Shotdeck auth server",
		Long:  "The OAuth login and session lifecycle server for Shotdeck",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return setupServerLogging(logLevel, logFile, logToStderr, alsoLogStderr, logFormat)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(envFile, nodeID)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to env file (optional, .env is picked up by default)")
	cmd.Flags().Int64Var(&nodeID, "node-id", 1, "Snowflake node ID for this instance")

	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Log file path (if specified, logs to file instead of stderr)")
	cmd.Flags().BoolVar(&logToStderr, "logtostderr", false, "Log to stderr (default behavior unless --log-file specified)")
	cmd.Flags().BoolVar(&alsoLogStderr, "alsologtostderr", false, "Log to both file and stderr")
	cmd.Flags().StringVar(&logFormat, "log-format", "json", "Log format (text, json)")

	return cmd
}

// setupServerLogging configures the global logger for the server
func setupServerLogging(logLevel, logFile string, logToStderr, alsoLogStderr bool, logFormat string) error {
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
		return err
	}

	slog.SetDefault(globalLogger)
	return nil
}

func runServer(envFile string, nodeID int64) error {
	log := slog.Default().With("component", "server")
	log.Info("starting server initialization")

	if err := idgen.Initialize(nodeID); err != nil {
		return fmt.Errorf("failed to initialize ID generator: %w", err)
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Connect to PostgreSQL with retries (for Kubernetes startup)
	var conn *postgres.Connection
	maxRetries := 10
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		conn, err = postgres.NewConnection(cfg.Database.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err == nil {
			log.Info("connected to PostgreSQL")
			break
		}

		if i < maxRetries-1 {
			log.Warn("failed to connect to PostgreSQL",
				"attempt", i+1,
				"max_retries", maxRetries,
				"error", err,
				"retry_delay", retryDelay)
			time.Sleep(retryDelay)
			retryDelay *= 2
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}
		} else {
			return fmt.Errorf("failed to connect to PostgreSQL after %d attempts: %w", maxRetries, err)
		}
	}
	defer conn.Close()

	if err := conn.RunMigrations(migrations.FS); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	userRepo := postgres.NewUserRepository(conn.DB)
	accountRepo := postgres.NewOAuthAccountRepository(conn.DB)
	refreshRepo := postgres.NewRefreshTokenRepository(conn.DB)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.AccessExpiry, cfg.Auth.RefreshExpiry)
	tokenService := services.NewTokenService(jwtManager, refreshRepo)
	identityService := services.NewIdentityService(userRepo, accountRepo)

	registry := oauth.NewRegistry()
	registry.Register(oauth.NewGitHubProvider(cfg.Auth.GitHub))
	registry.Register(oauth.NewTwitterProvider(cfg.Auth.Twitter))
	for _, name := range registry.Names() {
		log.Info("OAuth provider registered", "name", name)
	}
	if !cfg.Auth.GitHub.Configured() && !cfg.Auth.Twitter.Configured() {
		log.Warn("no OAuth provider is configured; every login attempt will fail")
	}

	states := oauth.NewStateStore([]byte(cfg.Auth.StateCookieSecret), cfg.IsProduction())
	guard := middleware.NewSessionGuard(jwtManager, userRepo, slog.Default())
	handler := handlers.New(cfg, registry, states, identityService, tokenService, userRepo, conn.DB, slog.Default())

	router := handler.Routes(guard)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           middleware.LogRequest(slog.Default())(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go runTokenSweeper(ctx, tokenService, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting",
			"address", cfg.ListenAddr,
			"environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// runTokenSweeper periodically deletes expired and revoked refresh token
// rows until the context is canceled.
func runTokenSweeper(ctx context.Context, tokens *services.TokenService, log *slog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := tokens.SweepExpired(ctx)
			if err != nil {
				log.Error("refresh token sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				log.Info("swept stale refresh tokens", "deleted", deleted)
			}
		}
	}
}
