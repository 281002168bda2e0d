package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vipudev/vipudev/internal/api"
	"github.com/vipudev/vipudev/internal/assistant"
	"github.com/vipudev/vipudev/internal/auth"
	"github.com/vipudev/vipudev/internal/config"
	"github.com/vipudev/vipudev/internal/database"
	"github.com/vipudev/vipudev/internal/log"
	"github.com/vipudev/vipudev/internal/metrics"
	"github.com/vipudev/vipudev/internal/sandbox"
	"github.com/vipudev/vipudev/internal/store"
)

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute // container runs can take the full sandbox window
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// runServe initializes and starts the HTTP API server.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.Config{Level: cfg.SlogLevel(), JSON: cfg.LogJSON})
	logger.Info("starting HTTP API server", "version", Version)

	if err := database.Migrate(cfg.PostgresURL()); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	pool, err := database.Open(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	records := store.New(pool, logger)

	tokens := auth.NewMemoryTokenStore(cfg.TokenExpiry())
	creds := auth.NewCredentials(cfg.AdminUsername, cfg.AdminPassword)

	client := assistant.New(assistant.Config{
		APIKey:     cfg.OpenAIAPIKey,
		ChatModel:  cfg.OpenAIChatModel,
		ImageModel: cfg.OpenAIImageModel,
	}, records, logger)

	runner := sandbox.New(sandbox.Config{
		DockerBinary:   cfg.DockerBinary,
		RunTimeout:     cfg.RunTimeout(),
		ProjectTimeout: cfg.ProjectTimeout(),
		MemoryLimit:    cfg.SandboxMemoryLimit,
		CPULimit:       cfg.SandboxCPULimit,
	}, logger)

	apiServer, err := api.NewServer(api.ServerConfig{
		Logger:      logger,
		Credentials: creds,
		Tokens:      tokens,
		Projects:    records,
		Chat:        records,
		Executions:  records,
		Config:      records,
		Assistant:   client,
		Runner:      runner,
		Metrics:     metrics.New(tokens.Len),
		Pool:        pool,
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
		RateBurst:   cfg.RateBurst,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("HTTP server ready",
		"addr", cfg.ServerAddr(),
		"api", "/api/*",
		"health", "/health, /ready",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server: %w", err)
	}
}
