package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/sujalbistaa/v4ult/internal/auth"
	"github.com/sujalbistaa/v4ult/internal/confession"
	"github.com/sujalbistaa/v4ult/internal/config"
	"github.com/sujalbistaa/v4ult/internal/db"
	routes "github.com/sujalbistaa/v4ult/internal/http"
	"github.com/sujalbistaa/v4ult/internal/identity"
	"github.com/sujalbistaa/v4ult/internal/notify"
	"github.com/sujalbistaa/v4ult/internal/ratelimit"
	"github.com/sujalbistaa/v4ult/internal/toxicity"
	"github.com/sujalbistaa/v4ult/internal/ws"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if cfg.AdminToken == "" {
		return errors.New("V4ULT_ADMIN_TOKEN must be set")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Database
	database, err := db.Open(cfg.DatabaseURL, cfg.LogLevel == "debug")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	logger.Info("running database migrations")
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// 2. Admin live feed
	hub := ws.NewHub()
	go hub.Run()
	defer hub.Stop()

	// 3. Collaborators
	verifier := newVerifier(cfg, logger)
	classifier := toxicity.New(cfg.PerspectiveAPIKey, cfg.PerspectiveAPIURL, cfg.ProviderTimeout, logger)
	notifier, err := newNotifier(cfg, hub, logger)
	if err != nil {
		return err
	}
	limiter, closeLimiter := newLimiter(ctx, cfg, logger)
	defer closeLimiter()

	svc := confession.NewService(db.NewStore(database), verifier, classifier, notifier, confession.Options{
		Prefix: cfg.ShortCodePrefix,
		Price:  confession.Price{Amount: cfg.RevealPrice, Currency: cfg.RevealCurrency},
		Logger: logger,
	})

	// 4. Router
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupRoutes(router, &routes.Env{
		Service: svc,
		Auth:    auth.NewStaticToken(cfg.AdminToken),
		Limiter: limiter,
		Hub:     hub,
		Logger:  logger,
	}, cfg.CORSOrigin)

	// 5. Server with graceful shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server exiting")
	return nil
}

func newVerifier(cfg *config.Config, logger *slog.Logger) identity.Verifier {
	switch {
	case cfg.SupabaseURL != "":
		return identity.NewCached(identity.NewSupabase(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, cfg.ProviderTimeout), cfg.IdentityCacheTTL)
	case cfg.AllowUnverifiedAuthors:
		logger.Warn("identity provider not configured, accepting unverified authors")
		return identity.Passthrough{}
	default:
		logger.Warn("identity provider not configured, submissions will be refused")
		return identity.Deny{}
	}
}

func newNotifier(cfg *config.Config, hub *ws.Hub, logger *slog.Logger) (notify.Notifier, error) {
	targets := notify.Multi{notify.NewHub(hub)}
	discord, err := notify.NewDiscord(cfg.DiscordWebhookID, cfg.DiscordWebhookToken)
	if err != nil {
		return nil, fmt.Errorf("failed to set up discord webhook: %w", err)
	}
	if discord != nil {
		targets = append(targets, discord)
	}
	return notify.NewAsync(targets, cfg.ProviderTimeout, logger), nil
}

// newLimiter prefers Redis when configured and reachable.
func newLimiter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ratelimit.Limiter, func()) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL, using in-memory rate limiter", slog.String("error", err.Error()))
		} else {
			client := redis.NewClient(opts)
			pingCtx, cancel := context.WithTimeout(ctx, cfg.ProviderTimeout)
			err := client.Ping(pingCtx).Err()
			cancel()
			if err == nil {
				return ratelimit.NewRedis(client, "", cfg.PaymentCooldown), func() { client.Close() }
			}
			logger.Error("redis unreachable, using in-memory rate limiter", slog.String("error", err.Error()))
			client.Close()
		}
	}
	mem := ratelimit.NewMemory(cfg.PaymentCooldown)
	go mem.Janitor(ctx, 10*time.Minute)
	return mem, func() {}
}
