package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/studentaffairs/portal/internal/api"
	"github.com/studentaffairs/portal/internal/api/handlers"
	"github.com/studentaffairs/portal/internal/api/middleware"
	"github.com/studentaffairs/portal/internal/audit"
	"github.com/studentaffairs/portal/internal/auth"
	"github.com/studentaffairs/portal/internal/cache"
	"github.com/studentaffairs/portal/internal/clock"
	"github.com/studentaffairs/portal/internal/config"
	"github.com/studentaffairs/portal/internal/domain/events"
	"github.com/studentaffairs/portal/internal/domain/reminders"
	"github.com/studentaffairs/portal/internal/email"
	"github.com/studentaffairs/portal/internal/metrics"
	"github.com/studentaffairs/portal/internal/storage/blob"
	"github.com/studentaffairs/portal/internal/storage/postgres"
	"github.com/studentaffairs/portal/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server and begin accepting API requests.

Configuration comes from the environment, optionally layered over a YAML
file passed with --config. The server shuts down gracefully on SIGINT or
SIGTERM.

Examples:
  server serve
  server serve --host 127.0.0.1 --port 9090
  server serve --log-level debug --log-format console`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "server port (default: 8080)")
	return cmd
}

func runServer(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Str("environment", cfg.Environment).Msg("starting portal server")

	metrics.Init(Version, GitCommit, BuildDate)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(tctx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	dbCollector := metrics.NewDBCollector(pool)
	go dbCollector.Start(ctx, 15*time.Second)
	defer dbCollector.Stop()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return err
	}

	pageStore, err := cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer func() { _ = pageStore.Close() }()

	deps, err := buildServices(cfg, repo.Events(), pageStore, logger)
	if err != nil {
		return err
	}
	deps.RateLimiter = middleware.NewRateLimiter(cfg.RateLimit, cfg.Environment)
	defer deps.RateLimiter.Stop()

	var cachePinger handlers.Pinger
	if p, ok := pageStore.(handlers.Pinger); ok {
		cachePinger = p
	}
	deps.Health = handlers.NewHealthChecker(repo, cachePinger, Version, GitCommit)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           api.NewRouter(deps),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	return gracefulShutdown(server, logger)
}

// buildServices wires the domain services shared by serve and remind.
func buildServices(cfg config.Config, repo events.Repository, pageStore cache.Cache, logger zerolog.Logger) (api.Deps, error) {
	loc, err := cfg.Portal.Location()
	if err != nil {
		return api.Deps{}, err
	}
	clk := clock.System()

	store := blob.NewClient(cfg.Storage)
	images := events.NewImageResolver(store, cfg.Storage.PlaceholderImage)
	pages := cache.NewPages(pageStore, cfg.Cache.TTL)

	var sender reminders.Sender
	from := email.DefaultFrom(cfg.Server.BaseURL)
	mailer, err := email.NewService(cfg.Email, from, logger)
	switch {
	case errors.Is(err, email.ErrNotConfigured):
		logger.Warn().Msg("RESEND_API_KEY not set; reminders will report resend_not_configured")
	case err != nil:
		return api.Deps{}, fmt.Errorf("email: %w", err)
	default:
		sender = mailer
		from = mailer.From()
	}

	return api.Deps{
		Config: cfg,
		Logger: logger,
		Events: events.NewService(repo, events.ServiceConfig{
			Images:   images,
			Clock:    clk,
			Location: loc,
			Cache:    pages,
			Host:     hostOf(cfg.Server.BaseURL),
		}),
		Admin:     events.NewAdminService(repo, images, store, pages, loc),
		Audit:     audit.NewLogger(logger),
		Reminders: reminders.NewEvaluator(sender, from, clk, loc, logger),
		JWT:       auth.NewJWTManager(cfg.Auth.JWTSecret, time.Hour, cfg.Auth.JWTIssuer),
		Clock:     clk,
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
	}, nil
}

func hostOf(baseURL string) string {
	if u, err := url.Parse(baseURL); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return "localhost"
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
