// Package main is the entrypoint for the HomeNest listings API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/homenest/homenest/internal/cache"
	"github.com/homenest/homenest/internal/config"
	"github.com/homenest/homenest/internal/handler"
	"github.com/homenest/homenest/internal/identity"
	"github.com/homenest/homenest/internal/metrics"
	"github.com/homenest/homenest/internal/repository"
	"github.com/homenest/homenest/internal/server"
	"github.com/homenest/homenest/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Apply schema migrations
	if cfg.AutoMigrate {
		if err := repository.Migrate(ctx, cfg.DatabaseURL); err != nil {
			logger.Error(
				"failed to apply migrations",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	// Initialize record store
	repo, err := repository.New(ctx, cfg.DatabaseURL, cfg.StoreTimeout)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		repo.Close()
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	// Identity verification
	verifier, err := newVerifier(cfg, cacheClient, logger)
	if err != nil {
		repo.Close()
		_ = cacheClient.Close()
		logger.Error("failed to initialize identity verifier", "error", err)
		os.Exit(1)
	}

	// Initialize services
	recorder := metrics.NewInMemory()
	propertyService := service.NewPropertyService(repo, cacheClient, cfg.FeaturedCacheTTL, recorder, logger)
	ratingService := service.NewRatingService(repo, recorder)
	userService := service.NewUserService(repo, recorder)
	cityService := service.NewCityService(repo, cacheClient, cfg.CitiesCacheTTL, logger)

	// Initialize handlers
	h := handlers{
		root:       handler.New(),
		health:     handler.NewHealthHandler(repo, cacheClient),
		metrics:    handler.NewMetricsHandler(recorder),
		properties: handler.NewPropertyHandler(propertyService, cfg.FeaturedLimit, logger),
		ratings:    handler.NewRatingHandler(ratingService, logger),
		users:      handler.NewUserHandler(userService, logger),
		cities:     handler.NewCityHandler(cityService, logger),
	}

	// Setup router
	r := setupRouter(h, verifier, cacheClient, recorder, cfg, logger)

	// Create and run server
	srv := server.New(r, server.Options{
		Addr:            fmt.Sprintf(":%d", cfg.AppPort),
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"token_format", cfg.TokenFormat,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newVerifier builds the configured token verifier, wrapped with the
// verified-credential cache and the verification timeout.
func newVerifier(cfg *config.Config, cacheClient *cache.Cache, logger *slog.Logger) (identity.Verifier, error) {
	var base identity.Verifier
	switch cfg.TokenFormat {
	case config.TokenFormatPaseto:
		key, err := cfg.PasetoKeyBytes()
		if err != nil {
			return nil, err
		}
		v, err := identity.NewPasetoVerifier(key)
		if err != nil {
			return nil, err
		}
		base = v
	default:
		base = identity.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	}

	cached := identity.NewCachedVerifier(base, cacheClient, cfg.IdentityCacheTTL, logger)
	return identity.WithTimeout(cached, cfg.VerifyTimeout), nil
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
