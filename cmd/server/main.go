package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/yatube/backend/internal/auth"
	"github.com/anonto42/yatube/backend/internal/cache"
	"github.com/anonto42/yatube/backend/internal/events"
	"github.com/anonto42/yatube/backend/internal/mailer"
	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/internal/router"
	"github.com/anonto42/yatube/backend/internal/storage"
	"github.com/anonto42/yatube/backend/pkg/config"
	"github.com/anonto42/yatube/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens, err := auth.NewTokenService(cfg.SecretKey, cfg.SessionTTL)
	if err != nil {
		return err
	}

	deps := router.Dependencies{
		DB:            db.Postgres,
		Tokens:        tokens,
		Passwords:     auth.NewPasswordHasher(bcrypt.DefaultCost),
		IndexCache:    cache.NoopCache{},
		Publisher:     events.NoopPublisher{},
		Mailer:        mailer.NewLogMailer(logger),
		LoginLimiter:  middleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst),
		SiteURL:       cfg.SiteURL,
		SecureCookies: !cfg.IsDevelopment(),
	}

	if db.Mongo != nil {
		deps.Media, err = storage.NewGridFSStorage(db.Mongo.Database(cfg.MongoDatabase))
	} else {
		deps.Media, err = storage.NewFileSystemStorage(cfg.MediaRoot)
	}
	if err != nil {
		return err
	}
	if db.Redis != nil && cfg.IndexCacheTTL > 0 {
		deps.IndexCache = cache.NewRedisCache(db.Redis, cache.IndexKey, cfg.IndexCacheTTL)
	}
	if db.Nats != nil {
		deps.Publisher = events.NewNatsPublisher(db.Nats)
	}
	if cfg.SendGridAPIKey != "" {
		deps.Mailer = mailer.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFrom)
	}

	// Firebase login is only offered when credentials are configured
	if cfg.FirebaseCredentialsPath != "" {
		authClient, err := firebase.NewAuthClient(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			return err
		}
		deps.FirebaseAuth = authClient
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Setup global middleware
	config.SetupMiddleware(e, logger)

	// Setup routes and dependencies
	if err := router.SetupRoutes(e, deps); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
