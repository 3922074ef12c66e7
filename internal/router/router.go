package router

import (
	"fmt"
	"log/slog"

	"github.com/anonto42/yatube/backend/internal/auth"
	"github.com/anonto42/yatube/backend/internal/cache"
	"github.com/anonto42/yatube/backend/internal/events"
	"github.com/anonto42/yatube/backend/internal/handlers"
	"github.com/anonto42/yatube/backend/internal/mailer"
	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/internal/render"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/anonto42/yatube/backend/internal/storage"
	"github.com/anonto42/yatube/backend/validators"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Dependencies are the stores and services the routes are wired to.
// Optional integrations may be left nil.
type Dependencies struct {
	DB        *gorm.DB
	Media     storage.MediaStorage
	Tokens    *auth.TokenService
	Passwords *auth.PasswordHasher

	IndexCache   cache.PageCache
	Publisher    events.Publisher
	Mailer       mailer.Mailer
	FirebaseAuth middleware.IDTokenVerifier
	LoginLimiter *middleware.RateLimiter
	Renderer     echo.Renderer

	SiteURL       string
	SecureCookies bool
}

// SetupRoutes migrates the schema, builds repositories and handlers, and
// registers every route on e.
func SetupRoutes(e *echo.Echo, deps Dependencies) error {
	if err := repositories.AutoMigrate(deps.DB); err != nil {
		return fmt.Errorf("auto migrating models: %w", err)
	}
	slog.Info("database auto-migrations completed")

	if deps.Renderer == nil {
		renderer, err := render.New()
		if err != nil {
			return err
		}
		deps.Renderer = renderer
	}
	if deps.Mailer == nil {
		deps.Mailer = mailer.NewLogMailer(nil)
	}
	if deps.LoginLimiter == nil {
		deps.LoginLimiter = middleware.NewRateLimiter(0, 1)
	}
	e.Renderer = deps.Renderer
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler(e)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.DB)
	groupRepo := repositories.NewPostgresGroupRepository(deps.DB)
	postRepo := repositories.NewPostgresPostRepository(deps.DB)
	commentRepo := repositories.NewPostgresCommentRepository(deps.DB)
	followRepo := repositories.NewPostgresFollowRepository(deps.DB)

	e.Use(middleware.SessionMiddleware(deps.Tokens, userRepo))

	e.GET("/health", handlers.HealthCheck(deps.DB))
	handlers.RegisterAboutRoutes(e)

	authHandler := handlers.NewAuthHandler(userRepo, deps.Tokens, deps.Passwords, deps.Mailer, handlers.AuthOptions{
		SiteURL:       deps.SiteURL,
		SecureCookies: deps.SecureCookies,
		FirebaseAuth:  deps.FirebaseAuth,
	})
	authHandler.RegisterAuthRoutes(e.Group("/auth"), deps.LoginLimiter.Middleware())
	slog.Info("auth routes configured", "firebase", deps.FirebaseAuth != nil)

	feedHandler := handlers.NewFeedHandler(postRepo, groupRepo, followRepo, deps.IndexCache)
	feedHandler.RegisterFeedRoutes(e)

	userHandler := handlers.NewUserHandler(userRepo, postRepo, followRepo)
	userHandler.RegisterProfileRoutes(e)

	postHandler := handlers.NewPostHandler(postRepo, groupRepo, commentRepo, deps.Media, deps.IndexCache, deps.Publisher)
	postHandler.RegisterPostRoutes(e)

	commentHandler := handlers.NewCommentHandler(commentRepo, postRepo, deps.Publisher)
	commentHandler.RegisterCommentRoutes(e)

	followHandler := handlers.NewFollowHandler(followRepo, userRepo, deps.Publisher)
	followHandler.RegisterFollowRoutes(e)

	mediaHandler := handlers.NewMediaHandler(deps.Media)
	mediaHandler.RegisterMediaRoutes(e)

	slog.Info("all routes configured")
	return nil
}
