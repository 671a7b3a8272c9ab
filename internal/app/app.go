package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/precisesoft/ConnectKit-sub000/internal/cache"
	"github.com/precisesoft/ConnectKit-sub000/internal/config"
	"github.com/precisesoft/ConnectKit-sub000/internal/domain"
	"github.com/precisesoft/ConnectKit-sub000/internal/email"
	"github.com/precisesoft/ConnectKit-sub000/internal/handler"
	"github.com/precisesoft/ConnectKit-sub000/internal/repository"
	"github.com/precisesoft/ConnectKit-sub000/internal/service"
	"github.com/precisesoft/ConnectKit-sub000/internal/token"
	"github.com/precisesoft/ConnectKit-sub000/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra   Infrastructure
	config  *config.Config
	router  *gin.Engine
	server  *http.Server
	cleaner *service.Cleaner
}

func NewApp(infra Infrastructure, cfg *config.Config) (*App, error) {
	repos := repository.NewRepositories(infra.Postgres())

	tokenManager := token.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry.Duration,
		cfg.JWT.RefreshTokenExpiry.Duration,
	)

	metrics, err := observability.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	sessions := cache.NewSessionStore(infra.Redis())
	contactCache := cache.NewContactCache(infra.Redis())
	rateLimiter := service.NewRateLimiter(
		infra.Redis(),
		service.FailMode(cfg.Security.RateLimitFailMode),
		metrics,
		infra.Logger(),
	)
	healthChecker := NewHealthChecker(infra)

	var sender email.Sender
	if cfg.SMTP.Enabled() {
		sender = email.NewSMTPSender(cfg.SMTP)
	} else {
		sender = email.NewLogSender(infra.Logger())
	}

	authService := service.NewAuthService(
		repos.User,
		sessions,
		tokenManager,
		sender,
		metrics,
		infra.Logger(),
		cfg.Security,
	)
	contactService := service.NewContactService(repos.Contact, contactCache, infra.Logger())
	userService := service.NewUserService(repos.User, sessions, infra.Logger())

	authHandler := handler.NewAuthHandler(authService)
	contactHandler := handler.NewContactHandler(contactService)
	userHandler := handler.NewUserHandler(userService)

	router := gin.Default()
	router.Use(otelgin.Middleware("connectkit"))
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, cfg, authHandler, contactHandler, userHandler, authService, rateLimiter, healthChecker, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:   infra,
		config:  cfg,
		router:  router,
		server:  srv,
		cleaner: service.NewCleaner(authService, cfg.Security.CleanupInterval.Duration, infra.Logger()),
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	contactHandler *handler.ContactHandler,
	userHandler *handler.UserHandler,
	authService service.AuthService,
	rateLimiter *service.RateLimiter,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
) {
	limit := func(action string) gin.HandlerFunc {
		return handler.RateLimitMiddleware(
			rateLimiter,
			cfg.Env,
			action,
			cfg.Security.RateLimitRequests,
			cfg.Security.RateLimitWindow.Duration,
		)
	}
	authenticated := handler.AuthMiddleware(authService)

	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Readiness)
	router.GET("/health/liveness", healthChecker.Liveness)
	router.GET("/health/readiness", healthChecker.Readiness)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", limit("register"), authHandler.Register)
			auth.POST("/login", limit("login"), authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authenticated, authHandler.Logout)
			auth.POST("/forgot-password", limit("password"), authHandler.ForgotPassword)
			auth.POST("/reset-password", limit("password"), authHandler.ResetPassword)
			auth.POST("/change-password", authenticated, authHandler.ChangePassword)
			auth.POST("/verify-email", authHandler.VerifyEmail)
			auth.GET("/me", authenticated, authHandler.GetMe)
		}

		contacts := api.Group("/contacts", authenticated)
		{
			contacts.POST("", contactHandler.Create)
			contacts.GET("", contactHandler.List)
			contacts.GET("/export", contactHandler.Export)
			contacts.GET("/:id", contactHandler.Get)
			contacts.PUT("/:id", contactHandler.Update)
			contacts.DELETE("/:id", contactHandler.Delete)
		}

		users := api.Group("/users", authenticated)
		{
			users.GET("", handler.RequireRole(domain.RoleAdmin, domain.RoleManager), userHandler.List)
			users.GET("/:id", handler.RequireRole(domain.RoleAdmin, domain.RoleManager), userHandler.Get)
			users.POST("/:id/unlock", handler.RequireRole(domain.RoleAdmin), userHandler.Unlock)
			users.DELETE("/:id", handler.RequireRole(domain.RoleAdmin), userHandler.Delete)
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	cleanerCtx, stopCleaner := context.WithCancel(ctx)
	defer stopCleaner()
	go a.cleaner.Run(cleanerCtx)

	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
