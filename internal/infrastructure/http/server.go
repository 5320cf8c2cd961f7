package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/wekeepgrowing/semo-credits/internal/adapter/handler/http"
	"github.com/wekeepgrowing/semo-credits/internal/config"
	"github.com/wekeepgrowing/semo-credits/internal/middleware/auth"
	"github.com/wekeepgrowing/semo-credits/pkg/logger"
)

// Handlers groups the HTTP handlers the server routes to
type Handlers struct {
	Purchase *handlers.PurchaseHandler
	Webhook  *handlers.WebhookHandler
	// Readiness pings each dependency, keyed by name ("database", "redis")
	Readiness map[string]func(ctx context.Context) error
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	echo     *echo.Echo
	handlers Handlers
}

func NewServer(cfg *config.Config, log *zap.Logger, h Handlers) *Server {
	e := echo.New()
	e.Validator = handlers.NewRequestValidator()
	logger.WithEchoLogger(e, log)

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(middleware.Recover())
	if cfg.Server.HTTP.RequestTimeout > 0 {
		e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			Timeout: cfg.Server.HTTP.RequestTimeout,
		}))
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.ClientURL},
		AllowMethods: []string{echo.GET, echo.POST},
	}))

	s := &Server{
		config:   cfg,
		logger:   log,
		echo:     e,
		handlers: h,
	}
	s.setupRoutes()
	return s
}

// Echo exposes the router for tests
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	s.echo.GET("/health/ready", s.ready)

	// Provider notifications authenticate by signature, not JWT
	s.echo.POST("/webhooks/payment", s.handlers.Webhook.HandleWebhook)

	jwtConfig := auth.JWTConfig{
		Secret: s.config.Service.Supabase.JWTSecret,
		Logger: s.logger,
	}

	credits := s.echo.Group("/credits", auth.JWTMiddleware(jwtConfig))
	credits.GET("/packages", s.handlers.Purchase.ListPackages)

	purchases := credits.Group("/purchases")
	purchases.POST("", s.handlers.Purchase.CreatePurchase)
	purchases.GET("/:id", s.handlers.Purchase.GetPurchase)
	purchases.POST("/:id/poll", s.handlers.Purchase.PollPurchase)
	purchases.POST("/:id/confirm", s.handlers.Purchase.ConfirmPurchase)
}

func (s *Server) ready(c echo.Context) error {
	status := http.StatusOK
	checks := make(map[string]string, len(s.handlers.Readiness))
	for name, check := range s.handlers.Readiness {
		if err := check(c.Request().Context()); err != nil {
			s.logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	return c.JSON(status, echo.Map{
		"service": s.config.Service.Name,
		"ready":   status == http.StatusOK,
		"checks":  checks,
	})
}
