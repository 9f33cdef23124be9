package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"ruralsite/internal/api/validator"
	"ruralsite/internal/apperrors"
	"ruralsite/internal/config"
	console "ruralsite/internal/utils/logger"
)

var log = console.New("API-Server")

type Server struct {
	echo   *echo.Echo
	config *config.Config
	deps   Dependencies
}

// NewServer @title Rural Site API
// @version 1.0
// @description Admin and public content API for the rural development site.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Validator = validator.NewValidator()

	// Configure middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("%s %s %d %s %s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentLength},
		AllowCredentials: true,
	}))
	e.Use(middleware.Secure())
	if cfg.Server.RequestTimeout > 0 {
		e.Use(middleware.ContextTimeout(cfg.Server.RequestTimeout))
	}
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
	}))
	if cfg.Server.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}
	if cfg.Server.RateLimit > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.Server.RateLimit))))
	}

	// Custom error handler
	e.HTTPErrorHandler = customHTTPErrorHandler

	s := &Server{
		echo:   e,
		config: cfg,
		deps:   deps,
	}

	s.registerRoutes()
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	log.Info("Listening on %s", s.config.Addr())
	err := s.echo.Start(s.config.Addr())
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Health check endpoint
func (s *Server) healthCheck(c echo.Context) error {
	status := http.StatusOK
	body := map[string]interface{}{
		"status":   "healthy",
		"version":  "1.0.0",
		"database": "ok",
		"time":     time.Now().Format(time.RFC3339),
	}
	if s.deps.Ping != nil {
		if err := s.deps.Ping(c.Request().Context()); err != nil {
			_ = log.Error("Health check failed", err)
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["database"] = "unreachable"
		}
	}
	return c.JSON(status, body)
}

// StatusFor maps an application error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidCredentials), errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Custom HTTP error handler
func customHTTPErrorHandler(err error, c echo.Context) {
	var (
		code    = http.StatusInternalServerError
		message interface{}
	)

	var appErr *apperrors.AppError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = StatusFor(appErr)
		message = appErr.Message
		if len(appErr.Fields) > 0 {
			message = appErr.Fields
		}
		if code == http.StatusInternalServerError {
			_ = log.Error("%s %s failed", err, c.Request().Method, c.Request().URL.Path)
		}
	case errors.As(err, &httpErr):
		code = httpErr.Code
		message = httpErr.Message
	default:
		_ = log.Error("%s %s failed", err, c.Request().Method, c.Request().URL.Path)
		message = http.StatusText(code)
	}

	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, map[string]interface{}{
				"error": message,
				"code":  code,
				"time":  time.Now().Format(time.RFC3339),
			})
		}
		if err != nil {
			_ = log.Error("Failed to write error response", err)
		}
	}
}
