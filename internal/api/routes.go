package api

import (
	"context"

	_ "ruralsite/docs/swagger"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"ruralsite/internal/api/middleware"
	"ruralsite/internal/api/registry"
	"ruralsite/internal/handlers"
	"ruralsite/internal/routes"
)

// Dependencies are the collaborators the HTTP layer needs.
type Dependencies struct {
	Services *registry.Services
	Auth     *handlers.AuthHandler
	Gate     *middleware.AuthMiddleware
	Limiter  middleware.IPLimiter
	Ping     func(ctx context.Context) error
}

func (s *Server) registerRoutes() {
	// Health check
	// @Summary Health check
	// @Description Check if the server and its database are reachable
	// @Accept json
	// @Produce json
	// @Success 200 {object} map[string]string "OK"
	// @Failure 503 {object} map[string]string "Database unreachable"
	// @Router /health [get]
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 group
	api := s.echo.Group("/api/v1")
	routes.SetupAuthRoutes(api, s.deps.Auth, s.deps.Gate, s.deps.Limiter)

	// Register CRUD routes for all content types
	registry.RegisterContentRoutes(api, s.deps.Services, s.deps.Gate.RequireAdmin())
}

// Routes lists the registered routes.
func (s *Server) Routes() []*echo.Route {
	return s.echo.Routes()
}
