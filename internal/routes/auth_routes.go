package routes

import (
	"github.com/labstack/echo/v4"

	"ruralsite/internal/api/middleware"
	"ruralsite/internal/handlers"
)

// SetupAuthRoutes registers login, logout and the current-principal route on
// the versioned API group.
func SetupAuthRoutes(api *echo.Group, h *handlers.AuthHandler, gate *middleware.AuthMiddleware, limiter middleware.IPLimiter) {
	// Public routes (no auth required)
	api.POST("/login", h.Login, middleware.LoginRateLimit(limiter))
	api.POST("/logout", h.Logout)

	// Protected auth routes
	api.GET("/auth/me", h.Me, gate.RequireAuthenticated())
}
