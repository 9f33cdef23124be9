package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// IPLimiter throttles sign-in attempts per client address.
type IPLimiter interface {
	AllowIP(ip string) bool
}

// LoginRateLimit rejects login attempts from an address that exceeded its
// budget. Only POST is counted.
func LoginRateLimit(limiter IPLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodPost || limiter == nil {
				return next(c)
			}
			ip := c.RealIP()
			if !limiter.AllowIP(ip) {
				log.Warn("Login rate limit exceeded for %s", ip)
				SetRetryAfter(c, time.Second)
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
			}
			return next(c)
		}
	}
}

// SetRetryAfter writes d as whole seconds, rounded up.
func SetRetryAfter(c echo.Context, d time.Duration) {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
}
