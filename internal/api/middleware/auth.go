package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"ruralsite/internal/apperrors"
	"ruralsite/internal/auth"
	"ruralsite/internal/models"
	"ruralsite/internal/utils/logger"
)

var log = logger.New("auth_middleware")

const principalKey = "principal"

// DefaultCookieName is used when no cookie name is configured.
const DefaultCookieName = "ruralsite_session"

// PrincipalLoader re-reads the principal behind a verified token.
type PrincipalLoader interface {
	Principal(ctx context.Context, id string) (*models.AdminPrincipal, error)
}

// AuthMiddleware is the authorization gate for protected routes. Every
// failure produces the same 401; the cause is only logged.
type AuthMiddleware struct {
	issuer     *auth.SessionIssuer
	cookieName string
	loader     PrincipalLoader
}

type Option func(*AuthMiddleware)

// WithCookie sets the session cookie consulted when no bearer token is sent.
func WithCookie(name string) Option {
	return func(m *AuthMiddleware) {
		if name != "" {
			m.cookieName = name
		}
	}
}

// WithPrincipalCheck makes the gate confirm the principal still exists, is
// active and still holds the role in the token.
func WithPrincipalCheck(loader PrincipalLoader) Option {
	return func(m *AuthMiddleware) { m.loader = loader }
}

func NewAuthMiddleware(issuer *auth.SessionIssuer, opts ...Option) *AuthMiddleware {
	m := &AuthMiddleware{issuer: issuer, cookieName: DefaultCookieName}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RequireAuthenticated admits any valid session.
func (m *AuthMiddleware) RequireAuthenticated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := m.authenticate(c)
			if err != nil {
				log.Debug("Denied %s %s: %v", c.Request().Method, c.Path(), err)
				return apperrors.Authorization()
			}
			c.Set(principalKey, claims)
			return next(c)
		}
	}
}

// RequireAdmin admits only sessions whose role may mutate content. It runs
// before the handler reads the body, so a denied request has no side effects.
func (m *AuthMiddleware) RequireAdmin() echo.MiddlewareFunc {
	authenticated := m.RequireAuthenticated()
	mutator := RequireMutator()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return authenticated(mutator(next))
	}
}

func (m *AuthMiddleware) authenticate(c echo.Context) (*auth.Claims, error) {
	token := TokenFromRequest(c, m.cookieName)
	if token == "" {
		return nil, auth.ErrInvalidSession
	}
	claims, err := m.issuer.Parse(token)
	if err != nil {
		return nil, err
	}
	if m.loader == nil {
		return claims, nil
	}

	principal, err := m.loader.Principal(c.Request().Context(), claims.PrincipalID())
	if err != nil {
		return nil, err
	}
	if !principal.CanAuthenticate() || principal.Role != claims.Role {
		return nil, auth.ErrInvalidSession
	}
	return claims, nil
}

// TokenFromRequest reads a bearer token, falling back to the session cookie.
func TokenFromRequest(c echo.Context, cookieName string) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// GetPrincipal returns the claims stored by the gate, or nil on public routes.
func GetPrincipal(c echo.Context) *auth.Claims {
	if claims, ok := c.Get(principalKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// Actor names the principal for audit events.
func Actor(c echo.Context) string {
	if claims := GetPrincipal(c); claims != nil {
		if claims.Email != "" {
			return claims.Email
		}
		return claims.PrincipalID()
	}
	return ""
}
