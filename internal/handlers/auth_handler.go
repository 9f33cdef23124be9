package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"ruralsite/internal/api/middleware"
	"ruralsite/internal/api/validator"
	"ruralsite/internal/apperrors"
	"ruralsite/internal/auth"
	"ruralsite/internal/models"
	"ruralsite/internal/utils/logger"
)

// LoginGuard tracks failed sign-ins per account.
type LoginGuard interface {
	Locked(ctx context.Context, email string) time.Duration
	Failed(ctx context.Context, email string) time.Duration
	Succeeded(ctx context.Context, email string)
}

// CookieSettings controls the session cookie set on login.
type CookieSettings struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	authenticator *auth.Authenticator
	guard         LoginGuard
	cookie        CookieSettings
	log           *logger.Logger
}

func NewAuthHandler(authenticator *auth.Authenticator, guard LoginGuard, cookie CookieSettings) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = middleware.DefaultCookieName
	}
	return &AuthHandler{
		authenticator: authenticator,
		guard:         guard,
		cookie:        cookie,
		log:           logger.New("AuthHandler"),
	}
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token     string                 `json:"token"`
	ExpiresAt time.Time              `json:"expiresAt"`
	Principal *models.AdminPrincipal `json:"principal"`
}

// Login authenticates an admin principal and issues a session
// @Summary Login
// @Description Check email and password and issue a session token. The token is also set as an HttpOnly cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validator.LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Failure 401 {object} map[string]interface{} "Invalid credentials"
// @Failure 429 {object} map[string]interface{} "Too many attempts"
// @Router /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req validator.LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Invalid("_", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	email := models.NormalizeEmail(req.Email)

	if h.guard != nil {
		if remaining := h.guard.Locked(ctx, email); remaining > 0 {
			middleware.SetRetryAfter(c, remaining)
			return apperrors.Authentication()
		}
	}

	session, principal, err := h.authenticator.Login(ctx, email, req.Password)
	if err != nil {
		if h.guard != nil && errors.Is(err, apperrors.ErrInvalidCredentials) {
			if lockout := h.guard.Failed(ctx, email); lockout > 0 {
				middleware.SetRetryAfter(c, lockout)
			}
		}
		return err
	}
	if h.guard != nil {
		h.guard.Succeeded(ctx, email)
	}

	c.SetCookie(h.sessionCookie(session.Token, session.ExpiresAt))
	return c.JSON(http.StatusOK, LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Principal: principal,
	})
}

// Logout clears the session cookie
// @Summary Logout
// @Description Clear the session cookie. Tokens are stateless, so a copy held elsewhere stays valid until it expires.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	cookie := h.sessionCookie("", time.Unix(0, 0))
	cookie.MaxAge = -1
	c.SetCookie(cookie)
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the signed-in principal
// @Summary Current principal
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.AdminPrincipal
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	claims := middleware.GetPrincipal(c)
	if claims == nil {
		return apperrors.Authorization()
	}
	principal, err := h.authenticator.Principal(c.Request().Context(), claims.PrincipalID())
	if err != nil {
		return err
	}
	if !principal.CanAuthenticate() {
		return apperrors.Authorization()
	}
	return c.JSON(http.StatusOK, principal)
}

func (h *AuthHandler) sessionCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
