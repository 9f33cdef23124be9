package middleware

import (
	"github.com/labstack/echo/v4"

	"ruralsite/internal/apperrors"
	"ruralsite/internal/models"
)

// RequireMutator rejects principals whose role may not change content. It
// must run after RequireAuthenticated.
func RequireMutator() echo.MiddlewareFunc {
	var roles []models.Role
	for _, r := range []models.Role{models.RoleAdmin, models.RoleEditor} {
		if r.CanMutate() {
			roles = append(roles, r)
		}
	}
	return RequireRole(roles...)
}

// RequireRole admits only the listed roles.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := GetPrincipal(c)
			if claims == nil || !allowed[claims.Role] {
				log.Debug("Role check failed for %s %s", c.Request().Method, c.Path())
				return apperrors.Authorization()
			}
			return next(c)
		}
	}
}
