package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireAdmin admits actors that model.Actor.IsAdmin accepts, which
// covers both the ADMIN role and a sufficient permission level.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			a, ok := ActorFrom(c)
			if !ok || !a.IsAdmin() {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "authorization", "message": "admin privileges required"})
			}
			return next(c)
		}
	}
}
