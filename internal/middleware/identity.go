package middleware

// identity.go holds helpers shared by the rate limiter and the request
// logger for naming the caller.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// userID returns the authenticated user id as a string, or "anon" when the
// request carries no actor.
func userID(c echo.Context) string {
	if a, ok := ActorFrom(c); ok {
		return strconv.FormatUint(a.ID, 10)
	}
	if s, ok := c.Get(UserIDKey).(string); ok && s != "" {
		return s
	}
	return "anon"
}
