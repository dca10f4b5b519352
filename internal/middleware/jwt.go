package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-booking/internal/model"
)

// Context keys set by JWTAuth.
const (
	ActorKey  = "actor"
	UserIDKey = "user_id"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// issued by the identity provider and resolves it into a model.Actor.  The
// claims read are sub (user id), role, level and name.  Handlers access the
// caller via ActorFrom(c); the raw user id is also stored under "user_id"
// for the rate limiter and request log.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Only HMAC-signed tokens are accepted.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid token"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid claims"})
			}

			actor, ok := actorFromClaims(claims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "invalid subject"})
			}
			c.Set(ActorKey, actor)
			c.Set(UserIDKey, strconv.FormatUint(actor.ID, 10))
			return next(c)
		}
	}
}

// ActorFrom returns the actor stored by JWTAuth.  The second value is
// false on unauthenticated routes.
func ActorFrom(c echo.Context) (model.Actor, bool) {
	a, ok := c.Get(ActorKey).(model.Actor)
	return a, ok && a.ID != 0
}

func actorFromClaims(claims jwt.MapClaims) (model.Actor, bool) {
	id, ok := claimUint(claims["sub"])
	if !ok || id == 0 {
		return model.Actor{}, false
	}
	a := model.Actor{ID: id}
	if role, ok := claims["role"].(string); ok {
		a.Role = strings.ToUpper(strings.TrimSpace(role))
	}
	if lvl, ok := claimUint(claims["level"]); ok {
		a.Level = int(lvl)
	}
	if name, ok := claims["name"].(string); ok {
		a.Name = name
	}
	return a, true
}

// claimUint accepts the numeric shapes a JSON-decoded claim can take.
func claimUint(v interface{}) (uint64, bool) {
	switch t := v.(type) {
	case float64:
		if t < 0 {
			return 0, false
		}
		return uint64(t), true
	case int64:
		if t < 0 {
			return 0, false
		}
		return uint64(t), true
	case int:
		if t < 0 {
			return 0, false
		}
		return uint64(t), true
	case uint64:
		return t, true
	case string:
		n, err := strconv.ParseUint(t, 10, 64)
		return n, err == nil
	}
	return 0, false
}
