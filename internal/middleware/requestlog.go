package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// RequestLogger assigns a request id (reusing an incoming X-Request-ID),
// attaches a request-scoped zerolog logger to the request context and
// writes one access line per request.  Handlers obtain the logger with
// zerolog.Ctx(c.Request().Context()).
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid := req.Header.Get(RequestIDHeader)
			if rid == "" {
				rid = uuid.New().String()
			}
			c.Response().Header().Set(RequestIDHeader, rid)

			l := log.With().Str("request_id", rid).Logger()
			c.SetRequest(req.WithContext(l.WithContext(req.Context())))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			ev := l.Info()
			if status >= http.StatusInternalServerError {
				ev = l.Error().Err(err)
			}
			ev.Str("type", "access").
				Str("method", req.Method).
				Str("path", c.Path()).
				Str("uri", req.RequestURI).
				Int("status", status).
				Str("user_id", userID(c)).
				Str("remote_ip", c.RealIP()).
				Dur("latency", time.Since(start)).
				Msg("request")
			return nil
		}
	}
}

// Recover converts a panic in a handler into a 500 response and logs it.
func Recover(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if re := recover(); re != nil {
					perr, ok := re.(error)
					if !ok {
						perr = fmt.Errorf("%v", re)
					}
					log.Error().Err(perr).Str("type", "panic").Str("path", c.Path()).Msg("recovered from panic")
					err = c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "internal error"})
				}
			}()
			return next(c)
		}
	}
}
