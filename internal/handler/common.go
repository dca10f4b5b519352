package handler // handler defines http handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/room-booking/internal/middleware"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/service"
)

const dateLayout = "2006-01-02"

// statusFor maps a domain error kind to its HTTP status.
var statusFor = map[service.Kind]int{
	service.KindValidation:    http.StatusBadRequest,
	service.KindConflict:      http.StatusConflict,
	service.KindNotFound:      http.StatusNotFound,
	service.KindAuthorization: http.StatusForbidden,
	service.KindState:         http.StatusUnprocessableEntity,
}

// respondError writes err as {"error": kind, "message": reason}.  Errors
// that are not domain errors are logged and reported as 500.
func respondError(c echo.Context, err error) error {
	if kind, ok := service.KindOf(err); ok {
		return c.JSON(statusFor[kind], echo.Map{"error": kind, "message": service.ReasonOf(err)})
	}
	zerolog.Ctx(c.Request().Context()).Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": service.KindValidation, "message": msg})
}

// actor returns the authenticated caller.  JWTAuth guards every route
// that calls it, so a missing actor is reported as 401.
func actor(c echo.Context) (model.Actor, error) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return model.Actor{}, errUnauthenticated
	}
	return a, nil
}

var errUnauthenticated = errors.New("unauthenticated")

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "authentication required"})
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// queryUint parses an optional unsigned query parameter.  Absent means 0.
func queryUint(c echo.Context, name string) (uint64, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}

// parseInstant accepts RFC3339 timestamps and plain YYYY-MM-DD dates.  A
// date means midnight UTC, or the end of that day when dayEnd is set, so
// date_to=2024-05-01 covers all of May 1st.
func parseInstant(v string, dayEnd bool) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(dateLayout, v, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	if dayEnd {
		t = t.AddDate(0, 0, 1)
	}
	return t, nil
}

// queryRange reads date_from and date_to.
func queryRange(c echo.Context) (from, to time.Time, err error) {
	if from, err = parseInstant(c.QueryParam("date_from"), false); err != nil {
		return from, to, fmt.Errorf("invalid date_from")
	}
	if to, err = parseInstant(c.QueryParam("date_to"), true); err != nil {
		return from, to, fmt.Errorf("invalid date_to")
	}
	return from, to, nil
}
