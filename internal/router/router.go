package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-booking/internal/handler"
	"github.com/iliyamo/room-booking/internal/middleware"
)

// Handlers bundles everything RegisterRoutes mounts.  Ready may be nil.
type Handlers struct {
	Bookings *handler.BookingHandler
	Rooms    *handler.RoomHandler
	Admin    *handler.AdminHandler
	Ready    *handler.ReadyHandler
}

// Middleware carries the optional per-group middleware built by the
// server from its Redis-backed configuration.
type Middleware struct {
	RateLimit echo.MiddlewareFunc
	RoomCache echo.MiddlewareFunc
}

// RegisterRoutes registers the probes and the versioned API.  Every /v1
// route requires a valid access token; /v1/admin additionally requires an
// administrator.
func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string, mw Middleware) {
	e.GET("/healthz", handler.Health)
	if h.Ready != nil {
		e.GET("/readyz", h.Ready.Ready)
	}

	v1 := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	if mw.RateLimit != nil {
		v1.Use(mw.RateLimit)
	}
	RegisterRooms(v1, h.Rooms, mw.RoomCache)
	RegisterBookings(v1, h.Bookings)
	RegisterAdmin(v1.Group("/admin", middleware.RequireAdmin()), h.Admin, h.Rooms)
}

// RegisterRooms mounts the read side of the room catalog.  cache, when
// non-nil, fronts the list and detail routes.
func RegisterRooms(g *echo.Group, r *handler.RoomHandler, cache echo.MiddlewareFunc) {
	var mws []echo.MiddlewareFunc
	if cache != nil {
		mws = append(mws, cache)
	}
	g.GET("/rooms", r.List, mws...)
	g.GET("/rooms/:id", r.Get, mws...)
	g.GET("/rooms/:id/availability", r.Availability)
}

// RegisterBookings mounts the requester side of the booking lifecycle and
// the calendar.
func RegisterBookings(g *echo.Group, b *handler.BookingHandler) {
	g.POST("/bookings", b.Create)
	g.GET("/bookings", b.List)
	g.GET("/bookings/mine", b.Mine)
	g.GET("/bookings/:id", b.Get)
	g.PATCH("/bookings/:id", b.Update)
	g.POST("/bookings/:id/cancel", b.Cancel)
	g.GET("/calendar", b.Calendar)
}
