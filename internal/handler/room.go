package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/repository"
	"github.com/iliyamo/room-booking/internal/service"
)

// RoomHandler serves the room catalog.  OnChange, when set, runs after
// every successful room write; the server uses it to purge the catalog
// response cache.
type RoomHandler struct {
	Catalog  *service.RoomCatalog
	Queries  *service.QueryService
	OnChange func(ctx context.Context)
}

// NewRoomHandler panics if any dependency is nil.
func NewRoomHandler(catalog *service.RoomCatalog, queries *service.QueryService) *RoomHandler {
	if catalog == nil || queries == nil {
		panic("nil service passed to NewRoomHandler")
	}
	return &RoomHandler{Catalog: catalog, Queries: queries}
}

type roomBody struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Location  string          `json:"location"`
	Capacity  uint32          `json:"capacity"`
	Equipment model.Equipment `json:"equipment"`
	Status    string          `json:"status"`
}

type roomPatchBody struct {
	Code      *string          `json:"code"`
	Name      *string          `json:"name"`
	Location  *string          `json:"location"`
	Capacity  *uint32          `json:"capacity"`
	Equipment *model.Equipment `json:"equipment"`
	Status    *string          `json:"status"`
	IsActive  *bool            `json:"is_active"`
}

// List handles GET /v1/rooms?active&min_capacity.  By default only
// active rooms are returned; active=false lists every room.
func (h *RoomHandler) List(c echo.Context) error {
	f := repository.RoomFilter{ActiveOnly: true}
	if v := strings.TrimSpace(c.QueryParam("active")); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "invalid active")
		}
		f.ActiveOnly = active
	}
	minCap, err := queryUint(c, "min_capacity")
	if err != nil {
		return badRequest(c, err.Error())
	}
	f.MinCapacity = uint32(minCap)
	rooms, err := h.Catalog.List(c.Request().Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rooms, "count": len(rooms)})
}

// Get handles GET /v1/rooms/:id.
func (h *RoomHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	r, err := h.Catalog.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Availability handles GET /v1/rooms/:id/availability?start_time&end_time.
func (h *RoomHandler) Availability(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	start, err := parseInstant(c.QueryParam("start_time"), false)
	if err != nil {
		return badRequest(c, "invalid start_time")
	}
	end, err := parseInstant(c.QueryParam("end_time"), false)
	if err != nil {
		return badRequest(c, "invalid end_time")
	}
	av, err := h.Queries.Availability(c.Request().Context(), id, start, end)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, av)
}

// Create handles POST /v1/admin/rooms.
func (h *RoomHandler) Create(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	var body roomBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	r, err := h.Catalog.Create(c.Request().Context(), a, service.RoomInput{
		Code:      body.Code,
		Name:      body.Name,
		Location:  body.Location,
		Capacity:  body.Capacity,
		Equipment: body.Equipment,
		Status:    model.RoomStatus(body.Status),
	})
	if err != nil {
		return respondError(c, err)
	}
	h.changed(c)
	return c.JSON(http.StatusCreated, r)
}

// Update handles PATCH /v1/admin/rooms/:id.
func (h *RoomHandler) Update(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var body roomPatchBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	p := service.RoomPatch{
		Code:      body.Code,
		Name:      body.Name,
		Location:  body.Location,
		Capacity:  body.Capacity,
		Equipment: body.Equipment,
		IsActive:  body.IsActive,
	}
	if body.Status != nil {
		s := model.RoomStatus(*body.Status)
		p.Status = &s
	}
	r, err := h.Catalog.Update(c.Request().Context(), a, id, p)
	if err != nil {
		return respondError(c, err)
	}
	h.changed(c)
	return c.JSON(http.StatusOK, r)
}

// Deactivate handles POST /v1/admin/rooms/:id/deactivate.  Existing
// bookings are left untouched.
func (h *RoomHandler) Deactivate(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	r, err := h.Catalog.Deactivate(c.Request().Context(), a, id)
	if err != nil {
		return respondError(c, err)
	}
	h.changed(c)
	return c.JSON(http.StatusOK, r)
}

func (h *RoomHandler) changed(c echo.Context) {
	if h.OnChange != nil {
		h.OnChange(c.Request().Context())
	}
}
