package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/service"
)

// BookingHandler exposes the requester side of the booking lifecycle and
// the read queries.  JWTAuth must run first.
type BookingHandler struct {
	Bookings *service.BookingService
	Queries  *service.QueryService
}

// NewBookingHandler panics if any dependency is nil.
func NewBookingHandler(bookings *service.BookingService, queries *service.QueryService) *BookingHandler {
	if bookings == nil || queries == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: bookings, Queries: queries}
}

type createBookingBody struct {
	RoomID            uint64    `json:"room_id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Purpose           string    `json:"purpose"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	ExpectedAttendees uint32    `json:"expected_attendees"`
	DepartmentID      *uint64   `json:"department_id"`
}

type updateBookingBody struct {
	RoomID            *uint64    `json:"room_id"`
	Title             *string    `json:"title"`
	Description       *string    `json:"description"`
	Purpose           *string    `json:"purpose"`
	StartTime         *time.Time `json:"start_time"`
	EndTime           *time.Time `json:"end_time"`
	ExpectedAttendees *uint32    `json:"expected_attendees"`
	DepartmentID      *uint64    `json:"department_id"`
}

type reasonBody struct {
	Reason string `json:"reason"`
}

// Create handles POST /v1/bookings and returns 201 with the pending
// booking.  Overlaps with an active booking yield 409.
func (h *BookingHandler) Create(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	var body createBookingBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	b, err := h.Bookings.Create(c.Request().Context(), a, service.CreateRequest{
		RoomID:            body.RoomID,
		Title:             body.Title,
		Description:       body.Description,
		Purpose:           model.Purpose(body.Purpose),
		StartTime:         body.StartTime,
		EndTime:           body.EndTime,
		ExpectedAttendees: body.ExpectedAttendees,
		DepartmentID:      body.DepartmentID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// List handles GET /v1/bookings?date_from&date_to&room_id&status.
func (h *BookingHandler) List(c echo.Context) error {
	from, to, err := queryRange(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	roomID, err := queryUint(c, "room_id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	out, err := h.Queries.ListByRange(c.Request().Context(), from, to, service.RangeFilter{
		RoomID: roomID,
		Status: model.BookingStatus(c.QueryParam("status")),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out)})
}

// Mine handles GET /v1/bookings/mine?status.
func (h *BookingHandler) Mine(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	out, err := h.Queries.ListMine(c.Request().Context(), a, model.BookingStatus(c.QueryParam("status")))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out)})
}

// Get handles GET /v1/bookings/:id and includes the booking's history.
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	d, err := h.Queries.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// Update handles PATCH /v1/bookings/:id.  Only pending bookings can be
// edited; other states yield 422.
func (h *BookingHandler) Update(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var body updateBookingBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	patch := service.UpdatePatch{
		RoomID:            body.RoomID,
		Title:             body.Title,
		Description:       body.Description,
		StartTime:         body.StartTime,
		EndTime:           body.EndTime,
		ExpectedAttendees: body.ExpectedAttendees,
		DepartmentID:      body.DepartmentID,
	}
	if body.Purpose != nil {
		p := model.Purpose(*body.Purpose)
		patch.Purpose = &p
	}
	b, err := h.Bookings.Update(c.Request().Context(), a, id, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Cancel handles POST /v1/bookings/:id/cancel with an optional reason.
func (h *BookingHandler) Cancel(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var body reasonBody
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
	}
	b, err := h.Bookings.Cancel(c.Request().Context(), a, id, body.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Calendar handles GET /v1/calendar?date_from&date_to&room_id.
func (h *BookingHandler) Calendar(c echo.Context) error {
	from, to, err := queryRange(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	roomID, err := queryUint(c, "room_id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	days, err := h.Queries.Calendar(c.Request().Context(), from, to, roomID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"days": days})
}
