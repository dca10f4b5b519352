package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler exposes the approval workflow and the spreadsheet export.
// Routes are mounted behind RequireAdmin; the services re-check rights.
type AdminHandler struct {
	Approvals *service.ApprovalWorkflow
	Queries   *service.QueryService
	Exporter  *service.Exporter
}

// NewAdminHandler panics if any dependency is nil.
func NewAdminHandler(approvals *service.ApprovalWorkflow, queries *service.QueryService, exporter *service.Exporter) *AdminHandler {
	if approvals == nil || queries == nil || exporter == nil {
		panic("nil service passed to NewAdminHandler")
	}
	return &AdminHandler{Approvals: approvals, Queries: queries, Exporter: exporter}
}

type bulkApproveBody struct {
	BookingIDs []uint64 `json:"booking_ids"`
}

// Pending handles GET /v1/admin/bookings/pending.
func (h *AdminHandler) Pending(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	out, err := h.Queries.ListPending(c.Request().Context(), a)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out)})
}

// Approve handles POST /v1/admin/bookings/:id/approve.
func (h *AdminHandler) Approve(c echo.Context) error {
	return withTarget(c, func(a model.Actor, id uint64) error {
		b, err := h.Approvals.Approve(c.Request().Context(), a, id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, b)
	})
}

// Reject handles POST /v1/admin/bookings/:id/reject.  The body must carry
// a non-empty reason.
func (h *AdminHandler) Reject(c echo.Context) error {
	return withTarget(c, func(a model.Actor, id uint64) error {
		var body reasonBody
		if err := c.Bind(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
		b, err := h.Approvals.Reject(c.Request().Context(), a, id, body.Reason)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, b)
	})
}

// Start handles POST /v1/admin/bookings/:id/start.
func (h *AdminHandler) Start(c echo.Context) error {
	return withTarget(c, func(a model.Actor, id uint64) error {
		b, err := h.Approvals.Start(c.Request().Context(), a, id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, b)
	})
}

// Complete handles POST /v1/admin/bookings/:id/complete.
func (h *AdminHandler) Complete(c echo.Context) error {
	return withTarget(c, func(a model.Actor, id uint64) error {
		b, err := h.Approvals.Complete(c.Request().Context(), a, id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, b)
	})
}

// BulkApprove handles POST /v1/admin/bookings/bulk-approve.  It returns
// 200 with per-id outcomes even when some ids fail.
func (h *AdminHandler) BulkApprove(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	var body bulkApproveBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	res, err := h.Approvals.BulkApprove(c.Request().Context(), a, body.BookingIDs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Export handles GET /v1/admin/bookings/export?date_from&date_to and
// streams an .xlsx workbook.  The workbook is built in memory first so a
// failure can still be reported as JSON.
func (h *AdminHandler) Export(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	from, to, err := queryRange(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	var buf bytes.Buffer
	if err := h.Exporter.Export(c.Request().Context(), a, from, to, &buf); err != nil {
		return respondError(c, err)
	}
	name := fmt.Sprintf("bookings_%s_%s.xlsx", from.Format(dateLayout), to.AddDate(0, 0, -1).Format(dateLayout))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// withTarget resolves the actor and the :id path parameter before
// calling fn.
func withTarget(c echo.Context, fn func(a model.Actor, id uint64) error) error {
	a, err := actor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	return fn(a, id)
}
