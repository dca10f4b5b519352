package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-booking/internal/handler"
)

// RegisterAdmin registers administrator endpoints on g, which must already
// enforce RequireAdmin.  Approvers manage the room catalog and move
// bookings through the approval workflow.
func RegisterAdmin(g *echo.Group, a *handler.AdminHandler, r *handler.RoomHandler) {
	g.POST("/rooms", r.Create)
	g.PATCH("/rooms/:id", r.Update)
	g.POST("/rooms/:id/deactivate", r.Deactivate)

	g.GET("/bookings/pending", a.Pending)
	g.POST("/bookings/bulk-approve", a.BulkApprove)
	g.GET("/bookings/export", a.Export)
	g.POST("/bookings/:id/approve", a.Approve)
	g.POST("/bookings/:id/reject", a.Reject)
	g.POST("/bookings/:id/start", a.Start)
	g.POST("/bookings/:id/complete", a.Complete)
}
