package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/room-booking/internal/export"
	"github.com/iliyamo/room-booking/internal/model"
)

// maxExportDays bounds the range of one export.
const maxExportDays = 366

var (
	bookingColumns = []string{
		"ID", "Room", "Room name", "Title", "Purpose", "Requester ID", "Requester",
		"Start (UTC)", "End (UTC)", "Attendees", "Status",
		"Approved by", "Approved at", "Rejection reason",
		"Cancelled by", "Cancelled at", "Cancel reason", "Created at",
	}
	historyColumns = []string{"Booking ID", "Entry ID", "Action", "Actor ID", "Old status", "New status", "Reason", "Fields", "At (UTC)"}
)

// Exporter writes bookings and their audit trail to a workbook.
type Exporter struct {
	queries *QueryService
	audit   *AuditTrail
	newBook func() export.Workbook
}

// NewExporter returns an Exporter producing Excel workbooks.
func NewExporter(queries *QueryService, audit *AuditTrail) *Exporter {
	if queries == nil || audit == nil {
		panic("nil dependency passed to NewExporter")
	}
	return &Exporter{
		queries: queries,
		audit:   audit,
		newBook: func() export.Workbook { return export.NewExcelWorkbook() },
	}
}

// Export writes every booking intersecting [from, to) to the "Bookings"
// sheet and their history to the "History" sheet.  Administrators only.
func (e *Exporter) Export(ctx context.Context, actor model.Actor, from, to time.Time, w io.Writer) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if from.IsZero() || to.IsZero() {
		return validationf("date_from and date_to are required")
	}
	if to.Sub(from) > maxExportDays*24*time.Hour {
		return validationf("export range must not exceed %d days", maxExportDays)
	}
	bookings, err := e.queries.ListByRange(ctx, from, to, RangeFilter{})
	if err != nil {
		return err
	}

	book := e.newBook()
	defer book.Close()

	if err := book.AddSheet("Bookings"); err != nil {
		return err
	}
	if err := book.WriteHeader(bookingColumns); err != nil {
		return err
	}
	for _, b := range bookings {
		if err := book.WriteRow(bookingRow(b)); err != nil {
			return fmt.Errorf("write booking %d: %w", b.ID, err)
		}
	}

	if err := book.AddSheet("History"); err != nil {
		return err
	}
	if err := book.WriteHeader(historyColumns); err != nil {
		return err
	}
	for _, b := range bookings {
		entries, err := e.audit.ListFor(ctx, b.ID)
		if err != nil {
			return err
		}
		for _, h := range entries {
			if err := book.WriteRow(historyRow(h)); err != nil {
				return fmt.Errorf("write history %d: %w", h.ID, err)
			}
		}
	}
	return book.Save(w)
}

func bookingRow(b model.BookingView) []any {
	return []any{
		b.ID, b.RoomCode, b.RoomName, b.Title, string(b.Purpose), b.RequesterID, b.RequesterName,
		formatTime(&b.StartTime), formatTime(&b.EndTime), b.ExpectedAttendees, string(b.Status),
		formatID(b.ApprovedBy), formatTime(b.ApprovedAt), b.RejectionReason,
		formatID(b.CancelledBy), formatTime(b.CancelledAt), b.CancelReason,
		formatTime(&b.CreatedAt),
	}
}

func historyRow(h model.HistoryEntry) []any {
	keys := make([]string, 0, len(h.Details.Fields))
	for k := range h.Details.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]string, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, k+": "+h.Details.Fields[k])
	}
	return []any{
		h.BookingID, h.ID, string(h.Action), formatID(h.ActorID),
		string(h.Details.OldStatus), string(h.Details.NewStatus), h.Details.Reason,
		strings.Join(fields, "; "), formatTime(&h.CreatedAt),
	}
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatID(id *uint64) string {
	if id == nil {
		return ""
	}
	return fmt.Sprintf("%d", *id)
}
