package service

import (
	"context"
	"time"

	"github.com/iliyamo/room-booking/internal/model"
)

// HistoryWriter appends audit entries.  repository.Tx satisfies it, which
// makes every entry part of the transaction that changed the booking.
type HistoryWriter interface {
	AppendHistory(ctx context.Context, e *model.HistoryEntry) error
}

// HistoryReader lists a booking's audit entries oldest first.
type HistoryReader interface {
	ListHistory(ctx context.Context, bookingID uint64) ([]model.HistoryEntry, error)
}

// AuditTrail is the append-only history of booking transitions.  It has
// no update or delete operation.
type AuditTrail struct {
	reader HistoryReader
	now    func() time.Time
}

// NewAuditTrail returns an AuditTrail that reads through r.
func NewAuditTrail(r HistoryReader) *AuditTrail {
	if r == nil {
		panic("nil history reader passed to NewAuditTrail")
	}
	return &AuditTrail{reader: r, now: time.Now}
}

// Record appends one entry for bookingID through w.  A nil actor marks a
// system-originated entry.
func (a *AuditTrail) Record(ctx context.Context, w HistoryWriter, bookingID uint64, action model.HistoryAction, actor *model.Actor, details model.HistoryDetails) (*model.HistoryEntry, error) {
	e := &model.HistoryEntry{
		BookingID: bookingID,
		Action:    action,
		Details:   details,
		CreatedAt: a.now().UTC(),
	}
	if actor != nil && actor.ID != 0 {
		id := actor.ID
		e.ActorID = &id
	}
	if err := w.AppendHistory(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListFor returns the entries of bookingID ordered by creation time.
func (a *AuditTrail) ListFor(ctx context.Context, bookingID uint64) ([]model.HistoryEntry, error) {
	entries, err := a.reader.ListHistory(ctx, bookingID)
	if err != nil {
		return nil, translateStoreErr("list history", err)
	}
	return entries, nil
}
