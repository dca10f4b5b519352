package service

import (
	"context"
	"time"

	"github.com/iliyamo/room-booking/internal/model"
)

// ActiveBookingReader lists the active bookings on a room intersecting a
// window.  Both repository.Store (committed state) and repository.Tx
// (state inside a transaction) satisfy it.
type ActiveBookingReader interface {
	ActiveBookings(ctx context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Booking, error)
}

// ConflictChecker decides whether a room is free for a window.  It has no
// side effects; callers that act on its answer must hold the room lock
// of the transaction they pass in as reader.
type ConflictChecker struct{}

// NewConflictChecker returns a ConflictChecker.
func NewConflictChecker() *ConflictChecker { return &ConflictChecker{} }

// IsAvailable reports whether no active booking other than excludeID
// overlaps [start, end) on roomID.  start must be before end.
func (c *ConflictChecker) IsAvailable(ctx context.Context, r ActiveBookingReader, roomID uint64, start, end time.Time, excludeID uint64) (bool, error) {
	found, err := c.Conflicts(ctx, r, roomID, start, end, excludeID)
	if err != nil {
		return false, err
	}
	return len(found) == 0, nil
}

// Conflicts returns the active bookings that overlap [start, end) on
// roomID, ignoring excludeID.  Windows that merely touch are not
// conflicts.
func (c *ConflictChecker) Conflicts(ctx context.Context, r ActiveBookingReader, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Booking, error) {
	candidates, err := r.ActiveBookings(ctx, roomID, start, end, excludeID)
	if err != nil {
		return nil, err
	}
	return overlapping(candidates, roomID, start, end, excludeID), nil
}

// overlapping applies the half-open overlap rule to rows returned by a
// store.
func overlapping(candidates []model.Booking, roomID uint64, start, end time.Time, excludeID uint64) []model.Booking {
	out := make([]model.Booking, 0, len(candidates))
	for _, b := range candidates {
		if b.ID == excludeID || b.RoomID != roomID || !b.Status.Active() {
			continue
		}
		if model.Overlaps(b.StartTime, b.EndTime, start, end) {
			out = append(out, b)
		}
	}
	return out
}
