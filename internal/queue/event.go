// Package queue defines the booking domain events exchanged over RabbitMQ,
// the publisher used by the service layer and the consumer that writes
// them to the event log.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/room-booking/internal/model"
)

// Event types published after a booking transition commits.
const (
	EventCreated   = "booking.created"
	EventApproved  = "booking.approved"
	EventRejected  = "booking.rejected"
	EventCancelled = "booking.cancelled"
	EventUpdated   = "booking.updated"
)

// BookingEvent is published after every committed booking change.  It
// carries enough information for downstream consumers (notifications,
// analytics) to act without querying the primary database.
type BookingEvent struct {
	EventID     string              `json:"event_id"`
	Type        string              `json:"type"`
	BookingID   uint64              `json:"booking_id"`
	RoomID      uint64              `json:"room_id"`
	RequesterID uint64              `json:"requester_id"`
	ActorID     uint64              `json:"actor_id"`
	OldStatus   model.BookingStatus `json:"old_status,omitempty"`
	NewStatus   model.BookingStatus `json:"new_status"`
	Reason      string              `json:"reason,omitempty"`
	StartTime   time.Time           `json:"start_time"`
	EndTime     time.Time           `json:"end_time"`
	OccurredAt  time.Time           `json:"occurred_at"`
}

// NewBookingEvent builds an event for b with a fresh id.
func NewBookingEvent(typ string, b *model.Booking, actorID uint64, old model.BookingStatus, reason string, at time.Time) BookingEvent {
	return BookingEvent{
		EventID:     uuid.NewString(),
		Type:        typ,
		BookingID:   b.ID,
		RoomID:      b.RoomID,
		RequesterID: b.RequesterID,
		ActorID:     actorID,
		OldStatus:   old,
		NewStatus:   b.Status,
		Reason:      reason,
		StartTime:   b.StartTime.UTC(),
		EndTime:     b.EndTime.UTC(),
		OccurredAt:  at.UTC(),
	}
}

// EventTypeFor maps an audit action to the event type published for it.
func EventTypeFor(a model.HistoryAction) string {
	switch a {
	case model.ActionCreated:
		return EventCreated
	case model.ActionApproved:
		return EventApproved
	case model.ActionRejected:
		return EventRejected
	case model.ActionCancelled:
		return EventCancelled
	}
	return EventUpdated
}
