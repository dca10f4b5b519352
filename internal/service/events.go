package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/queue"
)

// EventPublisher delivers booking events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// eventTimeout bounds how long a request waits on the broker after its
// transaction has committed.
const eventTimeout = 3 * time.Second

// emit publishes an event for a committed change.  Failures are logged
// and never reach the caller: the change is already durable.
func emit(ctx context.Context, p EventPublisher, log *zerolog.Logger, action model.HistoryAction, b *model.Booking, actor model.Actor, old model.BookingStatus, reason string, at time.Time) {
	if p == nil {
		return
	}
	ev := queue.NewBookingEvent(queue.EventTypeFor(action), b, actor.ID, old, reason, at)
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventTimeout)
	defer cancel()
	if err := p.Publish(pctx, ev); err != nil {
		log.Warn().Err(err).
			Str("event_id", ev.EventID).
			Str("type", ev.Type).
			Uint64("booking_id", b.ID).
			Msg("publish booking event failed")
	}
}
