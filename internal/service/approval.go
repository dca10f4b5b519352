package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/iliyamo/room-booking/internal/metrics"
	"github.com/iliyamo/room-booking/internal/model"
)

// maxBulkApprove caps the number of ids accepted by one BulkApprove call.
const maxBulkApprove = 200

// Bulk approval item outcomes.
const (
	OutcomeApproved = "approved"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// BulkItem is the result for one id of a bulk approval.
type BulkItem struct {
	BookingID uint64 `json:"booking_id"`
	Outcome   string `json:"outcome"`
	Error     Kind   `json:"error,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// BulkResult reports how many bookings a bulk approval confirmed and what
// happened to each requested id, in request order.
type BulkResult struct {
	ApprovedCount int        `json:"approved_count"`
	Results       []BulkItem `json:"results"`
}

// ApprovalWorkflow holds the administrator-side transitions.  Every
// transition goes through BookingService and therefore through the
// central transition table.
type ApprovalWorkflow struct {
	bookings *BookingService
	log      *zerolog.Logger
}

// NewApprovalWorkflow returns a workflow built on bookings.
func NewApprovalWorkflow(bookings *BookingService) *ApprovalWorkflow {
	if bookings == nil {
		panic("nil booking service passed to NewApprovalWorkflow")
	}
	return &ApprovalWorkflow{bookings: bookings, log: bookings.log}
}

func requireAdmin(a model.Actor) error {
	if !a.IsAdmin() {
		return forbiddenf("administrator rights required")
	}
	return nil
}

func adminOnly(a model.Actor, _ *model.Booking) error { return requireAdmin(a) }

// Approve confirms a pending booking and records the approver.
func (w *ApprovalWorkflow) Approve(ctx context.Context, actor model.Actor, id uint64) (*model.Booking, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return w.bookings.transition(ctx, actor, id, transitionStep{
		transition: model.TransitionApprove,
		action:     model.ActionApproved,
		authorize:  adminOnly,
		apply: func(b *model.Booking, a model.Actor, at time.Time) {
			by := a.ID
			b.ApprovedBy = &by
			b.ApprovedAt = &at
		},
	})
}

// Reject declines a pending booking.  reason is mandatory and is stored
// on the booking and in the audit entry.
func (w *ApprovalWorkflow) Reject(ctx context.Context, actor model.Actor, id uint64, reason string) (*model.Booking, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationf("a rejection reason is required")
	}
	if utf8.RuneCountInString(reason) > maxReasonLen {
		return nil, validationf("reason must be at most %d characters", maxReasonLen)
	}
	return w.bookings.transition(ctx, actor, id, transitionStep{
		transition: model.TransitionReject,
		action:     model.ActionRejected,
		reason:     reason,
		authorize:  adminOnly,
		apply: func(b *model.Booking, a model.Actor, at time.Time) {
			by := a.ID
			b.ApprovedBy = &by
			b.ApprovedAt = &at
			b.RejectionReason = reason
		},
	})
}

// Start marks a confirmed booking as in progress.
func (w *ApprovalWorkflow) Start(ctx context.Context, actor model.Actor, id uint64) (*model.Booking, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return w.bookings.transition(ctx, actor, id, transitionStep{
		transition: model.TransitionStart,
		action:     model.ActionUpdated,
		authorize:  adminOnly,
	})
}

// Complete marks an in-progress booking as completed.
func (w *ApprovalWorkflow) Complete(ctx context.Context, actor model.Actor, id uint64) (*model.Booking, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return w.bookings.transition(ctx, actor, id, transitionStep{
		transition: model.TransitionComplete,
		action:     model.ActionUpdated,
		authorize:  adminOnly,
	})
}

// BulkApprove approves each id independently, in order, each in its own
// transaction.  Ids that are not pending are skipped and reported; a
// failure on one id never undoes the others.  Only a non-administrator
// caller or an invalid id list fails the whole call.
func (w *ApprovalWorkflow) BulkApprove(ctx context.Context, actor model.Actor, ids []uint64) (*BulkResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, validationf("booking_ids must not be empty")
	}
	if len(ids) > maxBulkApprove {
		return nil, validationf("at most %d booking_ids per request", maxBulkApprove)
	}

	res := &BulkResult{Results: make([]BulkItem, 0, len(ids))}
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		item := BulkItem{BookingID: id}
		if _, dup := seen[id]; dup {
			item.Outcome = OutcomeSkipped
			item.Error = KindValidation
			item.Reason = "duplicate id in request"
			res.Results = append(res.Results, item)
			metrics.IncBulkApproveItem(item.Outcome)
			continue
		}
		seen[id] = struct{}{}

		_, err := w.Approve(ctx, actor, id)
		switch kind, domain := KindOf(err); {
		case err == nil:
			item.Outcome = OutcomeApproved
			res.ApprovedCount++
		case domain && kind == KindState:
			item.Outcome = OutcomeSkipped
			item.Error = kind
			item.Reason = ReasonOf(err)
		case domain:
			item.Outcome = OutcomeFailed
			item.Error = kind
			item.Reason = ReasonOf(err)
		default:
			item.Outcome = OutcomeFailed
			item.Reason = "internal error"
		}
		metrics.IncBulkApproveItem(item.Outcome)
		res.Results = append(res.Results, item)
	}
	w.log.Info().
		Uint64("actor_id", actor.ID).
		Int("requested", len(ids)).
		Int("approved", res.ApprovedCount).
		Msg("bulk approve finished")
	return res, nil
}
