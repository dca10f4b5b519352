package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/iliyamo/room-booking/internal/metrics"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/repository"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 2000
	maxReasonLen      = 500
)

// CreateRequest is a candidate booking submitted by a requester.  The
// requester is taken from the actor, never from the request.
type CreateRequest struct {
	RoomID            uint64
	Title             string
	Description       string
	Purpose           model.Purpose
	StartTime         time.Time
	EndTime           time.Time
	ExpectedAttendees uint32
	DepartmentID      *uint64
}

// UpdatePatch carries the fields to change on a pending booking.  Nil
// fields are left untouched.
type UpdatePatch struct {
	RoomID            *uint64
	Title             *string
	Description       *string
	Purpose           *model.Purpose
	StartTime         *time.Time
	EndTime           *time.Time
	ExpectedAttendees *uint32
	DepartmentID      *uint64
}

// BookingService validates booking requests, enforces the lifecycle and
// persists every change together with its audit entry.  Writes that
// depend on a room's schedule run inside one store transaction that
// first locks the room, so two overlapping requests can never both pass
// the conflict check.
type BookingService struct {
	store   repository.Store
	checker *ConflictChecker
	audit   *AuditTrail
	events  EventPublisher
	log     *zerolog.Logger
	now     func() time.Time
}

// NewBookingService wires a BookingService.  events may be nil to disable
// publishing; log may be nil to discard logs.
func NewBookingService(store repository.Store, checker *ConflictChecker, audit *AuditTrail, events EventPublisher, log *zerolog.Logger) *BookingService {
	if store == nil || checker == nil || audit == nil {
		panic("nil dependency passed to NewBookingService")
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &BookingService{store: store, checker: checker, audit: audit, events: events, log: log, now: time.Now}
}

// SetClock replaces the time source used for timestamps and audit
// entries.
func (s *BookingService) SetClock(now func() time.Time) {
	s.now = now
	s.audit.now = now
}

// Create validates req and, when the room is free, stores a pending
// booking and its "created" audit entry as one atomic unit.
func (s *BookingService) Create(ctx context.Context, actor model.Actor, req CreateRequest) (*model.Booking, error) {
	if actor.ID == 0 {
		return nil, forbiddenf("an authenticated requester is required")
	}
	now := s.now().UTC()
	b := &model.Booking{
		RoomID:            req.RoomID,
		RequesterID:       actor.ID,
		RequesterName:     strings.TrimSpace(actor.Name),
		DepartmentID:      req.DepartmentID,
		Title:             strings.TrimSpace(req.Title),
		Description:       strings.TrimSpace(req.Description),
		Purpose:           req.Purpose,
		StartTime:         req.StartTime.UTC(),
		EndTime:           req.EndTime.UTC(),
		ExpectedAttendees: req.ExpectedAttendees,
		Status:            model.StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if b.Purpose == "" {
		b.Purpose = model.PurposeMeeting
	}
	if err := validateBooking(b); err != nil {
		return nil, err
	}

	var room *model.Room
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		r, err := s.lockBookableRoom(ctx, tx, b.RoomID)
		if err != nil {
			return err
		}
		if err := s.ensureFree(ctx, tx, b, 0); err != nil {
			return err
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}
		if _, err := s.audit.Record(ctx, tx, b.ID, model.ActionCreated, &actor, model.HistoryDetails{
			NewStatus: model.StatusPending,
		}); err != nil {
			return err
		}
		room = r
		return nil
	})
	if err != nil {
		return nil, s.fail("create booking", err)
	}

	metrics.IncBookingCreated()
	s.log.Info().
		Uint64("booking_id", b.ID).
		Uint64("room_id", b.RoomID).
		Uint64("requester_id", b.RequesterID).
		Time("start", b.StartTime).
		Time("end", b.EndTime).
		Msg("booking created")
	if room != nil && room.Capacity > 0 && b.ExpectedAttendees > room.Capacity {
		s.log.Debug().
			Uint64("booking_id", b.ID).
			Uint32("attendees", b.ExpectedAttendees).
			Uint32("capacity", room.Capacity).
			Msg("expected attendees exceed room capacity")
	}
	emit(ctx, s.events, s.log, model.ActionCreated, b, actor, "", "", now)
	return b, nil
}

// Update applies patch to a pending booking.  Only the requester or an
// administrator may edit.  When the room or window changes the room must
// still accept bookings and the new window is re-checked against every
// other active booking on it.  A patch that repeats the current values
// returns the booking as is.
func (s *BookingService) Update(ctx context.Context, actor model.Actor, id uint64, patch UpdatePatch) (*model.Booking, error) {
	var (
		updated *model.Booking
		changed map[string]string
	)
	now := s.now().UTC()
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		b, err := tx.LockBooking(ctx, id)
		if err != nil {
			return err
		}
		if !actor.Owns(b) && !actor.IsAdmin() {
			return forbiddenf("only the requester or an administrator may edit booking %d", id)
		}
		if !b.Status.Editable() {
			return statef("booking %d is %s; only pending bookings can be edited", id, b.Status)
		}

		if patch.empty() {
			return validationf("no changes supplied")
		}
		next := *b
		changed = applyPatch(&next, patch)
		if len(changed) == 0 {
			updated = b
			return nil
		}
		if err := validateBooking(&next); err != nil {
			return err
		}
		if movesSchedule(changed) {
			if _, err := s.lockBookableRoom(ctx, tx, next.RoomID); err != nil {
				return err
			}
			if err := s.ensureFree(ctx, tx, &next, next.ID); err != nil {
				return err
			}
		}
		next.UpdatedAt = now
		if err := tx.UpdateBooking(ctx, &next); err != nil {
			return err
		}
		if _, err := s.audit.Record(ctx, tx, next.ID, model.ActionUpdated, &actor, model.HistoryDetails{
			Fields: changed,
		}); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, s.fail("update booking", err)
	}
	if len(changed) == 0 {
		return updated, nil
	}

	metrics.IncTransition("update")
	s.log.Info().Uint64("booking_id", id).Uint64("actor_id", actor.ID).Int("fields", len(changed)).Msg("booking updated")
	emit(ctx, s.events, s.log, model.ActionUpdated, updated, actor, updated.Status, "", now)
	return updated, nil
}

// Cancel moves a pending or confirmed booking to cancelled.  Only the
// requester or an administrator may cancel.
func (s *BookingService) Cancel(ctx context.Context, actor model.Actor, id uint64, reason string) (*model.Booking, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > maxReasonLen {
		return nil, validationf("reason must be at most %d characters", maxReasonLen)
	}
	return s.transition(ctx, actor, id, transitionStep{
		transition: model.TransitionCancel,
		action:     model.ActionCancelled,
		reason:     reason,
		authorize: func(a model.Actor, b *model.Booking) error {
			if !a.Owns(b) && !a.IsAdmin() {
				return forbiddenf("only the requester or an administrator may cancel booking %d", b.ID)
			}
			return nil
		},
		apply: func(b *model.Booking, a model.Actor, at time.Time) {
			by := a.ID
			b.CancelledBy = &by
			b.CancelledAt = &at
			b.CancelReason = reason
		},
	})
}

// transitionStep describes one status change resolved through the
// central transition table.
type transitionStep struct {
	transition model.Transition
	action     model.HistoryAction
	reason     string
	authorize  func(model.Actor, *model.Booking) error
	apply      func(*model.Booking, model.Actor, time.Time)
}

// transition locks the booking, checks the actor, resolves the target
// status in the transition table and writes the booking together with
// its audit entry.  Nothing is written when any check fails.
func (s *BookingService) transition(ctx context.Context, actor model.Actor, id uint64, step transitionStep) (*model.Booking, error) {
	var (
		updated *model.Booking
		old     model.BookingStatus
	)
	now := s.now().UTC()
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		b, err := tx.LockBooking(ctx, id)
		if err != nil {
			return err
		}
		if step.authorize != nil {
			if err := step.authorize(actor, b); err != nil {
				return err
			}
		}
		to, ok := model.Next(b.Status, step.transition)
		if !ok {
			return statef("cannot %s booking %d in status %s", step.transition, id, b.Status)
		}
		old = b.Status
		b.Status = to
		b.UpdatedAt = now
		if step.apply != nil {
			step.apply(b, actor, now)
		}
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		if _, err := s.audit.Record(ctx, tx, b.ID, step.action, &actor, model.HistoryDetails{
			OldStatus: old,
			NewStatus: to,
			Reason:    step.reason,
		}); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, s.fail(string(step.transition)+" booking", err)
	}

	metrics.IncTransition(string(step.transition))
	s.log.Info().
		Uint64("booking_id", id).
		Uint64("actor_id", actor.ID).
		Str("from", string(old)).
		Str("to", string(updated.Status)).
		Msg("booking " + string(step.action))
	emit(ctx, s.events, s.log, step.action, updated, actor, old, step.reason, now)
	return updated, nil
}

// lockBookableRoom locks roomID and rejects rooms that do not accept
// bookings.
func (s *BookingService) lockBookableRoom(ctx context.Context, tx repository.Tx, roomID uint64) (*model.Room, error) {
	r, err := tx.LockRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !r.Bookable() {
		if !r.IsActive {
			return nil, validationf("room %s is deactivated", r.Code)
		}
		return nil, validationf("room %s is %s and does not accept bookings", r.Code, r.Status)
	}
	return r, nil
}

// ensureFree fails with a conflict error when b's window overlaps an
// active booking other than excludeID on b's room.
func (s *BookingService) ensureFree(ctx context.Context, tx repository.Tx, b *model.Booking, excludeID uint64) error {
	found, err := s.checker.Conflicts(ctx, tx, b.RoomID, b.StartTime, b.EndTime, excludeID)
	if err != nil {
		return err
	}
	if len(found) > 0 {
		c := found[0]
		return conflictf("room is already booked from %s to %s (booking %d)",
			c.StartTime.UTC().Format(time.RFC3339), c.EndTime.UTC().Format(time.RFC3339), c.ID)
	}
	return nil
}

// fail translates err for the caller and counts conflicts.
func (s *BookingService) fail(op string, err error) error {
	err = translateStoreErr(op, err)
	if kind, ok := KindOf(err); ok {
		if kind == KindConflict {
			metrics.IncConflict()
		}
		s.log.Debug().Str("op", op).Str("kind", string(kind)).Msg(ReasonOf(err))
		return err
	}
	s.log.Error().Err(err).Str("op", op).Msg("booking operation failed")
	return err
}

// validateBooking checks the fields every stored booking must satisfy.
func validateBooking(b *model.Booking) error {
	if b.RoomID == 0 {
		return validationf("room_id is required")
	}
	if b.Title == "" {
		return validationf("title is required")
	}
	if utf8.RuneCountInString(b.Title) > maxTitleLen {
		return validationf("title must be at most %d characters", maxTitleLen)
	}
	if utf8.RuneCountInString(b.Description) > maxDescriptionLen {
		return validationf("description must be at most %d characters", maxDescriptionLen)
	}
	if !b.Purpose.Valid() {
		return validationf("unknown purpose %q", b.Purpose)
	}
	if b.StartTime.IsZero() || b.EndTime.IsZero() {
		return validationf("start_time and end_time are required")
	}
	if !b.StartTime.Before(b.EndTime) {
		return validationf("start_time must be before end_time")
	}
	if b.ExpectedAttendees < 1 {
		return validationf("expected_attendees must be at least 1")
	}
	return nil
}

// applyPatch copies the non-nil fields of p into b and reports the
// fields that actually changed as "old -> new".
func (p UpdatePatch) empty() bool {
	return p.RoomID == nil && p.Title == nil && p.Description == nil && p.Purpose == nil &&
		p.StartTime == nil && p.EndTime == nil && p.ExpectedAttendees == nil && p.DepartmentID == nil
}

// movesSchedule reports whether a patch touched the room or the window.
// Other edits leave the booking's slot as it was and skip the room gate.
func movesSchedule(changed map[string]string) bool {
	for _, f := range []string{"room_id", "start_time", "end_time"} {
		if _, ok := changed[f]; ok {
			return true
		}
	}
	return false
}

func applyPatch(b *model.Booking, p UpdatePatch) map[string]string {
	changed := make(map[string]string)
	note := func(field, from, to string) {
		if from != to {
			changed[field] = fmt.Sprintf("%s -> %s", from, to)
		}
	}
	if p.RoomID != nil {
		note("room_id", strconv.FormatUint(b.RoomID, 10), strconv.FormatUint(*p.RoomID, 10))
		b.RoomID = *p.RoomID
	}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		note("title", b.Title, t)
		b.Title = t
	}
	if p.Description != nil {
		d := strings.TrimSpace(*p.Description)
		note("description", b.Description, d)
		b.Description = d
	}
	if p.Purpose != nil {
		note("purpose", string(b.Purpose), string(*p.Purpose))
		b.Purpose = *p.Purpose
	}
	if p.StartTime != nil {
		t := p.StartTime.UTC()
		note("start_time", b.StartTime.Format(time.RFC3339), t.Format(time.RFC3339))
		b.StartTime = t
	}
	if p.EndTime != nil {
		t := p.EndTime.UTC()
		note("end_time", b.EndTime.Format(time.RFC3339), t.Format(time.RFC3339))
		b.EndTime = t
	}
	if p.ExpectedAttendees != nil {
		note("expected_attendees", strconv.FormatUint(uint64(b.ExpectedAttendees), 10), strconv.FormatUint(uint64(*p.ExpectedAttendees), 10))
		b.ExpectedAttendees = *p.ExpectedAttendees
	}
	if p.DepartmentID != nil {
		from := ""
		if b.DepartmentID != nil {
			from = strconv.FormatUint(*b.DepartmentID, 10)
		}
		note("department_id", from, strconv.FormatUint(*p.DepartmentID, 10))
		id := *p.DepartmentID
		b.DepartmentID = &id
	}
	return changed
}
