package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/repository"
)

// maxCalendarDays bounds the range a calendar view may span.
const maxCalendarDays = 62

// RangeFilter narrows ListByRange.  Zero values disable a criterion.
type RangeFilter struct {
	RoomID uint64
	Status model.BookingStatus
}

// BookingDetail is one booking with its complete audit trail.
type BookingDetail struct {
	Booking model.BookingView    `json:"booking"`
	History []model.HistoryEntry `json:"history"`
}

// CalendarRoom groups the bookings of one room on one day.
type CalendarRoom struct {
	RoomID   uint64              `json:"room_id"`
	RoomCode string              `json:"room_code"`
	RoomName string              `json:"room_name"`
	Bookings []model.BookingView `json:"bookings"`
}

// CalendarDay holds the rooms with bookings on one UTC date.
type CalendarDay struct {
	Date  string         `json:"date"`
	Rooms []CalendarRoom `json:"rooms"`
}

// Availability answers whether a room is free for a window.
type Availability struct {
	RoomID    uint64          `json:"room_id"`
	Start     time.Time       `json:"start_time"`
	End       time.Time       `json:"end_time"`
	Available bool            `json:"available"`
	Conflicts []model.Booking `json:"conflicts"`
}

// QueryService serves list, detail and calendar views.  It only reads
// committed state.
type QueryService struct {
	store   repository.Store
	audit   *AuditTrail
	checker *ConflictChecker
}

// NewQueryService returns a QueryService reading from store.
func NewQueryService(store repository.Store, audit *AuditTrail, checker *ConflictChecker) *QueryService {
	if store == nil || audit == nil || checker == nil {
		panic("nil dependency passed to NewQueryService")
	}
	return &QueryService{store: store, audit: audit, checker: checker}
}

// ListByRange returns bookings intersecting [from, to), denormalized with
// room display fields and ordered by start time.  Either bound may be
// the zero time.
func (q *QueryService) ListByRange(ctx context.Context, from, to time.Time, f RangeFilter) ([]model.BookingView, error) {
	filter := repository.BookingFilter{RoomID: f.RoomID}
	if !from.IsZero() {
		t := from.UTC()
		filter.From = &t
	}
	if !to.IsZero() {
		t := to.UTC()
		filter.To = &t
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, validationf("date_from must be before date_to")
	}
	if f.Status != "" {
		if !f.Status.Valid() {
			return nil, validationf("unknown status %q", f.Status)
		}
		filter.Statuses = []model.BookingStatus{f.Status}
	}
	out, err := q.store.ListBookings(ctx, filter)
	if err != nil {
		return nil, translateStoreErr("list bookings", err)
	}
	return out, nil
}

// ListMine returns the actor's own bookings, optionally limited to one
// status.
func (q *QueryService) ListMine(ctx context.Context, actor model.Actor, status model.BookingStatus) ([]model.BookingView, error) {
	if actor.ID == 0 {
		return nil, forbiddenf("an authenticated requester is required")
	}
	filter := repository.BookingFilter{RequesterID: actor.ID}
	if status != "" {
		if !status.Valid() {
			return nil, validationf("unknown status %q", status)
		}
		filter.Statuses = []model.BookingStatus{status}
	}
	out, err := q.store.ListBookings(ctx, filter)
	if err != nil {
		return nil, translateStoreErr("list my bookings", err)
	}
	return out, nil
}

// ListPending returns every pending booking.  Administrators only.
func (q *QueryService) ListPending(ctx context.Context, actor model.Actor) ([]model.BookingView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	out, err := q.store.ListBookings(ctx, repository.BookingFilter{
		Statuses: []model.BookingStatus{model.StatusPending},
	})
	if err != nil {
		return nil, translateStoreErr("list pending bookings", err)
	}
	return out, nil
}

// GetByID returns one booking and its full history.
func (q *QueryService) GetByID(ctx context.Context, id uint64) (*BookingDetail, error) {
	b, err := q.store.GetBooking(ctx, id)
	if err != nil {
		return nil, translateStoreErr("get booking", err)
	}
	view := model.BookingView{Booking: *b}
	r, err := q.store.GetRoom(ctx, b.RoomID)
	switch {
	case err == nil:
		view.RoomCode = r.Code
		view.RoomName = r.Name
	case !errors.Is(err, repository.ErrRoomNotFound):
		return nil, translateStoreErr("get booking room", err)
	}
	history, err := q.audit.ListFor(ctx, id)
	if err != nil {
		return nil, err
	}
	return &BookingDetail{Booking: view, History: history}, nil
}

// Calendar groups the active bookings intersecting [from, to) by UTC day
// and room.  A booking spanning midnight appears on every day it covers.
// Days without bookings are included with an empty room list.
func (q *QueryService) Calendar(ctx context.Context, from, to time.Time, roomID uint64) ([]CalendarDay, error) {
	if from.IsZero() || to.IsZero() {
		return nil, validationf("date_from and date_to are required")
	}
	first := truncateDay(from.UTC())
	last := to.UTC()
	if !first.Before(last) {
		return nil, validationf("date_from must be before date_to")
	}
	days := int(truncateDay(last.Add(-time.Nanosecond)).Sub(first)/(24*time.Hour)) + 1
	if days > maxCalendarDays {
		return nil, validationf("calendar range must not exceed %d days", maxCalendarDays)
	}

	bookings, err := q.store.ListBookings(ctx, repository.BookingFilter{
		From:     &first,
		To:       &last,
		RoomID:   roomID,
		Statuses: model.ActiveStatuses,
	})
	if err != nil {
		return nil, translateStoreErr("calendar", err)
	}

	out := make([]CalendarDay, 0, days)
	for i := 0; i < days; i++ {
		dayStart := first.AddDate(0, 0, i)
		dayEnd := dayStart.AddDate(0, 0, 1)
		byRoom := make(map[uint64]*CalendarRoom)
		for _, b := range bookings {
			if !model.Overlaps(b.StartTime, b.EndTime, dayStart, dayEnd) {
				continue
			}
			cr, ok := byRoom[b.RoomID]
			if !ok {
				cr = &CalendarRoom{RoomID: b.RoomID, RoomCode: b.RoomCode, RoomName: b.RoomName}
				byRoom[b.RoomID] = cr
			}
			cr.Bookings = append(cr.Bookings, b)
		}
		rooms := make([]CalendarRoom, 0, len(byRoom))
		for _, cr := range byRoom {
			rooms = append(rooms, *cr)
		}
		sort.Slice(rooms, func(i, j int) bool { return rooms[i].RoomCode < rooms[j].RoomCode })
		out = append(out, CalendarDay{Date: dayStart.Format("2006-01-02"), Rooms: rooms})
	}
	return out, nil
}

// Availability reports whether roomID is free for [start, end) based on
// committed state.  The answer is advisory; Create re-checks under lock.
func (q *QueryService) Availability(ctx context.Context, roomID uint64, start, end time.Time) (*Availability, error) {
	if start.IsZero() || end.IsZero() {
		return nil, validationf("start_time and end_time are required")
	}
	if !start.Before(end) {
		return nil, validationf("start_time must be before end_time")
	}
	if _, err := q.store.GetRoom(ctx, roomID); err != nil {
		return nil, translateStoreErr("availability", err)
	}
	found, err := q.checker.Conflicts(ctx, q.store, roomID, start.UTC(), end.UTC(), 0)
	if err != nil {
		return nil, translateStoreErr("availability", err)
	}
	return &Availability{
		RoomID:    roomID,
		Start:     start.UTC(),
		End:       end.UTC(),
		Available: len(found) == 0,
		Conflicts: found,
	}, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
