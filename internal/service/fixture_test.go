package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/queue"
	"github.com/iliyamo/room-booking/internal/repository/memory"
)

var (
	admin = model.Actor{ID: 100, Role: model.RoleAdmin, Name: "Facilities"}
	alice = model.Actor{ID: 1, Role: model.RoleEmployee, Name: "Alice"}
	bob   = model.Actor{ID: 2, Role: model.RoleEmployee, Name: "Bob"}

	day0 = time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC)
)

// at returns day0 plus h hours and m minutes.
func at(h, m int) time.Time {
	return day0.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// tickingClock advances one second per reading so audit entries get
// distinct, ordered timestamps.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	store     *memory.Store
	catalog   *RoomCatalog
	audit     *AuditTrail
	bookings  *BookingService
	approvals *ApprovalWorkflow
	queries   *QueryService
	events    *recordingPublisher
	room      *model.Room
	other     *model.Room
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	clock := &tickingClock{now: time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)}
	pub := &recordingPublisher{}

	checker := NewConflictChecker()
	audit := NewAuditTrail(store)
	bookings := NewBookingService(store, checker, audit, pub, nil)
	bookings.SetClock(clock.Now)

	f := &fixture{
		store:     store,
		catalog:   NewRoomCatalog(store, nil),
		audit:     audit,
		bookings:  bookings,
		approvals: NewApprovalWorkflow(bookings),
		queries:   NewQueryService(store, audit, checker),
		events:    pub,
	}
	f.room = f.mustRoom(t, "B2-101", 8)
	f.other = f.mustRoom(t, "B2-102", 4)
	return f
}

func (f *fixture) mustRoom(t *testing.T, code string, capacity uint32) *model.Room {
	t.Helper()
	r, err := f.catalog.Create(context.Background(), admin, RoomInput{
		Code:     code,
		Name:     "Room " + code,
		Capacity: capacity,
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) request(roomID uint64, start, end time.Time) CreateRequest {
	return CreateRequest{
		RoomID:            roomID,
		Title:             "Sprint planning",
		Purpose:           model.PurposeMeeting,
		StartTime:         start,
		EndTime:           end,
		ExpectedAttendees: 4,
	}
}

func (f *fixture) mustCreate(t *testing.T, who model.Actor, roomID uint64, start, end time.Time) *model.Booking {
	t.Helper()
	b, err := f.bookings.Create(context.Background(), who, f.request(roomID, start, end))
	require.NoError(t, err)
	return b
}

func (f *fixture) mustGet(t *testing.T, id uint64) *model.Booking {
	t.Helper()
	b, err := f.store.GetBooking(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (f *fixture) actions(t *testing.T, id uint64) []model.HistoryAction {
	t.Helper()
	entries, err := f.audit.ListFor(context.Background(), id)
	require.NoError(t, err)
	out := make([]model.HistoryAction, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Action)
	}
	return out
}
