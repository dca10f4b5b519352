// Package memory provides an in-process implementation of
// repository.Store.  Transactions hold the store mutex for their whole
// duration and stage their writes, which are applied only on commit.
// It backs service tests and local runs without MySQL.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/repository"
)

// Store keeps rooms, bookings and history in maps guarded by one mutex.
type Store struct {
	mu            sync.Mutex
	rooms         map[uint64]model.Room
	bookings      map[uint64]model.Booking
	history       []model.HistoryEntry
	nextRoomID    uint64
	nextBookingID uint64
	nextHistoryID uint64
	appendHook    func(*model.HistoryEntry) error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		rooms:         make(map[uint64]model.Room),
		bookings:      make(map[uint64]model.Booking),
		nextRoomID:    1,
		nextBookingID: 1,
		nextHistoryID: 1,
	}
}

// SetAppendHook installs fn to run before every staged history append.
// A non-nil error from fn fails the append and therefore the transaction.
func (s *Store) SetAppendHook(fn func(*model.HistoryEntry) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendHook = fn
}

// InTx serialises fn against every other store operation.
func (s *Store) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{
		s:             s,
		bookings:      make(map[uint64]model.Booking),
		nextBookingID: s.nextBookingID,
		nextHistoryID: s.nextHistoryID,
	}
	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for id, b := range t.bookings {
		s.bookings[id] = b
	}
	s.history = append(s.history, t.history...)
	s.nextBookingID = t.nextBookingID
	s.nextHistoryID = t.nextHistoryID
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) GetRoom(_ context.Context, id uint64) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	return &r, nil
}

func (s *Store) GetRoomByCode(_ context.Context, code string) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		if strings.EqualFold(r.Code, code) {
			r := r
			return &r, nil
		}
	}
	return nil, repository.ErrRoomNotFound
}

func (s *Store) ListRooms(_ context.Context, f repository.RoomFilter) ([]model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		if f.ActiveOnly && !r.IsActive {
			continue
		}
		if r.Capacity < f.MinCapacity {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) InsertRoom(_ context.Context, r *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rooms {
		if strings.EqualFold(existing.Code, r.Code) {
			return repository.ErrConflict
		}
	}
	r.ID = s.nextRoomID
	s.nextRoomID++
	s.rooms[r.ID] = *r
	return nil
}

func (s *Store) UpdateRoom(_ context.Context, r *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[r.ID]; !ok {
		return repository.ErrRoomNotFound
	}
	for id, existing := range s.rooms {
		if id != r.ID && strings.EqualFold(existing.Code, r.Code) {
			return repository.ErrConflict
		}
	}
	s.rooms[r.ID] = *r
	return nil
}

func (s *Store) GetBooking(_ context.Context, id uint64) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	return &b, nil
}

func (s *Store) ListBookings(_ context.Context, f repository.BookingFilter) ([]model.BookingView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.BookingView, 0)
	for _, b := range s.bookings {
		if !matches(b, f) {
			continue
		}
		room := s.rooms[b.RoomID]
		out = append(out, model.BookingView{Booking: b, RoomCode: room.Code, RoomName: room.Name})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ActiveBookings(_ context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return active(s.bookings, nil, roomID, start, end, excludeID), nil
}

func (s *Store) ListHistory(_ context.Context, bookingID uint64) ([]model.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.HistoryEntry, 0)
	for _, e := range s.history {
		if e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func matches(b model.Booking, f repository.BookingFilter) bool {
	if f.From != nil && !b.EndTime.After(*f.From) {
		return false
	}
	if f.To != nil && !b.StartTime.Before(*f.To) {
		return false
	}
	if f.RoomID != 0 && b.RoomID != f.RoomID {
		return false
	}
	if f.RequesterID != 0 && b.RequesterID != f.RequesterID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if b.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// active merges committed bookings with staged ones (staged wins) and
// returns those that hold a window on roomID intersecting [start, end).
func active(committed, staged map[uint64]model.Booking, roomID uint64, start, end time.Time, excludeID uint64) []model.Booking {
	out := make([]model.Booking, 0)
	consider := func(b model.Booking) {
		if b.ID == excludeID || b.RoomID != roomID || !b.Status.Active() {
			return
		}
		if model.Overlaps(b.StartTime, b.EndTime, start, end) {
			out = append(out, b)
		}
	}
	for id, b := range committed {
		if _, ok := staged[id]; ok {
			continue
		}
		consider(b)
	}
	for _, b := range staged {
		consider(b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// tx stages writes made inside Store.InTx.  The store mutex is held by
// InTx, so tx methods read the maps directly.
type tx struct {
	s             *Store
	bookings      map[uint64]model.Booking
	history       []model.HistoryEntry
	nextBookingID uint64
	nextHistoryID uint64
}

func (t *tx) LockRoom(_ context.Context, id uint64) (*model.Room, error) {
	r, ok := t.s.rooms[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	return &r, nil
}

func (t *tx) LockBooking(_ context.Context, id uint64) (*model.Booking, error) {
	if b, ok := t.bookings[id]; ok {
		return &b, nil
	}
	b, ok := t.s.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	return &b, nil
}

func (t *tx) ActiveBookings(_ context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Booking, error) {
	return active(t.s.bookings, t.bookings, roomID, start, end, excludeID), nil
}

func (t *tx) InsertBooking(_ context.Context, b *model.Booking) error {
	if _, ok := t.s.rooms[b.RoomID]; !ok {
		return repository.ErrRoomNotFound
	}
	b.ID = t.nextBookingID
	t.nextBookingID++
	t.bookings[b.ID] = *b
	return nil
}

func (t *tx) UpdateBooking(_ context.Context, b *model.Booking) error {
	_, staged := t.bookings[b.ID]
	_, committed := t.s.bookings[b.ID]
	if !staged && !committed {
		return repository.ErrBookingNotFound
	}
	t.bookings[b.ID] = *b
	return nil
}

func (t *tx) AppendHistory(_ context.Context, e *model.HistoryEntry) error {
	if t.s.appendHook != nil {
		if err := t.s.appendHook(e); err != nil {
			return err
		}
	}
	e.ID = t.nextHistoryID
	t.nextHistoryID++
	t.history = append(t.history, *e)
	return nil
}

var (
	_ repository.Store = (*Store)(nil)
	_ repository.Tx    = (*tx)(nil)
)
