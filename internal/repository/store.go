package repository

import (
	"context"
	"time"

	"github.com/iliyamo/room-booking/internal/model"
)

// RoomFilter narrows room listings.  Zero values disable a criterion.
type RoomFilter struct {
	ActiveOnly  bool
	MinCapacity uint32
}

// BookingFilter narrows booking listings.  From and To select bookings
// whose window intersects [From, To); either bound may be nil.  A zero
// RoomID or RequesterID and an empty Statuses slice match everything.
type BookingFilter struct {
	From        *time.Time
	To          *time.Time
	RoomID      uint64
	RequesterID uint64
	Statuses    []model.BookingStatus
}

// Store is the persistence contract of the booking core.  Reads outside
// InTx see only committed state.  Every check-then-write sequence must run
// inside InTx so the implementation can serialise it per room.
type Store interface {
	// InTx runs fn inside one atomic unit of work.  If fn returns an
	// error nothing it wrote becomes visible; otherwise all writes are
	// committed together.  fn must not call other Store methods.
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error

	GetRoom(ctx context.Context, id uint64) (*model.Room, error)
	GetRoomByCode(ctx context.Context, code string) (*model.Room, error)
	ListRooms(ctx context.Context, f RoomFilter) ([]model.Room, error)
	InsertRoom(ctx context.Context, r *model.Room) error
	UpdateRoom(ctx context.Context, r *model.Room) error

	GetBooking(ctx context.Context, id uint64) (*model.Booking, error)
	ListBookings(ctx context.Context, f BookingFilter) ([]model.BookingView, error)
	ActiveBookings(ctx context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Booking, error)

	ListHistory(ctx context.Context, bookingID uint64) ([]model.HistoryEntry, error)
}

// Tx is the transactional view handed to Store.InTx callbacks.
type Tx interface {
	// LockRoom loads the room and holds an exclusive lock on it until the
	// transaction ends.  All booking writes that depend on a room's
	// schedule take this lock first.
	LockRoom(ctx context.Context, id uint64) (*model.Room, error)
	// LockBooking loads the booking and holds an exclusive lock on it.
	LockBooking(ctx context.Context, id uint64) (*model.Booking, error)
	// ActiveBookings returns bookings on roomID whose status is active and
	// whose window intersects [start, end), skipping excludeID.
	ActiveBookings(ctx context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Booking, error)
	InsertBooking(ctx context.Context, b *model.Booking) error
	UpdateBooking(ctx context.Context, b *model.Booking) error
	AppendHistory(ctx context.Context, e *model.HistoryEntry) error
}
