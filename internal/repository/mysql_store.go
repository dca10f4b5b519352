package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/room-booking/internal/model"
)

// MySQLStore implements Store on top of the room, booking and history
// repositories.
type MySQLStore struct {
	db       *sql.DB
	Rooms    *RoomRepo
	Bookings *BookingRepo
	History  *HistoryRepo
}

// NewMySQLStore wires the repositories around one connection pool.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	if db == nil {
		panic("nil db passed to NewMySQLStore")
	}
	return &MySQLStore{
		db:       db,
		Rooms:    NewRoomRepo(db),
		Bookings: NewBookingRepo(db),
		History:  NewHistoryRepo(db),
	}
}

// DB exposes the underlying handle.
func (s *MySQLStore) DB() *sql.DB { return s.db }

// InTx begins a transaction, runs fn and commits when fn succeeds.  The
// rollback is deferred and guarded by a committed flag so every early
// return releases the row locks taken inside fn.
func (s *MySQLStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&mysqlTx{tx: tx, s: s}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapMySQLError(err)
	}
	committed = true
	return nil
}

func (s *MySQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *MySQLStore) GetRoom(ctx context.Context, id uint64) (*model.Room, error) {
	return s.Rooms.GetByID(ctx, id)
}

func (s *MySQLStore) GetRoomByCode(ctx context.Context, code string) (*model.Room, error) {
	return s.Rooms.GetByCode(ctx, code)
}

func (s *MySQLStore) ListRooms(ctx context.Context, f RoomFilter) ([]model.Room, error) {
	return s.Rooms.List(ctx, f)
}

func (s *MySQLStore) InsertRoom(ctx context.Context, r *model.Room) error {
	return s.Rooms.Create(ctx, r)
}

func (s *MySQLStore) UpdateRoom(ctx context.Context, r *model.Room) error {
	return s.Rooms.Update(ctx, r)
}

func (s *MySQLStore) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	return s.Bookings.GetByID(ctx, id)
}

func (s *MySQLStore) ListBookings(ctx context.Context, f BookingFilter) ([]model.BookingView, error) {
	return s.Bookings.List(ctx, f)
}

func (s *MySQLStore) ActiveBookings(ctx context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Booking, error) {
	return s.Bookings.Active(ctx, nil, roomID, start, end, excludeID)
}

func (s *MySQLStore) ListHistory(ctx context.Context, bookingID uint64) ([]model.HistoryEntry, error) {
	return s.History.ListByBooking(ctx, bookingID)
}

// mysqlTx adapts *sql.Tx to the Tx contract.
type mysqlTx struct {
	tx *sql.Tx
	s  *MySQLStore
}

func (t *mysqlTx) LockRoom(ctx context.Context, id uint64) (*model.Room, error) {
	return t.s.Rooms.LockTx(ctx, t.tx, id)
}

func (t *mysqlTx) LockBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	return t.s.Bookings.LockTx(ctx, t.tx, id)
}

func (t *mysqlTx) ActiveBookings(ctx context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Booking, error) {
	return t.s.Bookings.Active(ctx, t.tx, roomID, start, end, excludeID)
}

func (t *mysqlTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	return t.s.Bookings.CreateTx(ctx, t.tx, b)
}

func (t *mysqlTx) UpdateBooking(ctx context.Context, b *model.Booking) error {
	return t.s.Bookings.UpdateTx(ctx, t.tx, b)
}

func (t *mysqlTx) AppendHistory(ctx context.Context, e *model.HistoryEntry) error {
	return t.s.History.AppendTx(ctx, t.tx, e)
}

var (
	_ Store = (*MySQLStore)(nil)
	_ Tx    = (*mysqlTx)(nil)
)
