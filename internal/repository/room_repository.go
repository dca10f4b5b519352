package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/room-booking/internal/model"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// RoomRepo provides access to the rooms table.  Rooms are never deleted;
// deactivation is an update of is_active.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo constructs a RoomRepo with the given DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

const roomColumns = `id, code, name, location, capacity,
	has_projector, has_whiteboard, has_video_conference, has_sound_system,
	status, is_active, created_at, updated_at`

func scanRoom(s rowScanner) (*model.Room, error) {
	var r model.Room
	var status string
	err := s.Scan(&r.ID, &r.Code, &r.Name, &r.Location, &r.Capacity,
		&r.Equipment.Projector, &r.Equipment.Whiteboard, &r.Equipment.VideoConference, &r.Equipment.SoundSystem,
		&status, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Status = model.RoomStatus(status)
	return &r, nil
}

// GetByID returns the room with the given id or ErrRoomNotFound.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	room, err := scanRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	return room, err
}

// GetByCode returns the room with the given unique code or ErrRoomNotFound.
func (r *RoomRepo) GetByCode(ctx context.Context, code string) (*model.Room, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE code = ?`, code)
	room, err := scanRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	return room, err
}

// List returns rooms ordered by code.  The filter's zero value lists the
// whole catalog including deactivated rooms.
func (r *RoomRepo) List(ctx context.Context, f RoomFilter) ([]model.Room, error) {
	var where []string
	var args []any
	if f.ActiveOnly {
		where = append(where, "is_active = 1")
	}
	if f.MinCapacity > 0 {
		where = append(where, "capacity >= ?")
		args = append(args, f.MinCapacity)
	}
	q := `SELECT ` + roomColumns + ` FROM rooms`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY code"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *room)
	}
	return out, rows.Err()
}

// Create inserts a new room and sets its generated ID.  A duplicate code
// surfaces as ErrConflict.
func (r *RoomRepo) Create(ctx context.Context, room *model.Room) error {
	const q = `INSERT INTO rooms (code, name, location, capacity,
		has_projector, has_whiteboard, has_video_conference, has_sound_system,
		status, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, room.Code, room.Name, room.Location, room.Capacity,
		room.Equipment.Projector, room.Equipment.Whiteboard, room.Equipment.VideoConference, room.Equipment.SoundSystem,
		string(room.Status), room.IsActive, room.CreatedAt, room.UpdatedAt)
	if err != nil {
		return mapMySQLError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	room.ID = uint64(id)
	return nil
}

// Update overwrites every mutable column of the room.
func (r *RoomRepo) Update(ctx context.Context, room *model.Room) error {
	const q = `UPDATE rooms SET code = ?, name = ?, location = ?, capacity = ?,
		has_projector = ?, has_whiteboard = ?, has_video_conference = ?, has_sound_system = ?,
		status = ?, is_active = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, room.Code, room.Name, room.Location, room.Capacity,
		room.Equipment.Projector, room.Equipment.Whiteboard, room.Equipment.VideoConference, room.Equipment.SoundSystem,
		string(room.Status), room.IsActive, room.UpdatedAt, room.ID)
	if err != nil {
		return mapMySQLError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports 0 affected rows when nothing changed; distinguish
		// that from a missing row.
		if _, err := r.GetByID(ctx, room.ID); err != nil {
			return err
		}
	}
	return nil
}

// LockTx reads the room inside tx with SELECT ... FOR UPDATE.  Concurrent
// transactions that lock the same room block until tx ends, which
// serialises conflict checks per room.
func (r *RoomRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Room, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ? FOR UPDATE`, id)
	room, err := scanRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	return room, mapMySQLError(err)
}
