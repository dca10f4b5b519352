package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/model"
)

var (
	roomCols = []string{"id", "code", "name", "location", "capacity",
		"has_projector", "has_whiteboard", "has_video_conference", "has_sound_system",
		"status", "is_active", "created_at", "updated_at"}
	bookingCols = []string{"id", "room_id", "requester_id", "requester_name", "department_id",
		"title", "description", "purpose", "start_time", "end_time", "expected_attendees",
		"status", "approved_by", "approved_at", "rejection_reason",
		"cancelled_by", "cancelled_at", "cancel_reason", "created_at", "updated_at"}
	stamp = time.Date(2030, 1, 10, 8, 0, 0, 0, time.UTC)
)

func setupMockDB(t *testing.T) (*MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})
	return NewMySQLStore(db), mock
}

func roomRow() *sqlmock.Rows {
	return sqlmock.NewRows(roomCols).
		AddRow(1, "B2-101", "Small room", "Floor 2", 8, true, false, true, false, "available", true, stamp, stamp)
}

func TestMapMySQLError(t *testing.T) {
	for _, n := range []uint16{1062, 1205, 1213} {
		err := mapMySQLError(&mysql.MySQLError{Number: n, Message: "lost"})
		assert.ErrorIs(t, err, ErrConflict, "error %d", n)
	}

	other := &mysql.MySQLError{Number: 1146, Message: "no such table"}
	assert.Same(t, other, mapMySQLError(other))

	plain := errors.New("boom")
	assert.Equal(t, plain, mapMySQLError(plain))
	assert.NoError(t, mapMySQLError(nil))
}

func TestRoomRepo_GetByID(t *testing.T) {
	s, mock := setupMockDB(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT .+ FROM rooms WHERE id = \?`).
		WithArgs(1).
		WillReturnRows(roomRow())
	room, err := s.GetRoom(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "B2-101", room.Code)
	assert.Equal(t, uint32(8), room.Capacity)
	assert.True(t, room.Equipment.Projector)
	assert.True(t, room.Equipment.VideoConference)
	assert.Equal(t, model.RoomAvailable, room.Status)

	mock.ExpectQuery(`SELECT .+ FROM rooms WHERE id = \?`).
		WithArgs(2).
		WillReturnError(sql.ErrNoRows)
	_, err = s.GetRoom(ctx, 2)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepo_CreateDuplicateCode(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectExec(`INSERT INTO rooms`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'B2-101'"})
	err := s.InsertRoom(context.Background(), &model.Room{Code: "B2-101", Name: "x", Status: model.RoomAvailable})
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_InTxCommits(t *testing.T) {
	s, mock := setupMockDB(t)
	start := stamp.Add(2 * time.Hour)
	end := start.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM rooms WHERE id = \? FOR UPDATE`).
		WithArgs(1).
		WillReturnRows(roomRow())
	mock.ExpectQuery(`FROM bookings b\s+WHERE b.room_id = \?`).
		WillReturnRows(sqlmock.NewRows(bookingCols))
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(`INSERT INTO booking_history`).
		WithArgs(42, "created", 7, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	actorID := uint64(7)
	b := &model.Booking{
		RoomID: 1, RequesterID: 7, RequesterName: "alice", Title: "Sync",
		Purpose: model.PurposeMeeting, StartTime: start, EndTime: end,
		Status: model.StatusPending, CreatedAt: stamp, UpdatedAt: stamp,
	}
	err := s.InTx(context.Background(), func(tx Tx) error {
		if _, err := tx.LockRoom(context.Background(), 1); err != nil {
			return err
		}
		overlapping, err := tx.ActiveBookings(context.Background(), 1, start, end, 0)
		if err != nil {
			return err
		}
		require.Empty(t, overlapping)
		if err := tx.InsertBooking(context.Background(), b); err != nil {
			return err
		}
		return tx.AppendHistory(context.Background(), &model.HistoryEntry{
			BookingID: b.ID, Action: model.ActionCreated, ActorID: &actorID, CreatedAt: stamp,
		})
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), b.ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_InTxRollsBackOnError(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM rooms WHERE id = \? FOR UPDATE`).
		WithArgs(9).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := s.InTx(context.Background(), func(tx Tx) error {
		_, err := tx.LockRoom(context.Background(), 9)
		return err
	})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_InTxMapsDeadlock(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bookings b WHERE b.id = \? FOR UPDATE`).
		WithArgs(5).
		WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"})
	mock.ExpectRollback()

	err := s.InTx(context.Background(), func(tx Tx) error {
		_, err := tx.LockBooking(context.Background(), 5)
		return err
	})
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_UpdateMissingRow(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE bookings SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.InTx(context.Background(), func(tx Tx) error {
		return tx.UpdateBooking(context.Background(), &model.Booking{
			ID: 77, RoomID: 1, Status: model.StatusCancelled,
			StartTime: stamp, EndTime: stamp.Add(time.Hour), UpdatedAt: stamp,
		})
	})
	assert.ErrorIs(t, err, ErrBookingNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_GetScansNullables(t *testing.T) {
	s, mock := setupMockDB(t)
	approvedAt := stamp.Add(time.Minute)

	rows := sqlmock.NewRows(bookingCols).AddRow(
		11, 1, 7, "alice", nil,
		"Sync", nil, "meeting", stamp, stamp.Add(time.Hour), 4,
		"confirmed", 100, approvedAt, nil,
		nil, nil, nil, stamp, approvedAt)
	mock.ExpectQuery(`FROM bookings b WHERE b.id = \?`).
		WithArgs(11).
		WillReturnRows(rows)

	b, err := s.GetBooking(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, b.Status)
	assert.Nil(t, b.DepartmentID)
	assert.Empty(t, b.Description)
	require.NotNil(t, b.ApprovedBy)
	assert.Equal(t, uint64(100), *b.ApprovedBy)
	require.NotNil(t, b.ApprovedAt)
	assert.True(t, approvedAt.Equal(*b.ApprovedAt))
	assert.Nil(t, b.CancelledAt)

	require.NoError(t, mock.ExpectationsWereMet())
}
