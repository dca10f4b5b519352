package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/room-booking/internal/model"
)

// BookingRepo provides access to the bookings table.  Write methods take
// the caller's transaction, following the BeginTx / deferred rollback
// pattern used by MySQLStore.InTx; reads run against the pool.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const bookingColumns = `b.id, b.room_id, b.requester_id, b.requester_name, b.department_id,
	b.title, b.description, b.purpose, b.start_time, b.end_time, b.expected_attendees,
	b.status, b.approved_by, b.approved_at, b.rejection_reason,
	b.cancelled_by, b.cancelled_at, b.cancel_reason, b.created_at, b.updated_at`

// scanBooking reads one row of bookingColumns followed by extra.
func scanBooking(s rowScanner, extra ...any) (*model.Booking, error) {
	var (
		b                                   model.Booking
		purpose, status                     string
		department, approvedBy, cancelledBy sql.NullInt64
		description, rejection, cancelWhy   sql.NullString
		approvedAt, cancelledAt             sql.NullTime
	)
	dest := []any{&b.ID, &b.RoomID, &b.RequesterID, &b.RequesterName, &department,
		&b.Title, &description, &purpose, &b.StartTime, &b.EndTime, &b.ExpectedAttendees,
		&status, &approvedBy, &approvedAt, &rejection,
		&cancelledBy, &cancelledAt, &cancelWhy, &b.CreatedAt, &b.UpdatedAt}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	b.Purpose = model.Purpose(purpose)
	b.Status = model.BookingStatus(status)
	b.DepartmentID = nullUint(department)
	b.ApprovedBy = nullUint(approvedBy)
	b.CancelledBy = nullUint(cancelledBy)
	b.Description = description.String
	b.RejectionReason = rejection.String
	b.CancelReason = cancelWhy.String
	if approvedAt.Valid {
		t := approvedAt.Time.UTC()
		b.ApprovedAt = &t
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time.UTC()
		b.CancelledAt = &t
	}
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return &b, nil
}

func nullUint(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	v := uint64(n.Int64)
	return &v
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// GetByID returns the booking with the given id or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	return r.get(ctx, r.db, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = ?`, id)
}

// LockTx reads the booking inside tx and locks its row until tx ends.
func (r *BookingRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	b, err := r.get(ctx, tx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = ? FOR UPDATE`, id)
	return b, mapMySQLError(err)
}

func (r *BookingRepo) get(ctx context.Context, q querier, query string, id uint64) (*model.Booking, error) {
	b, err := scanBooking(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// activeStatusList renders model.ActiveStatuses for an IN clause.
func activeStatusList() (string, []any) {
	marks := make([]string, len(model.ActiveStatuses))
	args := make([]any, len(model.ActiveStatuses))
	for i, s := range model.ActiveStatuses {
		marks[i] = "?"
		args[i] = string(s)
	}
	return strings.Join(marks, ","), args
}

// Active returns active bookings on roomID intersecting [start, end),
// excluding excludeID.  Passing a transaction makes the read part of it;
// pass nil to read committed state from the pool.
func (r *BookingRepo) Active(ctx context.Context, tx *sql.Tx, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Booking, error) {
	in, statusArgs := activeStatusList()
	q := `SELECT ` + bookingColumns + ` FROM bookings b
		WHERE b.room_id = ? AND b.status IN (` + in + `)
		AND b.start_time < ? AND b.end_time > ? AND b.id <> ?
		ORDER BY b.start_time, b.id`
	args := append([]any{roomID}, statusArgs...)
	args = append(args, end.UTC(), start.UTC(), excludeID)

	var src querier = r.db
	if tx != nil {
		src = tx
	}
	rows, err := src.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapMySQLError(err)
	}
	defer rows.Close()

	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// CreateTx inserts the booking within tx and sets its generated ID.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (room_id, requester_id, requester_name, department_id,
		title, description, purpose, start_time, end_time, expected_attendees, status,
		approved_by, approved_at, rejection_reason, cancelled_by, cancelled_at, cancel_reason,
		created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.RoomID, b.RequesterID, b.RequesterName, b.DepartmentID,
		b.Title, nullString(b.Description), string(b.Purpose), b.StartTime.UTC(), b.EndTime.UTC(),
		b.ExpectedAttendees, string(b.Status),
		b.ApprovedBy, b.ApprovedAt, nullString(b.RejectionReason),
		b.CancelledBy, b.CancelledAt, nullString(b.CancelReason),
		b.CreatedAt.UTC(), b.UpdatedAt.UTC())
	if err != nil {
		return mapMySQLError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// UpdateTx overwrites every mutable column of the booking within tx.
func (r *BookingRepo) UpdateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `UPDATE bookings SET room_id = ?, department_id = ?, title = ?, description = ?,
		purpose = ?, start_time = ?, end_time = ?, expected_attendees = ?, status = ?,
		approved_by = ?, approved_at = ?, rejection_reason = ?,
		cancelled_by = ?, cancelled_at = ?, cancel_reason = ?, updated_at = ?
		WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, b.RoomID, b.DepartmentID, b.Title, nullString(b.Description),
		string(b.Purpose), b.StartTime.UTC(), b.EndTime.UTC(), b.ExpectedAttendees, string(b.Status),
		b.ApprovedBy, b.ApprovedAt, nullString(b.RejectionReason),
		b.CancelledBy, b.CancelledAt, nullString(b.CancelReason), b.UpdatedAt.UTC(),
		b.ID)
	if err != nil {
		return mapMySQLError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// List returns bookings matching f joined with room display fields and
// ordered by start time.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]model.BookingView, error) {
	var where []string
	var args []any
	if f.From != nil {
		where = append(where, "b.end_time > ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		where = append(where, "b.start_time < ?")
		args = append(args, f.To.UTC())
	}
	if f.RoomID != 0 {
		where = append(where, "b.room_id = ?")
		args = append(args, f.RoomID)
	}
	if f.RequesterID != 0 {
		where = append(where, "b.requester_id = ?")
		args = append(args, f.RequesterID)
	}
	if len(f.Statuses) > 0 {
		marks := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			marks[i] = "?"
			args = append(args, string(s))
		}
		where = append(where, "b.status IN ("+strings.Join(marks, ",")+")")
	}
	q := `SELECT ` + bookingColumns + `, r.code, r.name
		FROM bookings b
		JOIN rooms r ON r.id = b.room_id`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY b.start_time, b.id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.BookingView, 0)
	for rows.Next() {
		var code, name string
		b, err := scanBooking(rows, &code, &name)
		if err != nil {
			return nil, err
		}
		out = append(out, model.BookingView{Booking: *b, RoomCode: code, RoomName: name})
	}
	return out, rows.Err()
}
