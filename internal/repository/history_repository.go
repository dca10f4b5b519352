package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/iliyamo/room-booking/internal/model"
)

// HistoryRepo provides append and read access to booking_history.
// Entries are immutable once written.
type HistoryRepo struct {
	db *sql.DB
}

// NewHistoryRepo returns a HistoryRepo bound to the given database.
func NewHistoryRepo(db *sql.DB) *HistoryRepo { return &HistoryRepo{db: db} }

// AppendTx inserts one entry within tx and sets its generated ID.
func (r *HistoryRepo) AppendTx(ctx context.Context, tx *sql.Tx, e *model.HistoryEntry) error {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("marshal history details: %w", err)
	}
	const q = `INSERT INTO booking_history (booking_id, action, actor_id, details, created_at)
		VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, e.BookingID, string(e.Action), e.ActorID, details, e.CreatedAt.UTC())
	if err != nil {
		return mapMySQLError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// ListByBooking returns the entries of one booking oldest first.
func (r *HistoryRepo) ListByBooking(ctx context.Context, bookingID uint64) ([]model.HistoryEntry, error) {
	const q = `SELECT id, booking_id, action, actor_id, details, created_at
		FROM booking_history
		WHERE booking_id = ?
		ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.HistoryEntry, 0)
	for rows.Next() {
		var (
			e       model.HistoryEntry
			action  string
			actor   sql.NullInt64
			details []byte
		)
		if err := rows.Scan(&e.ID, &e.BookingID, &action, &actor, &details, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = model.HistoryAction(action)
		e.ActorID = nullUint(actor)
		e.CreatedAt = e.CreatedAt.UTC()
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("decode history %d details: %w", e.ID, err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
