package model

import "time"

// HistoryAction enumerates the kinds of audit entries.
type HistoryAction string

const (
	ActionCreated   HistoryAction = "created"
	ActionApproved  HistoryAction = "approved"
	ActionRejected  HistoryAction = "rejected"
	ActionCancelled HistoryAction = "cancelled"
	ActionUpdated   HistoryAction = "updated"
)

// HistoryDetails is the structured payload of an audit entry.  OldStatus
// and NewStatus are empty when the entry does not describe a status
// change (for example an edit of a pending booking's title).
type HistoryDetails struct {
	OldStatus BookingStatus     `json:"old_status,omitempty"`
	NewStatus BookingStatus     `json:"new_status,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// HistoryEntry is one immutable line in a booking's audit trail.  Rows in
// `booking_history` are only ever inserted.
//
// Fields:
//  ID        – primary key identifier.
//  BookingID – booking the entry belongs to.
//  Action    – what happened.
//  ActorID   – who did it; nil for system-originated entries.
//  Details   – old/new status, reason and changed fields (JSON column).
//  CreatedAt – when the entry was written.
type HistoryEntry struct {
	ID        uint64         `json:"id"`         // booking_history.id
	BookingID uint64         `json:"booking_id"` // booking_history.booking_id
	Action    HistoryAction  `json:"action"`     // booking_history.action
	ActorID   *uint64        `json:"actor_id"`   // booking_history.actor_id (nullable)
	Details   HistoryDetails `json:"details"`    // booking_history.details
	CreatedAt time.Time      `json:"created_at"` // booking_history.created_at
}
