package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
	StatusRejected   BookingStatus = "rejected"
)

// ActiveStatuses are the statuses that hold a room's time window.  Two
// bookings in these statuses on the same room must never overlap.
var ActiveStatuses = []BookingStatus{StatusPending, StatusConfirmed, StatusInProgress}

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// Active reports whether a booking in status s participates in conflict
// detection.
func (s BookingStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusInProgress
}

// Terminal reports whether no further transition is possible from s.
func (s BookingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

// Transition names an operation that moves a booking between statuses.
type Transition string

const (
	TransitionApprove  Transition = "approve"
	TransitionReject   Transition = "reject"
	TransitionCancel   Transition = "cancel"
	TransitionStart    Transition = "start"
	TransitionComplete Transition = "complete"
)

// transitions is the single table of legal status changes.  Every
// mutating operation resolves its target status here.
var transitions = map[BookingStatus]map[Transition]BookingStatus{
	StatusPending: {
		TransitionApprove: StatusConfirmed,
		TransitionReject:  StatusRejected,
		TransitionCancel:  StatusCancelled,
	},
	StatusConfirmed: {
		TransitionStart:  StatusInProgress,
		TransitionCancel: StatusCancelled,
	},
	StatusInProgress: {
		TransitionComplete: StatusCompleted,
	},
}

// Next returns the status reached by applying t to from.  The boolean is
// false when the transition is not in the table.
func Next(from BookingStatus, t Transition) (BookingStatus, bool) {
	to, ok := transitions[from][t]
	return to, ok
}

// Editable reports whether a booking's fields (window, room, title) may
// still be changed.  Only pending bookings are editable.
func (s BookingStatus) Editable() bool {
	return s == StatusPending
}

// Purpose is the informational category of a booking.  It plays no part
// in conflict detection.
type Purpose string

const (
	PurposeMeeting      Purpose = "meeting"
	PurposeTraining     Purpose = "training"
	PurposeInterview    Purpose = "interview"
	PurposePresentation Purpose = "presentation"
	PurposeOther        Purpose = "other"
)

// Valid reports whether p is a known purpose.
func (p Purpose) Valid() bool {
	switch p {
	case PurposeMeeting, PurposeTraining, PurposeInterview, PurposePresentation, PurposeOther:
		return true
	}
	return false
}

// Booking is a reservation of one room for one time window.  Rows in
// `bookings` are never deleted; terminal statuses are kept for history.
//
// Fields:
//  ID                – primary key identifier.
//  RoomID            – booked room.
//  RequesterID       – user who created the booking.
//  RequesterName     – display name captured from the token at creation.
//  DepartmentID      – optional department of the requester.
//  Title/Description – what the meeting is about.
//  Purpose           – informational category.
//  StartTime/EndTime – half-open window [StartTime, EndTime), UTC.
//  ExpectedAttendees – advisory head count, at least 1.
//  Status            – lifecycle state.
//  ApprovedBy/At     – set on approve or reject.
//  RejectionReason   – set on reject.
//  CancelledBy/At    – set on cancel.
//  CancelReason      – optional reason given on cancel.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type Booking struct {
	ID                uint64        `json:"id"`
	RoomID            uint64        `json:"room_id"`
	RequesterID       uint64        `json:"requester_id"`
	RequesterName     string        `json:"requester_name,omitempty"`
	DepartmentID      *uint64       `json:"department_id,omitempty"`
	Title             string        `json:"title"`
	Description       string        `json:"description,omitempty"`
	Purpose           Purpose       `json:"purpose"`
	StartTime         time.Time     `json:"start_time"`
	EndTime           time.Time     `json:"end_time"`
	ExpectedAttendees uint32        `json:"expected_attendees"`
	Status            BookingStatus `json:"status"`
	ApprovedBy        *uint64       `json:"approved_by,omitempty"`
	ApprovedAt        *time.Time    `json:"approved_at,omitempty"`
	RejectionReason   string        `json:"rejection_reason,omitempty"`
	CancelledBy       *uint64       `json:"cancelled_by,omitempty"`
	CancelledAt       *time.Time    `json:"cancelled_at,omitempty"`
	CancelReason      string        `json:"cancel_reason,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// Overlaps reports whether the half-open windows [aStart, aEnd) and
// [bStart, bEnd) intersect.  Windows that only touch at a boundary do
// not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// OverlapsWith reports whether b and other cover a common instant.
func (b *Booking) OverlapsWith(other *Booking) bool {
	return Overlaps(b.StartTime, b.EndTime, other.StartTime, other.EndTime)
}

// Duration returns the length of the booked window.
func (b *Booking) Duration() time.Duration {
	return b.EndTime.Sub(b.StartTime)
}

// BookingView is a booking denormalized with room and requester display
// fields for list and calendar views.
type BookingView struct {
	Booking
	RoomCode string `json:"room_code"`
	RoomName string `json:"room_name"`
}
