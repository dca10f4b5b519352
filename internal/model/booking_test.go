package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	tests := []struct {
		from BookingStatus
		tr   Transition
		want BookingStatus
		ok   bool
	}{
		{StatusPending, TransitionApprove, StatusConfirmed, true},
		{StatusPending, TransitionReject, StatusRejected, true},
		{StatusPending, TransitionCancel, StatusCancelled, true},
		{StatusPending, TransitionStart, "", false},
		{StatusConfirmed, TransitionStart, StatusInProgress, true},
		{StatusConfirmed, TransitionCancel, StatusCancelled, true},
		{StatusConfirmed, TransitionApprove, "", false},
		{StatusConfirmed, TransitionReject, "", false},
		{StatusInProgress, TransitionComplete, StatusCompleted, true},
		{StatusInProgress, TransitionCancel, "", false},
		{StatusCompleted, TransitionCancel, "", false},
		{StatusCancelled, TransitionApprove, "", false},
		{StatusRejected, TransitionApprove, "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.tr), func(t *testing.T) {
			got, ok := Next(tt.from, tt.tr)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	all := []Transition{TransitionApprove, TransitionReject, TransitionCancel, TransitionStart, TransitionComplete}
	for _, s := range []BookingStatus{StatusCompleted, StatusCancelled, StatusRejected} {
		assert.True(t, s.Terminal(), s)
		assert.False(t, s.Active(), s)
		for _, tr := range all {
			_, ok := Next(s, tr)
			assert.False(t, ok, "%s/%s", s, tr)
		}
	}
}

func TestActiveStatuses(t *testing.T) {
	for _, s := range ActiveStatuses {
		assert.True(t, s.Active(), s)
		assert.False(t, s.Terminal(), s)
	}
	assert.True(t, StatusPending.Editable())
	assert.False(t, StatusConfirmed.Editable())
	assert.False(t, BookingStatus("archived").Valid())
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return base.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	// existing window 10:00-11:00
	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"identical", at(0, 0), at(1, 0), true},
		{"inside", at(0, 15), at(0, 45), true},
		{"covering", at(-1, 0), at(2, 0), true},
		{"overlaps start", at(-1, 0), at(0, 1), true},
		{"overlaps end", at(0, 59), at(2, 0), true},
		{"touches end", at(1, 0), at(2, 0), false},
		{"touches start", at(-1, 0), at(0, 0), false},
		{"before", at(-3, 0), at(-2, 0), false},
		{"after", at(3, 0), at(4, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.start, tt.end, at(0, 0), at(1, 0)))
			assert.Equal(t, tt.want, Overlaps(at(0, 0), at(1, 0), tt.start, tt.end), "symmetric")
		})
	}
}

func TestRoomBookable(t *testing.T) {
	r := Room{IsActive: true, Status: RoomAvailable}
	assert.True(t, r.Bookable())
	r.Status = RoomOccupied
	assert.True(t, r.Bookable())
	r.Status = RoomMaintenance
	assert.False(t, r.Bookable())
	r.Status = RoomAvailable
	r.IsActive = false
	assert.False(t, r.Bookable())
}

func TestActorIsAdmin(t *testing.T) {
	assert.True(t, Actor{ID: 1, Role: RoleAdmin}.IsAdmin())
	assert.True(t, Actor{ID: 1, Role: RoleEmployee, Level: AdminLevel}.IsAdmin())
	assert.False(t, Actor{ID: 1, Role: RoleManager, Level: AdminLevel - 1}.IsAdmin())

	b := &Booking{RequesterID: 7}
	assert.True(t, Actor{ID: 7}.Owns(b))
	assert.False(t, Actor{ID: 8}.Owns(b))
	assert.False(t, Actor{}.Owns(&Booking{}))
}
