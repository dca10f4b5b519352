package model

import "time"

// RoomStatus is the operational status of a bookable room.
type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomOccupied    RoomStatus = "occupied"
	RoomMaintenance RoomStatus = "maintenance"
	RoomUnavailable RoomStatus = "unavailable"
)

// Valid reports whether s is one of the known room statuses.
func (s RoomStatus) Valid() bool {
	switch s {
	case RoomAvailable, RoomOccupied, RoomMaintenance, RoomUnavailable:
		return true
	}
	return false
}

// Equipment flags the fixtures a room offers.  Stored as individual
// boolean columns so calendar filters can use them directly.
type Equipment struct {
	Projector       bool `json:"projector" yaml:"projector"`
	Whiteboard      bool `json:"whiteboard" yaml:"whiteboard"`
	VideoConference bool `json:"video_conference" yaml:"video_conference"`
	SoundSystem     bool `json:"sound_system" yaml:"sound_system"`
}

// Room represents a bookable meeting room in the catalog.  Rooms are
// created and edited by administrators and are never deleted; instead
// IsActive is cleared.  This struct corresponds to a row in the
// `rooms` table.
//
// Fields:
//  ID          – primary key identifier.
//  Code        – short unique code (e.g. "B2-101").
//  Name        – human readable name.
//  Location    – free-form building/floor description.
//  Capacity    – number of seats; advisory for bookings.
//  Equipment   – fixture flags.
//  Status      – operational status (available, occupied, maintenance, unavailable).
//  IsActive    – false once the room has been deactivated.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Room struct {
	ID        uint64     `json:"id"`         // rooms.id
	Code      string     `json:"code"`       // rooms.code
	Name      string     `json:"name"`       // rooms.name
	Location  string     `json:"location"`   // rooms.location
	Capacity  uint32     `json:"capacity"`   // rooms.capacity
	Equipment Equipment  `json:"equipment"`  // rooms.has_* columns
	Status    RoomStatus `json:"status"`     // rooms.status
	IsActive  bool       `json:"is_active"`  // rooms.is_active
	CreatedAt time.Time  `json:"created_at"` // rooms.created_at
	UpdatedAt time.Time  `json:"updated_at"` // rooms.updated_at
}

// Bookable reports whether new bookings may be placed in the room.
// Deactivated rooms and rooms under maintenance or marked unavailable
// refuse bookings.  An occupied room still accepts future bookings.
func (r *Room) Bookable() bool {
	if !r.IsActive {
		return false
	}
	return r.Status == RoomAvailable || r.Status == RoomOccupied
}
