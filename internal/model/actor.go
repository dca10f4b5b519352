package model

// Role names carried in the access token's "role" claim.
const (
	RoleAdmin    = "ADMIN"
	RoleManager  = "MANAGER"
	RoleEmployee = "EMPLOYEE"
)

// AdminLevel is the default permission level at or above which an actor
// is treated as an administrator regardless of role name.  The server may
// override it with ADMIN_LEVEL.
var AdminLevel = 90

// Actor is the authenticated caller as resolved by the identity layer.
// The booking core treats it as opaque data: it only compares IDs for
// ownership and asks IsAdmin for approver rights.
type Actor struct {
	ID    uint64 `json:"id"`
	Role  string `json:"role"`
	Level int    `json:"level"`
	Name  string `json:"name,omitempty"`
}

// IsAdmin reports whether the actor may approve, reject and manage rooms.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin || (AdminLevel > 0 && a.Level >= AdminLevel)
}

// Owns reports whether the actor is the requester of b.
func (a Actor) Owns(b *Booking) bool {
	return b != nil && a.ID != 0 && a.ID == b.RequesterID
}
