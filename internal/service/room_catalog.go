package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/repository"
)

// RoomInput carries the fields of a new room.
type RoomInput struct {
	Code      string
	Name      string
	Location  string
	Capacity  uint32
	Equipment model.Equipment
	Status    model.RoomStatus
}

// RoomPatch carries the room fields to change.  Nil fields are untouched.
type RoomPatch struct {
	Code      *string
	Name      *string
	Location  *string
	Capacity  *uint32
	Equipment *model.Equipment
	Status    *model.RoomStatus
	IsActive  *bool
}

// RoomCatalog is the registry of bookable rooms.  Reads are open to every
// caller; changes require an administrator.  Rooms are never deleted.
type RoomCatalog struct {
	store repository.Store
	log   *zerolog.Logger
	now   func() time.Time
}

// NewRoomCatalog returns a catalog backed by store.
func NewRoomCatalog(store repository.Store, log *zerolog.Logger) *RoomCatalog {
	if store == nil {
		panic("nil store passed to NewRoomCatalog")
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &RoomCatalog{store: store, log: log, now: time.Now}
}

// List returns rooms matching f ordered by code.
func (c *RoomCatalog) List(ctx context.Context, f repository.RoomFilter) ([]model.Room, error) {
	rooms, err := c.store.ListRooms(ctx, f)
	if err != nil {
		return nil, translateStoreErr("list rooms", err)
	}
	return rooms, nil
}

// Get returns one room.
func (c *RoomCatalog) Get(ctx context.Context, id uint64) (*model.Room, error) {
	r, err := c.store.GetRoom(ctx, id)
	if err != nil {
		return nil, translateStoreErr("get room", err)
	}
	return r, nil
}

// Create adds a room to the catalog.  New rooms are active.
func (c *RoomCatalog) Create(ctx context.Context, actor model.Actor, in RoomInput) (*model.Room, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	now := c.now().UTC()
	r := &model.Room{
		Code:      strings.TrimSpace(in.Code),
		Name:      strings.TrimSpace(in.Name),
		Location:  strings.TrimSpace(in.Location),
		Capacity:  in.Capacity,
		Equipment: in.Equipment,
		Status:    in.Status,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if r.Status == "" {
		r.Status = model.RoomAvailable
	}
	if err := validateRoom(r); err != nil {
		return nil, err
	}
	if err := c.store.InsertRoom(ctx, r); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, conflictf("room code %q already exists", r.Code)
		}
		return nil, translateStoreErr("create room", err)
	}
	c.log.Info().Uint64("room_id", r.ID).Str("code", r.Code).Uint64("actor_id", actor.ID).Msg("room created")
	return r, nil
}

// Update changes the given fields of a room.
func (c *RoomCatalog) Update(ctx context.Context, actor model.Actor, id uint64, p RoomPatch) (*model.Room, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	r, err := c.store.GetRoom(ctx, id)
	if err != nil {
		return nil, translateStoreErr("update room", err)
	}
	if p.Code != nil {
		r.Code = strings.TrimSpace(*p.Code)
	}
	if p.Name != nil {
		r.Name = strings.TrimSpace(*p.Name)
	}
	if p.Location != nil {
		r.Location = strings.TrimSpace(*p.Location)
	}
	if p.Capacity != nil {
		r.Capacity = *p.Capacity
	}
	if p.Equipment != nil {
		r.Equipment = *p.Equipment
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.IsActive != nil {
		r.IsActive = *p.IsActive
	}
	if err := validateRoom(r); err != nil {
		return nil, err
	}
	r.UpdatedAt = c.now().UTC()
	if err := c.store.UpdateRoom(ctx, r); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, conflictf("room code %q already exists", r.Code)
		}
		return nil, translateStoreErr("update room", err)
	}
	c.log.Info().Uint64("room_id", r.ID).Uint64("actor_id", actor.ID).Msg("room updated")
	return r, nil
}

// Deactivate removes a room from booking.  Existing bookings are kept.
func (c *RoomCatalog) Deactivate(ctx context.Context, actor model.Actor, id uint64) (*model.Room, error) {
	inactive := false
	return c.Update(ctx, actor, id, RoomPatch{IsActive: &inactive})
}

// Seed inserts every room whose code is not in the catalog yet and
// leaves existing rows untouched.  It returns the number of rooms added.
func (c *RoomCatalog) Seed(ctx context.Context, rooms []model.Room) (int, error) {
	added := 0
	for i := range rooms {
		r := rooms[i]
		r.Code = strings.TrimSpace(r.Code)
		if _, err := c.store.GetRoomByCode(ctx, r.Code); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrRoomNotFound) {
			return added, translateStoreErr("seed rooms", err)
		}
		now := c.now().UTC()
		r.ID = 0
		r.CreatedAt, r.UpdatedAt = now, now
		if r.Status == "" {
			r.Status = model.RoomAvailable
		}
		if err := validateRoom(&r); err != nil {
			return added, err
		}
		if err := c.store.InsertRoom(ctx, &r); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return added, conflictf("room code %q already exists", r.Code)
			}
			return added, translateStoreErr("seed rooms", err)
		}
		added++
	}
	if added > 0 {
		c.log.Info().Int("added", added).Int("total", len(rooms)).Msg("room catalog seeded")
	}
	return added, nil
}

func validateRoom(r *model.Room) error {
	if r.Code == "" {
		return validationf("code is required")
	}
	if len(r.Code) > 32 {
		return validationf("code must be at most 32 characters")
	}
	if r.Name == "" {
		return validationf("name is required")
	}
	if !r.Status.Valid() {
		return validationf("unknown room status %q", r.Status)
	}
	return nil
}
