package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/room-booking/internal/model"
)

// RoomSeed is one room entry of the catalog seed file.
type RoomSeed struct {
	ID        int             `yaml:"id"`
	Code      string          `yaml:"code"`
	Name      string          `yaml:"name"`
	Location  string          `yaml:"location"`
	Capacity  int             `yaml:"capacity"`
	Equipment model.Equipment `yaml:"equipment"`
	Status    string          `yaml:"status"`
	IsActive  *bool           `yaml:"is_active,omitempty"`
}

// RoomsConfig is the root of rooms.yaml.
type RoomsConfig struct {
	Rooms []RoomSeed `yaml:"rooms"`
}

// LoadRoomsConfig reads and validates the room catalog seed at path.
func LoadRoomsConfig(path string) (*RoomsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rooms config: %w", err)
	}
	return ParseRoomsConfig(data)
}

// ParseRoomsConfig decodes and validates a seed document.
func ParseRoomsConfig(data []byte) (*RoomsConfig, error) {
	var cfg RoomsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse rooms config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate rooms config: %w", err)
	}
	return &cfg, nil
}

// Validate checks ids, codes, names, capacities and statuses.
func (c *RoomsConfig) Validate() error {
	if len(c.Rooms) == 0 {
		return fmt.Errorf("no rooms defined")
	}
	ids := make(map[int]bool)
	codes := make(map[string]bool)
	for i, r := range c.Rooms {
		if r.ID <= 0 {
			return fmt.Errorf("room[%d]: id must be positive, got %d", i, r.ID)
		}
		if ids[r.ID] {
			return fmt.Errorf("room[%d]: duplicate id %d", i, r.ID)
		}
		ids[r.ID] = true

		code := strings.ToUpper(strings.TrimSpace(r.Code))
		if code == "" {
			return fmt.Errorf("room[%d]: code is required", i)
		}
		if codes[code] {
			return fmt.Errorf("room[%d]: duplicate code '%s'", i, r.Code)
		}
		codes[code] = true

		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("room[%d]: name is required", i)
		}
		if r.Capacity < 0 {
			return fmt.Errorf("room[%d]: capacity cannot be negative", i)
		}
		if r.Status != "" && !model.RoomStatus(r.Status).Valid() {
			return fmt.Errorf("room[%d]: unknown status '%s'", i, r.Status)
		}
	}
	return nil
}

// Models converts the seed entries into catalog rooms.  Entries without
// is_active are active; entries without status are available.
func (c *RoomsConfig) Models() []model.Room {
	out := make([]model.Room, 0, len(c.Rooms))
	for _, r := range c.Rooms {
		status := model.RoomStatus(r.Status)
		if status == "" {
			status = model.RoomAvailable
		}
		active := true
		if r.IsActive != nil {
			active = *r.IsActive
		}
		out = append(out, model.Room{
			Code:      strings.TrimSpace(r.Code),
			Name:      strings.TrimSpace(r.Name),
			Location:  strings.TrimSpace(r.Location),
			Capacity:  uint32(r.Capacity),
			Equipment: r.Equipment,
			Status:    status,
			IsActive:  active,
		})
	}
	return out
}

// String returns a summary of the seed.
func (c *RoomsConfig) String() string {
	active := 0
	for _, r := range c.Rooms {
		if r.IsActive == nil || *r.IsActive {
			active++
		}
	}
	return fmt.Sprintf("RoomsConfig: %d rooms (%d active)", len(c.Rooms), active)
}
