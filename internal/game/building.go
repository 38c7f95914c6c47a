package game

import (
	"fmt"
	"time"

	"github.com/pixil98/holdfast/internal/zones"
)

// Status is the lifecycle state of a building.
type Status int

const (
	StatusConstructing Status = iota
	StatusActive
	StatusDestroyed
)

var statusNames = map[Status]string{
	StatusConstructing: "constructing",
	StatusActive:       "active",
	StatusDestroyed:    "destroyed",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for k, v := range statusNames {
		if v == string(b) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", string(b))
}

// Building is a placed structure. Instances held by the world are owned by it;
// callers only ever see clones.
type Building struct {
	ID          BuildingID   `json:"id"`
	Type        BuildingType `json:"type"`
	Tier        int          `json:"tier"`
	Pos         zones.Point  `json:"pos"`
	Zone        zones.Key    `json:"zone"`
	Rotation    float64      `json:"rotation"`
	Owner       PlayerID     `json:"owner"`
	Clan        ClanID       `json:"clan,omitempty"`
	Health      int          `json:"health"`
	MaxHealth   int          `json:"max_health"`
	Armor       int          `json:"armor"`
	Status      Status       `json:"status"`
	Decaying    bool         `json:"decaying"`
	Payload     Payload      `json:"payload,omitempty"`
	DecayAt     time.Time    `json:"decay_at"`
	CompletesAt time.Time    `json:"completes_at"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (b *Building) Clone() *Building {
	c := *b
	if b.Payload != nil {
		c.Payload = b.Payload.clone()
	}
	return &c
}

func (b *Building) Active() bool {
	return b.Status == StatusActive
}

// Turret returns the turret payload, or nil for other variants.
func (b *Building) Turret() *TurretPayload {
	p, _ := b.Payload.(*TurretPayload)
	return p
}

// Generator returns the generator payload, or nil for other variants.
func (b *Building) Generator() *GeneratorPayload {
	p, _ := b.Payload.(*GeneratorPayload)
	return p
}

// Check reports the first broken structural invariant.
func (b *Building) Check(grid zones.Grid) error {
	if b.Health < 0 || b.Health > b.MaxHealth {
		return fmt.Errorf("building %d: health %d outside [0, %d]", b.ID, b.Health, b.MaxHealth)
	}
	if (b.Status == StatusDestroyed) != (b.Health == 0) {
		return fmt.Errorf("building %d: status %s with health %d", b.ID, b.Status, b.Health)
	}
	if k, ok := grid.KeyFor(b.Pos.X, b.Pos.Y); !ok || k != b.Zone {
		return fmt.Errorf("building %d: zone %d does not match position %v", b.ID, b.Zone, b.Pos)
	}
	return nil
}
