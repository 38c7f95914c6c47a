package game

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/holdfast/internal/zones"
)

// Territory is a capturable circular area inside one zone.
type Territory struct {
	ID           TerritoryID `json:"id"`
	Name         string      `json:"name"`
	Zone         zones.Key   `json:"zone"`
	Center       zones.Point `json:"center"`
	Radius       float64     `json:"radius"`
	ControlledBy string      `json:"controlled_by,omitempty"`
	Owner        PlayerID    `json:"owner,omitempty"`
	Clan         ClanID      `json:"clan,omitempty"`
	Progress     float64     `json:"capture_progress"`
	UnderAttack  bool        `json:"under_attack"`
	LastAttackAt time.Time   `json:"last_attack_at"`
}

func (t *Territory) Clone() *Territory {
	c := *t
	return &c
}

func (t *Territory) Contains(p zones.Point) bool {
	return t.Center.Distance(p) <= t.Radius
}

// Hostile reports whether the territory belongs to someone other than the
// player or their clan. Unowned territories are never hostile.
func (t *Territory) Hostile(player PlayerID, clan ClanID) bool {
	if t.Owner == 0 && t.Clan == 0 {
		return false
	}
	if t.Owner == player {
		return false
	}
	return clan == 0 || t.Clan != clan
}

// TerritorySeed is the static definition a territory starts from before any
// capture state exists.
type TerritorySeed struct {
	ID           TerritoryID `json:"territory_id"`
	Name         string      `json:"name"`
	X            float64     `json:"x"`
	Y            float64     `json:"y"`
	Radius       float64     `json:"radius"`
	ControlledBy string      `json:"controlled_by"`
}

func (s *TerritorySeed) Validate() error {
	el := errors.NewErrorList()

	if s.ID <= 0 {
		el.Add(fmt.Errorf("territory_id must be positive"))
	}
	if s.Name == "" {
		el.Add(fmt.Errorf("name must be set"))
	}
	if s.Radius <= 0 {
		el.Add(fmt.Errorf("radius must be positive"))
	}

	return el.Err()
}

// Territory builds the initial territory for the seed, placed on grid.
func (s *TerritorySeed) Territory(grid zones.Grid) (*Territory, error) {
	zone, ok := grid.KeyFor(s.X, s.Y)
	if !ok {
		return nil, fmt.Errorf("territory %d: center (%g, %g) is outside the world", s.ID, s.X, s.Y)
	}
	return &Territory{
		ID:           s.ID,
		Name:         s.Name,
		Zone:         zone,
		Center:       zones.Point{X: s.X, Y: s.Y},
		Radius:       s.Radius,
		ControlledBy: s.ControlledBy,
	}, nil
}
