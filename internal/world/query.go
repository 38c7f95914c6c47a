package world

import (
	"cmp"
	"slices"

	"github.com/pixil98/holdfast/internal/game"
	"github.com/pixil98/holdfast/internal/zones"
)

// GetBuildingsNear returns snapshots of the live buildings within radius of
// (x, y), ordered by id.
func (w *World) GetBuildingsNear(x, y, radius float64) []*game.Building {
	w.mu.Lock()
	defer w.mu.Unlock()

	ids := w.index.Query(zones.Point{X: x, Y: y}, radius)
	slices.Sort(ids)

	out := make([]*game.Building, 0, len(ids))
	for _, id := range ids {
		if b, ok := w.buildings[id]; ok {
			out = append(out, b.Clone())
		}
	}
	return out
}

// Building returns a snapshot of a live building.
func (w *World) Building(id game.BuildingID) (*game.Building, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, ok := w.buildings[id]
	if !ok {
		return nil, false
	}
	return b.Clone(), true
}

// BuildingCount returns the number of live buildings owned by player.
func (w *World) BuildingCount(player game.PlayerID) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ownedCounts[player]
}

func (w *World) Territory(id game.TerritoryID) (*game.Territory, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	t, ok := w.territories[id]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// TerritoryAt returns the territory containing (x, y). Overlaps resolve to the
// lowest id.
func (w *World) TerritoryAt(x, y float64) (*game.Territory, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p := zones.Point{X: x, Y: y}
	var found *game.Territory
	for _, t := range w.territories {
		if t.Contains(p) && (found == nil || t.ID < found.ID) {
			found = t
		}
	}
	if found == nil {
		return nil, false
	}
	return found.Clone(), true
}

func (w *World) Territories() []*game.Territory {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]*game.Territory, 0, len(w.territories))
	for _, t := range w.territories {
		out = append(out, t.Clone())
	}
	slices.SortFunc(out, func(a, b *game.Territory) int { return cmp.Compare(a.ID, b.ID) })
	return out
}
