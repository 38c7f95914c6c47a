package combat

import (
	"math"
	"slices"
)

// Target is a hostile entity a defensive structure may shoot at.
type Target struct {
	ID     int64   `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Health int     `json:"health"`
}

// Distance returns the distance from the target to (x, y).
func (t Target) Distance(x, y float64) float64 {
	return math.Hypot(t.X-x, t.Y-y)
}

// Nearest returns the living target closest to (x, y). Ties go to the lower id
// so that repeated ticks pick the same victim.
func Nearest(targets []Target, x, y float64) (Target, bool) {
	alive := slices.DeleteFunc(slices.Clone(targets), func(t Target) bool { return t.Health <= 0 })
	if len(alive) == 0 {
		return Target{}, false
	}

	best := alive[0]
	bestDist := best.Distance(x, y)
	for _, t := range alive[1:] {
		d := t.Distance(x, y)
		if d < bestDist || (d == bestDist && t.ID < best.ID) {
			best, bestDist = t, d
		}
	}
	return best, true
}
