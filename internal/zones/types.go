package zones

import (
	"fmt"
	"math"

	"github.com/pixil98/go-errors"
)

const (
	DefaultZoneSize = 5000
	DefaultWidth    = 10
	DefaultHeight   = 10
)

// Key identifies a single cell of the world grid.
type Key int

// Point is a position in world coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the euclidean distance between two points.
func (p Point) Distance(o Point) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// Grid partitions the playable world into Width x Height square zones.
type Grid struct {
	ZoneSize float64 `json:"zone_size"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}

// DefaultGrid returns the 10x10 grid of 5000 unit zones.
func DefaultGrid() Grid {
	return Grid{ZoneSize: DefaultZoneSize, Width: DefaultWidth, Height: DefaultHeight}
}

func (g Grid) Validate() error {
	el := errors.NewErrorList()

	if g.ZoneSize <= 0 {
		el.Add(fmt.Errorf("zone_size must be positive"))
	}
	if g.Width <= 0 {
		el.Add(fmt.Errorf("width must be positive"))
	}
	if g.Height <= 0 {
		el.Add(fmt.Errorf("height must be positive"))
	}

	return el.Err()
}

// Count is the number of zones in the grid.
func (g Grid) Count() int {
	return g.Width * g.Height
}

// KeyFor returns the zone containing (x, y). The second return is false when
// the point lies outside the grid.
func (g Grid) KeyFor(x, y float64) (Key, bool) {
	cx, cy := g.cell(x), g.cell(y)
	if cx < 0 || cx >= g.Width || cy < 0 || cy >= g.Height {
		return 0, false
	}
	return Key(cx + cy*g.Width), true
}

// Valid reports whether k is a zone of this grid.
func (g Grid) Valid(k Key) bool {
	return k >= 0 && int(k) < g.Count()
}

// Neighbors returns k itself followed by up to eight adjacent zones, clipped
// at the grid edges.
func (g Grid) Neighbors(k Key) []Key {
	if !g.Valid(k) {
		return nil
	}
	x, y := int(k)%g.Width, int(k)/g.Width

	keys := []Key{k}
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || nx >= g.Width || ny < 0 || ny >= g.Height {
				continue
			}
			keys = append(keys, Key(nx+ny*g.Width))
		}
	}
	return keys
}

// Overlapping returns every zone that intersects the bounding box of the
// circle centered on p with the given radius.
func (g Grid) Overlapping(p Point, radius float64) []Key {
	if radius < 0 {
		radius = 0
	}
	minX := max(g.cell(p.X-radius), 0)
	maxX := min(g.cell(p.X+radius), g.Width-1)
	minY := max(g.cell(p.Y-radius), 0)
	maxY := min(g.cell(p.Y+radius), g.Height-1)

	var keys []Key
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			keys = append(keys, Key(x+y*g.Width))
		}
	}
	return keys
}

// cell returns the column or row holding v. Values off the grid map to -1 or
// to one past the last cell so the int conversion cannot overflow.
func (g Grid) cell(v float64) int {
	c := math.Floor(v / g.ZoneSize)
	switch {
	case math.IsNaN(c), c < 0:
		return -1
	case c >= float64(max(g.Width, g.Height)):
		return max(g.Width, g.Height)
	}
	return int(c)
}
