package game

import (
	"fmt"
	"math"
	"strings"
)

// Resources is a bundle of the spendable materials.
type Resources struct {
	Wood    int `json:"wood" yaml:"wood"`
	Stone   int `json:"stone" yaml:"stone"`
	Metal   int `json:"metal" yaml:"metal"`
	Uranium int `json:"uranium" yaml:"uranium"`
}

// Covers reports whether r holds at least cost of every material.
func (r Resources) Covers(cost Resources) bool {
	return r.Wood >= cost.Wood &&
		r.Stone >= cost.Stone &&
		r.Metal >= cost.Metal &&
		r.Uranium >= cost.Uranium
}

func (r Resources) Add(o Resources) Resources {
	return Resources{
		Wood:    r.Wood + o.Wood,
		Stone:   r.Stone + o.Stone,
		Metal:   r.Metal + o.Metal,
		Uranium: r.Uranium + o.Uranium,
	}
}

func (r Resources) Sub(o Resources) Resources {
	return Resources{
		Wood:    r.Wood - o.Wood,
		Stone:   r.Stone - o.Stone,
		Metal:   r.Metal - o.Metal,
		Uranium: r.Uranium - o.Uranium,
	}
}

// Mul scales every material by n.
func (r Resources) Mul(n int) Resources {
	return Resources{Wood: r.Wood * n, Stone: r.Stone * n, Metal: r.Metal * n, Uranium: r.Uranium * n}
}

// Ceil scales every material by f, rounding up.
func (r Resources) Ceil(f float64) Resources {
	return r.scale(f, math.Ceil)
}

// Floor scales every material by f, rounding down.
func (r Resources) Floor(f float64) Resources {
	return r.scale(f, math.Floor)
}

func (r Resources) scale(f float64, round func(float64) float64) Resources {
	return Resources{
		Wood:    int(round(float64(r.Wood) * f)),
		Stone:   int(round(float64(r.Stone) * f)),
		Metal:   int(round(float64(r.Metal) * f)),
		Uranium: int(round(float64(r.Uranium) * f)),
	}
}

func (r Resources) IsZero() bool {
	return r == Resources{}
}

// String lists the materials the way they are shown to players. Uranium is
// only mentioned when it is involved.
func (r Resources) String() string {
	parts := []string{
		fmt.Sprintf("Wood %d", r.Wood),
		fmt.Sprintf("Stone %d", r.Stone),
		fmt.Sprintf("Metal %d", r.Metal),
	}
	if r.Uranium != 0 {
		parts = append(parts, fmt.Sprintf("Uranium %d", r.Uranium))
	}
	return strings.Join(parts, ", ")
}
