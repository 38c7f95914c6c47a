package game

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/pixil98/go-errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// MaxTier is the highest tier a building can be upgraded to.
const MaxTier = 5

//go:embed catalog.yaml
var defaultCatalog []byte

// BuildingType is the catalog key of a building, e.g. WOOD_WALL.
type BuildingType string

// DisplayName renders the type for players, e.g. "Wood Wall".
func (t BuildingType) DisplayName() string {
	return cases.Title(language.English).String(strings.ReplaceAll(strings.ToLower(string(t)), "_", " "))
}

// Duration wraps time.Duration so catalog files can use "3s" style values.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

type TurretSpec struct {
	Damage   int      `yaml:"damage"`
	Range    float64  `yaml:"range"`
	FireRate Duration `yaml:"fire_rate"`
	Ammo     int      `yaml:"ammo"`
}

type ProductionSpec struct {
	Yield    Resources `yaml:"yield"`
	Interval Duration  `yaml:"interval"`
}

type ShieldSpec struct {
	Radius float64 `yaml:"radius"`
	Health int     `yaml:"health"`
}

// BuildingSpec describes one building type.
type BuildingSpec struct {
	Cost          Resources       `yaml:"cost"`
	Health        int             `yaml:"health"`
	Armor         int             `yaml:"armor"`
	Size          int             `yaml:"size"`
	BuildTime     Duration        `yaml:"build_time"`
	Tier          int             `yaml:"tier"`
	Description   string          `yaml:"description"`
	Payload       PayloadKind     `yaml:"payload"`
	Capacity      int             `yaml:"capacity"`
	Turret        *TurretSpec     `yaml:"turret"`
	Production    *ProductionSpec `yaml:"production"`
	Shield        *ShieldSpec     `yaml:"shield"`
	CraftingSpeed float64         `yaml:"crafting_speed"`
	RespawnTime   Duration        `yaml:"respawn_time"`
}

func (s *BuildingSpec) validate() error {
	el := errors.NewErrorList()

	if s.Health <= 0 {
		el.Add(fmt.Errorf("health must be positive"))
	}
	if s.Size <= 0 {
		el.Add(fmt.Errorf("size must be positive"))
	}
	if s.Armor < 0 {
		el.Add(fmt.Errorf("armor must not be negative"))
	}
	if s.Tier < 1 || s.Tier > MaxTier {
		el.Add(fmt.Errorf("tier must be between 1 and %d", MaxTier))
	}
	if s.BuildTime.Duration <= 0 {
		el.Add(fmt.Errorf("build_time must be positive"))
	}

	switch s.Payload {
	case PayloadNone, PayloadStorage, PayloadFactory, PayloadSilo:
	case PayloadTurret:
		if s.Turret == nil {
			el.Add(fmt.Errorf("turret payload requires a turret section"))
		} else if s.Turret.Damage <= 0 || s.Turret.FireRate.Duration <= 0 || s.Turret.Range <= 0 {
			el.Add(fmt.Errorf("turret damage, range and fire_rate must be positive"))
		}
	case PayloadGenerator:
		if s.Production == nil {
			el.Add(fmt.Errorf("generator payload requires a production section"))
		} else if s.Production.Interval.Duration <= 0 {
			el.Add(fmt.Errorf("production interval must be positive"))
		}
	default:
		el.Add(fmt.Errorf("unknown payload %q", s.Payload))
	}

	return el.Err()
}

// Catalog is the immutable set of building types.
type Catalog struct {
	specs   map[BuildingType]*BuildingSpec
	maxSize int
}

// ParseCatalog decodes and validates a yaml catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	specs := map[BuildingType]*BuildingSpec{}
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("catalog has no building types")
	}

	c := &Catalog{specs: specs}
	el := errors.NewErrorList()
	for t, s := range specs {
		if s == nil {
			el.Add(fmt.Errorf("%s: empty definition", t))
			continue
		}
		if err := s.validate(); err != nil {
			el.Add(fmt.Errorf("%s: %w", t, err))
		}
		c.maxSize = max(c.maxSize, s.Size)
	}
	if err := el.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadCatalog reads the catalog at path, or the built-in one when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// Get returns the spec for t. The returned spec must not be modified.
func (c *Catalog) Get(t BuildingType) (*BuildingSpec, bool) {
	s, ok := c.specs[t]
	return s, ok
}

// MaxSize is the largest footprint of any type, used to bound collision searches.
func (c *Catalog) MaxSize() int {
	return c.maxSize
}

func (c *Catalog) Types() []BuildingType {
	types := make([]BuildingType, 0, len(c.specs))
	for t := range c.specs {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}
