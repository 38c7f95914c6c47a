package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/holdfast/internal/game"
	"github.com/pixil98/holdfast/internal/world"
	"github.com/pixil98/holdfast/internal/zones"
)

type CaptureDecayConfig struct {
	IdleAfter string  `json:"idle_after"`
	PerMinute float64 `json:"per_minute"`
}

type WorldConfig struct {
	CatalogPath      string             `json:"catalog_path,omitempty"`
	Grid             *zones.Grid        `json:"grid,omitempty"`
	Shard            []int              `json:"shard,omitempty"`
	StoreTimeout     string             `json:"store_timeout"`
	BuildCooldown    string             `json:"build_cooldown"`
	MaxBuildDistance float64            `json:"max_build_distance"`
	DecayInterval    string             `json:"decay_interval"`
	DecayGrace       string             `json:"decay_grace"`
	DecayStep        string             `json:"decay_step"`
	BuildingSync     string             `json:"building_sync"`
	PlayerSync       string             `json:"player_sync"`
	CaptureDecay     CaptureDecayConfig `json:"capture_decay"`
}

func (c *WorldConfig) validate() error {
	el := errors.NewErrorList()

	grid := c.grid()
	if err := grid.Validate(); err != nil {
		el.Add(fmt.Errorf("world grid: %w", err))
	} else {
		for _, k := range c.Shard {
			if !grid.Valid(zones.Key(k)) {
				el.Add(fmt.Errorf("world shard zone %d is outside the %dx%d grid", k, grid.Width, grid.Height))
			}
		}
	}

	for name, v := range map[string]string{
		"store_timeout":  c.StoreTimeout,
		"build_cooldown": c.BuildCooldown,
		"decay_interval": c.DecayInterval,
		"decay_grace":    c.DecayGrace,
		"decay_step":     c.DecayStep,
		"building_sync":  c.BuildingSync,
		"player_sync":    c.PlayerSync,
	} {
		if _, err := optionalDuration(v, time.Second); err != nil {
			el.Add(fmt.Errorf("parsing world %s: %w", name, err))
		}
	}

	if c.MaxBuildDistance < 0 {
		el.Add(fmt.Errorf("world max_build_distance must not be negative"))
	}
	if c.CaptureDecay.PerMinute < 0 {
		el.Add(fmt.Errorf("world capture_decay per_minute must not be negative"))
	}
	if _, err := optionalDuration(c.CaptureDecay.IdleAfter, time.Minute); err != nil {
		el.Add(fmt.Errorf("parsing world capture_decay idle_after: %w", err))
	}

	return el.Err()
}

func (c *WorldConfig) grid() zones.Grid {
	if c.Grid == nil {
		return zones.DefaultGrid()
	}
	return *c.Grid
}

func (c *WorldConfig) buildCatalog() (*game.Catalog, error) {
	if c.CatalogPath == "" {
		return game.DefaultCatalog()
	}
	return game.LoadCatalog(c.CatalogPath)
}

// worldOpts turns the tuning values into world options. validate must have
// passed.
func (c *WorldConfig) worldOpts() []world.WorldOpt {
	opts := []world.WorldOpt{world.WithGrid(c.grid())}

	if len(c.Shard) > 0 {
		keys := make([]zones.Key, len(c.Shard))
		for i, k := range c.Shard {
			keys[i] = zones.Key(k)
		}
		opts = append(opts, world.WithShard(keys...))
	}

	mustDuration := func(v string, def time.Duration) time.Duration {
		d, _ := optionalDuration(v, def)
		return d
	}

	opts = append(opts,
		world.WithStoreTimeout(mustDuration(c.StoreTimeout, world.DefaultStoreTimeout)),
		world.WithBuildCooldown(mustDuration(c.BuildCooldown, world.DefaultBuildCooldown)),
		world.WithDecay(
			mustDuration(c.DecayInterval, world.DefaultDecayInterval),
			mustDuration(c.DecayGrace, world.DefaultDecayGrace),
			mustDuration(c.DecayStep, world.DefaultDecayStep),
		),
		world.WithSyncIntervals(
			mustDuration(c.BuildingSync, world.DefaultBuildingSyncInterval),
			mustDuration(c.PlayerSync, world.DefaultPlayerSyncInterval),
		),
	)
	if c.MaxBuildDistance > 0 {
		opts = append(opts, world.WithMaxBuildDistance(c.MaxBuildDistance))
	}
	if c.CaptureDecay.PerMinute > 0 {
		opts = append(opts, world.WithCaptureDecay(world.CaptureDecay{
			IdleAfter: mustDuration(c.CaptureDecay.IdleAfter, 5*time.Minute),
			PerMinute: c.CaptureDecay.PerMinute,
		}))
	}

	return opts
}
