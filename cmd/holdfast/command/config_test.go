package command

import (
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
	"github.com/pixil98/holdfast/internal/zones"
)

func TestConfig_Validate(t *testing.T) {
	tests := map[string]struct {
		config  Config
		expErrs []string
	}{
		"minimal": {
			config: Config{Storage: StorageConfig{DatabasePath: "data/holdfast.db"}},
		},
		"fully tuned": {
			config: Config{
				TickInterval: "50ms",
				Storage:      StorageConfig{DatabasePath: "data/holdfast.db"},
				Nats:         NatsConfig{Host: "0.0.0.0", Port: 4222, StartTimeout: "5s"},
				World: WorldConfig{
					Grid:          &zones.Grid{ZoneSize: 1000, Width: 4, Height: 4},
					Shard:         []int{0, 1, 4, 5},
					BuildCooldown: "2s",
					DecayGrace:    "72h",
					CaptureDecay:  CaptureDecayConfig{IdleAfter: "10m", PerMinute: 2},
				},
			},
		},
		"missing database": {
			config:  Config{},
			expErrs: []string{"database_path is required"},
		},
		"bad durations": {
			config: Config{
				TickInterval: "soon",
				Storage:      StorageConfig{DatabasePath: "x.db"},
				Nats:         NatsConfig{StartTimeout: "later"},
				World:        WorldConfig{DecayStep: "-1h", PlayerSync: "often"},
			},
			expErrs: []string{"tick_interval", "start_timeout", "decay_step", "player_sync"},
		},
		"tick too slow": {
			config:  Config{TickInterval: "5s", Storage: StorageConfig{DatabasePath: "x.db"}},
			expErrs: []string{"tick_interval must be between"},
		},
		"shard outside grid": {
			config: Config{
				Storage: StorageConfig{DatabasePath: "x.db"},
				World:   WorldConfig{Grid: &zones.Grid{ZoneSize: 1000, Width: 2, Height: 2}, Shard: []int{4}},
			},
			expErrs: []string{"shard zone 4 is outside the 2x2 grid"},
		},
		"invalid grid": {
			config: Config{
				Storage: StorageConfig{DatabasePath: "x.db"},
				World:   WorldConfig{Grid: &zones.Grid{Width: 2, Height: 2}},
			},
			expErrs: []string{"zone_size must be positive"},
		},
		"missing territories dir": {
			config:  Config{Storage: StorageConfig{DatabasePath: "x.db", TerritoriesPath: "/nonexistent/territories"}},
			expErrs: []string{"invalid territories_path"},
		},
		"negative tuning": {
			config: Config{
				Storage: StorageConfig{DatabasePath: "x.db"},
				World:   WorldConfig{MaxBuildDistance: -1, CaptureDecay: CaptureDecayConfig{PerMinute: -3}},
			},
			expErrs: []string{"max_build_distance", "per_minute"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.config.Validate()
			if len(tt.expErrs) == 0 {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			for _, e := range tt.expErrs {
				testutil.AssertErrorContains(t, err, e)
			}
		})
	}
}

func TestConfig_TickLength(t *testing.T) {
	testutil.AssertEqual(t, "default", (&Config{}).tickLength(), 100*time.Millisecond)
	testutil.AssertEqual(t, "set", (&Config{TickInterval: "250ms"}).tickLength(), 250*time.Millisecond)
}

func TestWorldConfig_WorldOpts(t *testing.T) {
	tests := map[string]struct {
		config  WorldConfig
		expOpts int
	}{
		"defaults": {
			config:  WorldConfig{},
			expOpts: 5,
		},
		"shard distance and capture decay": {
			config:  WorldConfig{Shard: []int{1}, MaxBuildDistance: 300, CaptureDecay: CaptureDecayConfig{PerMinute: 1}},
			expOpts: 8,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "opts", len(tt.config.worldOpts()), tt.expOpts)
		})
	}
}
