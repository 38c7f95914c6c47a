package world

import (
	"time"

	"github.com/pixil98/holdfast/internal/game"
	"github.com/pixil98/holdfast/internal/scheduler"
	"github.com/pixil98/holdfast/internal/zones"
)

type WorldOpt func(*World)

// WithScheduler runs entity timers on s instead of a scheduler on the system clock.
func WithScheduler(s *scheduler.Scheduler) WorldOpt {
	return func(w *World) {
		w.sched = s
	}
}

func WithGrid(g zones.Grid) WorldOpt {
	return func(w *World) {
		w.grid = g
	}
}

// WithShard limits the world to the given zones. By default every zone of the
// grid is owned.
func WithShard(keys ...zones.Key) WorldOpt {
	return func(w *World) {
		w.shard = append([]zones.Key(nil), keys...)
	}
}

func WithTargetLocator(t game.TargetLocator) WorldOpt {
	return func(w *World) {
		w.targets = t
	}
}

func WithPublisher(p game.Publisher) WorldOpt {
	return func(w *World) {
		w.publisher = p
	}
}

func WithLootDropper(l game.LootDropper) WorldOpt {
	return func(w *World) {
		w.loot = l
	}
}

func WithRecorder(r game.Recorder) WorldOpt {
	return func(w *World) {
		w.recorder = r
	}
}

// WithTerritorySeeds sets the territories created when the store has none.
func WithTerritorySeeds(seeds []*game.TerritorySeed) WorldOpt {
	return func(w *World) {
		w.seeds = seeds
	}
}

func WithStoreTimeout(d time.Duration) WorldOpt {
	return func(w *World) {
		w.storeTimeout = d
	}
}

func WithBuildCooldown(d time.Duration) WorldOpt {
	return func(w *World) {
		w.buildCooldown = d
	}
}

func WithMaxBuildDistance(d float64) WorldOpt {
	return func(w *World) {
		w.maxBuildDistance = d
	}
}

// WithDecay sets how often decay is swept, how long a building is safe after
// placement or repair, and how long until a decaying building decays again.
func WithDecay(interval, grace, step time.Duration) WorldOpt {
	return func(w *World) {
		w.decayInterval = interval
		w.decayGrace = grace
		w.decayStep = step
	}
}

func WithSyncIntervals(buildings, players time.Duration) WorldOpt {
	return func(w *World) {
		w.buildingSync = buildings
		w.playerSync = players
	}
}

func WithCaptureDecay(d CaptureDecay) WorldOpt {
	return func(w *World) {
		w.captureDecay = d
	}
}
