package world

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/holdfast/internal/game"
	"github.com/pixil98/holdfast/internal/scheduler"
	"github.com/pixil98/holdfast/internal/zones"
	"golang.org/x/time/rate"
)

const (
	DefaultStoreTimeout         = 5 * time.Second
	DefaultBuildCooldown        = time.Second
	DefaultMaxBuildDistance     = 500.0
	DefaultDecayInterval        = time.Minute
	DefaultDecayGrace           = 7 * 24 * time.Hour
	DefaultDecayStep            = 24 * time.Hour
	DefaultBuildingSyncInterval = 5 * time.Second
	DefaultPlayerSyncInterval   = 10 * time.Second

	baseBuildingLimit     = 100
	buildingLimitPerLevel = 10
	collisionScale        = 10
	decayFraction         = 0.1
	lootFraction          = 0.5
	repairCostFraction    = 0.1
	upgradeCostMultiplier = 2
	upgradeHealthStep     = 0.5
	captureComplete       = 100.0
)

const (
	keyDecaySweep   = "sweep:decay"
	keyCaptureSweep = "sweep:capture"
	keySyncWorld    = "sync:world"
	keySyncPlayers  = "sync:players"
)

func constructionKey(id game.BuildingID) string { return "construct:" + id.String() }
func behaviorKey(id game.BuildingID) string     { return "behavior:" + id.String() }

// World owns the building and territory caches of one shard. All mutable state
// is guarded by mu; store I/O and notifications happen with mu released.
type World struct {
	catalog   *game.Catalog
	store     game.Store
	players   game.PlayerDirectory
	targets   game.TargetLocator
	publisher game.Publisher
	loot      game.LootDropper
	recorder  game.Recorder
	sched     *scheduler.Scheduler
	grid      zones.Grid
	shard     []zones.Key
	seeds     []*game.TerritorySeed

	storeTimeout     time.Duration
	buildCooldown    time.Duration
	maxBuildDistance float64
	decayInterval    time.Duration
	decayGrace       time.Duration
	decayStep        time.Duration
	buildingSync     time.Duration
	playerSync       time.Duration
	captureDecay     CaptureDecay

	placing keyedMutex[game.PlayerID]

	mu               sync.Mutex
	ready            bool
	owned            map[zones.Key]bool
	nextID           game.BuildingID
	buildings        map[game.BuildingID]*game.Building
	index            *zones.Index[game.BuildingID]
	ownedCounts      map[game.PlayerID]int
	tombstones       map[game.BuildingID]*game.Building
	reserved         map[game.BuildingID]struct{}
	territories      map[game.TerritoryID]*game.Territory
	dirtyBuildings   map[game.BuildingID]struct{}
	dirtyTerritories map[game.TerritoryID]struct{}
	dirtyPlayers     map[game.PlayerID]struct{}
	cooldowns        map[game.PlayerID]*rate.Limiter
}

func New(catalog *game.Catalog, store game.Store, players game.PlayerDirectory, opts ...WorldOpt) (*World, error) {
	w := &World{
		catalog:          catalog,
		store:            store,
		players:          players,
		grid:             zones.DefaultGrid(),
		storeTimeout:     DefaultStoreTimeout,
		buildCooldown:    DefaultBuildCooldown,
		maxBuildDistance: DefaultMaxBuildDistance,
		decayInterval:    DefaultDecayInterval,
		decayGrace:       DefaultDecayGrace,
		decayStep:        DefaultDecayStep,
		buildingSync:     DefaultBuildingSyncInterval,
		playerSync:       DefaultPlayerSyncInterval,
		buildings:        make(map[game.BuildingID]*game.Building),
		ownedCounts:      make(map[game.PlayerID]int),
		tombstones:       make(map[game.BuildingID]*game.Building),
		reserved:         make(map[game.BuildingID]struct{}),
		territories:      make(map[game.TerritoryID]*game.Territory),
		dirtyBuildings:   make(map[game.BuildingID]struct{}),
		dirtyTerritories: make(map[game.TerritoryID]struct{}),
		dirtyPlayers:     make(map[game.PlayerID]struct{}),
		cooldowns:        make(map[game.PlayerID]*rate.Limiter),
	}

	for _, opt := range opts {
		opt(w)
	}

	el := errors.NewErrorList()
	if catalog == nil {
		el.Add(fmt.Errorf("catalog is required"))
	}
	if store == nil {
		el.Add(fmt.Errorf("store is required"))
	}
	if players == nil {
		el.Add(fmt.Errorf("player directory is required"))
	}
	el.Add(w.grid.Validate())
	if err := el.Err(); err != nil {
		return nil, err
	}

	if w.sched == nil {
		w.sched = scheduler.New(scheduler.SystemClock())
	}
	w.index = zones.NewIndex[game.BuildingID](w.grid)

	if len(w.shard) == 0 {
		for k := range w.grid.Count() {
			w.shard = append(w.shard, zones.Key(k))
		}
	}
	w.owned = make(map[zones.Key]bool, len(w.shard))
	for _, k := range w.shard {
		if !w.grid.Valid(k) {
			return nil, fmt.Errorf("shard zone %d is outside the %dx%d grid", k, w.grid.Width, w.grid.Height)
		}
		w.owned[k] = true
	}
	slices.Sort(w.shard)

	return w, nil
}

// Scheduler returns the scheduler entity timers run on. It must be ticked by a
// driver for anything time based to happen.
func (w *World) Scheduler() *scheduler.Scheduler {
	return w.sched
}

func (w *World) Grid() zones.Grid {
	return w.grid
}

func (w *World) Catalog() *game.Catalog {
	return w.catalog
}

// Start runs the world as a service worker: it loads state, serves until ctx
// is cancelled and then flushes everything pending.
func (w *World) Start(ctx context.Context) error {
	if err := w.Init(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	sctx, cancel := context.WithTimeout(context.Background(), 4*w.storeTimeout)
	defer cancel()
	return w.Shutdown(sctx)
}

// Init loads the shard's buildings and territories, restarts entity timers and
// schedules the periodic sweeps. Nothing is served until it succeeds.
func (w *World) Init(ctx context.Context) error {
	sctx, cancel := context.WithTimeout(ctx, w.storeTimeout)
	defer cancel()

	maxID, err := w.store.MaxBuildingID(sctx)
	if err != nil {
		return fmt.Errorf("reading max building id: %w", err)
	}
	buildings, err := w.store.LoadBuildings(sctx, w.shard)
	if err != nil {
		return fmt.Errorf("loading buildings: %w", err)
	}
	territories, err := w.store.LoadTerritories(sctx, w.shard)
	if err != nil {
		return fmt.Errorf("loading territories: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.nextID = maxID + 1
	for _, b := range buildings {
		w.nextID = max(w.nextID, b.ID+1)
		w.restoreLocked(b, now)
	}

	for _, t := range territories {
		if !w.owned[t.Zone] {
			continue
		}
		w.territories[t.ID] = t
	}
	if len(w.territories) == 0 {
		w.seedTerritoriesLocked()
	}

	w.sched.Every(keyDecaySweep, w.decayInterval, func(ctx context.Context, now time.Time) {
		w.SweepDecay(ctx, now)
	})
	if w.captureDecay.enabled() {
		w.sched.Every(keyCaptureSweep, time.Minute, func(ctx context.Context, now time.Time) {
			w.SweepCaptureDecay(ctx, now)
		})
	}
	w.sched.Every(keySyncWorld, w.buildingSync, func(ctx context.Context, _ time.Time) {
		el := errors.NewErrorList()
		el.Add(w.FlushBuildings(ctx))
		el.Add(w.FlushTerritories(ctx))
		if err := el.Err(); err != nil {
			slog.WarnContext(ctx, "world sync incomplete", "error", err)
		}
	})
	w.sched.Every(keySyncPlayers, w.playerSync, func(ctx context.Context, _ time.Time) {
		if err := w.FlushPlayers(ctx); err != nil {
			slog.WarnContext(ctx, "player sync incomplete", "error", err)
		}
	})

	w.ready = true
	slog.InfoContext(ctx, "world loaded",
		"zones", len(w.shard),
		"buildings", len(w.buildings),
		"territories", len(w.territories),
		"next_id", w.nextID)

	return nil
}

func (w *World) restoreLocked(b *game.Building, now time.Time) {
	spec, ok := w.catalog.Get(b.Type)
	if !ok {
		slog.Error("skipping building of unknown type", "building", b.ID, "type", b.Type)
		return
	}
	if !w.owned[b.Zone] {
		return
	}
	if err := b.Check(w.grid); err != nil {
		slog.Error("skipping inconsistent building", "building", b.ID, "error", err)
		return
	}
	if b.Status == game.StatusDestroyed {
		return
	}

	w.addLocked(b)

	switch b.Status {
	case game.StatusConstructing:
		w.scheduleConstructionLocked(b.ID, b.CompletesAt)
	case game.StatusActive:
		w.startBehaviorsLocked(b, spec)
	}
}

func (w *World) seedTerritoriesLocked() {
	for _, s := range w.seeds {
		t, err := s.Territory(w.grid)
		if err != nil {
			slog.Error("skipping territory seed", "territory", s.ID, "error", err)
			continue
		}
		if !w.owned[t.Zone] {
			continue
		}
		w.territories[t.ID] = t
		w.dirtyTerritories[t.ID] = struct{}{}
	}
}

// Shutdown stops every entity timer and performs the final write-back. Errors
// from each flush are collected and returned together.
func (w *World) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	w.ready = false
	w.mu.Unlock()

	w.sched.CancelAll()

	el := errors.NewErrorList()
	el.Add(w.FlushBuildings(ctx))
	el.Add(w.FlushTerritories(ctx))
	el.Add(w.FlushPlayers(ctx))

	err := el.Err()
	if err != nil {
		slog.ErrorContext(ctx, "final world flush incomplete", "error", err)
	} else {
		slog.InfoContext(ctx, "world flushed")
	}
	return err
}

func (w *World) now() time.Time {
	return w.sched.Clock().Now()
}

func (w *World) checkReady() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.ready {
		return game.ErrNotReady
	}
	return nil
}

// addLocked puts b into the cache and the zone index in one step.
func (w *World) addLocked(b *game.Building) {
	w.buildings[b.ID] = b
	w.index.Add(b.Zone, b.ID, b.Pos)
	w.ownedCounts[b.Owner]++
}

// removeLocked takes b out of the cache and the zone index in one step and
// stops its timers.
func (w *World) removeLocked(b *game.Building) {
	if _, ok := w.buildings[b.ID]; !ok {
		return
	}
	delete(w.buildings, b.ID)
	w.index.Remove(b.Zone, b.ID)
	w.ownedCounts[b.Owner]--
	if w.ownedCounts[b.Owner] <= 0 {
		delete(w.ownedCounts, b.Owner)
	}
	w.sched.Cancel(constructionKey(b.ID))
	w.sched.Cancel(behaviorKey(b.ID))
}

func (w *World) markBuildingLocked(id game.BuildingID) {
	w.dirtyBuildings[id] = struct{}{}
}

func (w *World) markTerritoryLocked(id game.TerritoryID) {
	w.dirtyTerritories[id] = struct{}{}
}

func (w *World) markPlayerLocked(id game.PlayerID) {
	if id == 0 {
		return
	}
	w.dirtyPlayers[id] = struct{}{}
}
