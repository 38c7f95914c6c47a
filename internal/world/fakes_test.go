package world

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/holdfast/internal/combat"
	"github.com/pixil98/holdfast/internal/game"
	"github.com/pixil98/holdfast/internal/scheduler"
	"github.com/pixil98/holdfast/internal/zones"
)

var errStoreDown = errors.New("store down")

type memStore struct {
	mu          sync.Mutex
	buildings   map[game.BuildingID]*game.Building
	territories map[game.TerritoryID]*game.Territory
	players     map[game.PlayerID]game.Player
	maxID       game.BuildingID
	failInsert  bool
	failSave    bool
	saves       int

	// afterInsert runs once the row is written and replaces the reported
	// result, standing in for a commit whose acknowledgement is lost.
	afterInsert func() error
}

func newMemStore() *memStore {
	return &memStore{
		buildings:   map[game.BuildingID]*game.Building{},
		territories: map[game.TerritoryID]*game.Territory{},
		players:     map[game.PlayerID]game.Player{},
	}
}

func (s *memStore) LoadBuildings(_ context.Context, zs []zones.Key) ([]*game.Building, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := map[zones.Key]bool{}
	for _, z := range zs {
		want[z] = true
	}
	var out []*game.Building
	for _, b := range s.buildings {
		if want[b.Zone] && b.Status != game.StatusDestroyed {
			out = append(out, b.Clone())
		}
	}
	return out, nil
}

func (s *memStore) LoadTerritories(_ context.Context, zs []zones.Key) ([]*game.Territory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*game.Territory
	for _, t := range s.territories {
		out = append(out, t.Clone())
	}
	return out, nil
}

func (s *memStore) MaxBuildingID(context.Context) (game.BuildingID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxID, nil
}

func (s *memStore) InsertBuilding(_ context.Context, b *game.Building) error {
	s.mu.Lock()
	if s.failInsert {
		s.mu.Unlock()
		return errStoreDown
	}
	s.buildings[b.ID] = b.Clone()
	after := s.afterInsert
	s.mu.Unlock()

	if after != nil {
		return after()
	}
	return nil
}

func (s *memStore) SaveBuilding(_ context.Context, b *game.Building) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return errStoreDown
	}
	s.saves++
	s.buildings[b.ID] = b.Clone()
	return nil
}

func (s *memStore) DeleteBuilding(_ context.Context, id game.BuildingID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buildings, id)
	return nil
}

func (s *memStore) SaveTerritory(_ context.Context, t *game.Territory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return errStoreDown
	}
	s.territories[t.ID] = t.Clone()
	return nil
}

func (s *memStore) SavePlayer(_ context.Context, p game.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return errStoreDown
	}
	s.players[p.ID] = p
	return nil
}

func (s *memStore) stored(id game.BuildingID) (*game.Building, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buildings[id]
	return b, ok
}

type memPlayers struct {
	mu      sync.Mutex
	players map[game.PlayerID]game.Player
}

func (d *memPlayers) put(p game.Player) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.players[p.ID] = p
}

func (d *memPlayers) Player(id game.PlayerID) (game.Player, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.players[id]
	return p, ok
}

func (d *memPlayers) Spend(id game.PlayerID, cost game.Resources) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.players[id]
	if !ok {
		return game.ErrPlayerNotFound
	}
	if !p.Resources.Covers(cost) {
		return game.ErrInsufficientResources
	}
	p.Resources = p.Resources.Sub(cost)
	d.players[id] = p
	return nil
}

func (d *memPlayers) Credit(id game.PlayerID, amount game.Resources) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.players[id]
	if !ok {
		return game.ErrPlayerNotFound
	}
	p.Resources = p.Resources.Add(amount)
	d.players[id] = p
	return nil
}

func (d *memPlayers) RecordDestruction(id game.PlayerID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.players[id]
	if !ok {
		return game.ErrPlayerNotFound
	}
	p.BuildingsDestroyed++
	d.players[id] = p
	return nil
}

type sent struct {
	zone   zones.Key
	player game.PlayerID
	data   string
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []sent
}

func (p *recordingPublisher) PublishToZone(zone zones.Key, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sent{zone: zone, data: string(data)})
	return nil
}

func (p *recordingPublisher) PublishToPlayer(player game.PlayerID, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sent{player: player, data: string(data)})
	return nil
}

// count returns how many notifications of type t were sent.
func (p *recordingPublisher) count(t game.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range p.sent {
		if containsType(s.data, t) {
			n++
		}
	}
	return n
}

func containsType(data string, t game.EventType) bool {
	return len(data) > 0 && strings.Contains(data, `"type":"`+string(t)+`"`)
}

type recordingLoot struct {
	mu    sync.Mutex
	drops []game.Resources
}

func (l *recordingLoot) DropLoot(_ zones.Point, _ zones.Key, loot game.Resources) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.drops = append(l.drops, loot)
	return nil
}

type recordingRecorder struct {
	mu     sync.Mutex
	events []game.EventType
}

func (r *recordingRecorder) Record(ev game.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev.Type)
	return nil
}

type fakeTargets struct {
	mu      sync.Mutex
	targets []combat.Target
	hits    map[int64]int
}

func (f *fakeTargets) HostilesInRadius(p zones.Point, radius float64, _ game.PlayerID, _ game.ClanID) []combat.Target {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []combat.Target
	for _, t := range f.targets {
		if t.Health > 0 && t.Distance(p.X, p.Y) <= radius {
			out = append(out, t)
		}
	}
	return out
}

func (f *fakeTargets) DealDamage(target int64, amount int, _ game.PlayerID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hits == nil {
		f.hits = map[int64]int{}
	}
	for i := range f.targets {
		if f.targets[i].ID == target {
			f.hits[target]++
			f.targets[i].Health = max(0, f.targets[i].Health-amount)
			return f.targets[i].Health == 0, nil
		}
	}
	return false, errors.New("no such target")
}

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	w       *World
	clock   *scheduler.ManualClock
	sched   *scheduler.Scheduler
	store   *memStore
	players *memPlayers
	pub     *recordingPublisher
	loot    *recordingLoot
	audit   *recordingRecorder
	targets *fakeTargets
}

// builder is the default online player, standing in zone 0 with plenty to spend.
func builder() game.Player {
	return game.Player{
		ID:        1,
		Name:      "builder",
		Faction:   "red",
		Level:     1,
		Pos:       zones.Point{X: 1000, Y: 1000},
		Online:    true,
		Health:    100,
		Resources: game.Resources{Wood: 10000, Stone: 10000, Metal: 10000, Uranium: 1000},
	}
}

func newFixture(t *testing.T, seed func(*memStore), opts ...WorldOpt) *fixture {
	t.Helper()

	clock := scheduler.NewManualClock(epoch)
	f := &fixture{
		clock:   clock,
		sched:   scheduler.New(clock),
		store:   newMemStore(),
		players: &memPlayers{players: map[game.PlayerID]game.Player{}},
		pub:     &recordingPublisher{},
		loot:    &recordingLoot{},
		audit:   &recordingRecorder{},
		targets: &fakeTargets{},
	}
	f.players.put(builder())
	if seed != nil {
		seed(f.store)
	}

	catalog, err := game.DefaultCatalog()
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}

	opts = append([]WorldOpt{
		WithScheduler(f.sched),
		WithPublisher(f.pub),
		WithLootDropper(f.loot),
		WithRecorder(f.audit),
		WithTargetLocator(f.targets),
	}, opts...)

	w, err := New(catalog, f.store, f.players, opts...)
	if err != nil {
		t.Fatalf("creating world: %v", err)
	}
	if err := w.Init(context.Background()); err != nil {
		t.Fatalf("initializing world: %v", err)
	}
	f.w = w
	return f
}

// advance moves the clock forward and runs whatever came due.
func (f *fixture) advance(t *testing.T, d time.Duration) {
	t.Helper()
	f.clock.Advance(d)
	if err := f.sched.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
}

// place puts a building down and fails the test if it is rejected.
func (f *fixture) place(t *testing.T, typ game.BuildingType, x, y float64) game.BuildingID {
	t.Helper()
	f.clock.Advance(2 * time.Second)
	id, err := f.w.PlaceBuilding(context.Background(), PlaceRequest{Requester: 1, Type: typ, X: x, Y: y})
	if err != nil {
		t.Fatalf("placing %s: %v", typ, err)
	}
	return id
}

// activeBuilding stores a finished building so it is loaded by Init.
func activeBuilding(id game.BuildingID, typ game.BuildingType, x, y float64, owner game.PlayerID) *game.Building {
	catalog, _ := game.DefaultCatalog()
	spec, _ := catalog.Get(typ)
	zone, _ := zones.DefaultGrid().KeyFor(x, y)
	return &game.Building{
		ID:        id,
		Type:      typ,
		Tier:      spec.Tier,
		Pos:       zones.Point{X: x, Y: y},
		Zone:      zone,
		Owner:     owner,
		Health:    spec.Health,
		MaxHealth: spec.Health,
		Armor:     spec.Armor,
		Status:    game.StatusActive,
		Payload:   game.NewPayload(spec, epoch),
		DecayAt:   epoch.Add(DefaultDecayGrace),
		CreatedAt: epoch,
	}
}
