package messaging

import (
	"context"
	"sync"

	"github.com/pixil98/holdfast/internal/game"
	"github.com/pixil98/holdfast/internal/world"
	"github.com/pixil98/holdfast/internal/zones"
)

type sent struct {
	subject string
	data    []byte
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []sent
	err  error
}

func (s *recordingSender) Publish(subject string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, sent{subject: subject, data: data})
	return nil
}

type fakeWorld struct {
	placed   []world.PlaceRequest
	placeErr error
	damaged  []DamageRequest
	repairs  []BuildingRequest
	upgrades []BuildingRequest
	captures []CaptureRequest
	marked   []game.PlayerID
	near     []*game.Building
	terrs    []*game.Territory
}

func (w *fakeWorld) PlaceBuilding(_ context.Context, req world.PlaceRequest) (game.BuildingID, error) {
	if w.placeErr != nil {
		return 0, w.placeErr
	}
	w.placed = append(w.placed, req)
	return game.BuildingID(len(w.placed)), nil
}

func (w *fakeWorld) DamageBuilding(_ context.Context, id game.BuildingID, amount int, attacker game.PlayerID) (world.DamageResult, error) {
	w.damaged = append(w.damaged, DamageRequest{BuildingID: id, Amount: amount, Attacker: attacker})
	return world.DamageResult{RemainingHealth: 200 - amount}, nil
}

func (w *fakeWorld) RepairBuilding(_ context.Context, requester game.PlayerID, id game.BuildingID) (game.Resources, error) {
	w.repairs = append(w.repairs, BuildingRequest{PlayerID: requester, BuildingID: id})
	return game.Resources{Wood: 5}, nil
}

func (w *fakeWorld) UpgradeBuilding(_ context.Context, requester game.PlayerID, id game.BuildingID) (game.Resources, error) {
	w.upgrades = append(w.upgrades, BuildingRequest{PlayerID: requester, BuildingID: id})
	return game.Resources{}, game.ErrMaxTier
}

func (w *fakeWorld) CaptureProgress(_ context.Context, id game.TerritoryID, requester game.PlayerID, amount float64) error {
	w.captures = append(w.captures, CaptureRequest{TerritoryID: id, PlayerID: requester, Amount: amount})
	return nil
}

func (w *fakeWorld) GetBuildingsNear(_, _, _ float64) []*game.Building {
	return w.near
}

func (w *fakeWorld) Territories() []*game.Territory {
	return w.terrs
}

func (w *fakeWorld) MarkPlayer(id game.PlayerID) {
	w.marked = append(w.marked, id)
}

type fakeRoster struct {
	players map[game.PlayerID]game.Player
}

func newFakeRoster() *fakeRoster {
	return &fakeRoster{players: map[game.PlayerID]game.Player{}}
}

func (r *fakeRoster) Upsert(p game.Player) {
	r.players[p.ID] = p
}

func (r *fakeRoster) SetOnline(id game.PlayerID, online bool) error {
	p, ok := r.players[id]
	if !ok {
		return game.ErrPlayerNotFound
	}
	p.Online = online
	r.players[id] = p
	return nil
}

func (r *fakeRoster) Move(id game.PlayerID, pos zones.Point) error {
	p, ok := r.players[id]
	if !ok {
		return game.ErrPlayerNotFound
	}
	p.Pos = pos
	r.players[id] = p
	return nil
}
