package player

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pixil98/holdfast/internal/combat"
	"github.com/pixil98/holdfast/internal/game"
	"github.com/pixil98/holdfast/internal/zones"
)

// Loader reads the persisted players.
type Loader interface {
	LoadPlayers(ctx context.Context) ([]game.Player, error)
}

// PlayerManager is the in-memory roster of players. It is the world's player
// directory and the target locator used by turrets.
type PlayerManager struct {
	mu      sync.Mutex
	players map[game.PlayerID]*game.Player
	loader  Loader
}

func NewPlayerManager(loader Loader) *PlayerManager {
	return &PlayerManager{
		players: map[game.PlayerID]*game.Player{},
		loader:  loader,
	}
}

// Load replaces the roster with the persisted players. Everyone starts offline.
func (m *PlayerManager) Load(ctx context.Context) error {
	if m.loader == nil {
		return nil
	}
	players, err := m.loader.LoadPlayers(ctx)
	if err != nil {
		return fmt.Errorf("loading players: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range players {
		p.Online = false
		m.players[p.ID] = &p
	}

	slog.InfoContext(ctx, "players loaded", "count", len(players))
	return nil
}

// Upsert records a player's presence, position and profile. Resources and the
// destruction tally of a known player are kept; they are owned by the roster.
func (m *PlayerManager) Upsert(p game.Player) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.players[p.ID]; ok {
		p.Resources = cur.Resources
		p.BuildingsDestroyed = cur.BuildingsDestroyed
	}
	m.players[p.ID] = &p
}

func (m *PlayerManager) SetOnline(id game.PlayerID, online bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[id]
	if !ok {
		return game.ErrPlayerNotFound
	}
	p.Online = online
	return nil
}

func (m *PlayerManager) Move(id game.PlayerID, pos zones.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[id]
	if !ok {
		return game.ErrPlayerNotFound
	}
	p.Pos = pos
	return nil
}

func (m *PlayerManager) Player(id game.PlayerID) (game.Player, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[id]
	if !ok {
		return game.Player{}, false
	}
	return *p, true
}

func (m *PlayerManager) Spend(id game.PlayerID, cost game.Resources) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[id]
	if !ok {
		return game.ErrPlayerNotFound
	}
	if !p.Resources.Covers(cost) {
		return fmt.Errorf("%w. need: %s", game.ErrInsufficientResources, cost)
	}
	p.Resources = p.Resources.Sub(cost)
	return nil
}

func (m *PlayerManager) Credit(id game.PlayerID, amount game.Resources) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[id]
	if !ok {
		return game.ErrPlayerNotFound
	}
	p.Resources = p.Resources.Add(amount)
	return nil
}

func (m *PlayerManager) RecordDestruction(id game.PlayerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[id]
	if !ok {
		return game.ErrPlayerNotFound
	}
	p.BuildingsDestroyed++
	return nil
}

// HostilesInRadius returns the living online players within radius of pos
// that are neither owner nor in owner's clan.
func (m *PlayerManager) HostilesInRadius(pos zones.Point, radius float64, owner game.PlayerID, clan game.ClanID) []combat.Target {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []combat.Target
	for _, p := range m.players {
		if !p.Online || p.Health <= 0 {
			continue
		}
		if game.SameSide(owner, clan, p.ID, p.Clan) {
			continue
		}
		if p.Pos.Distance(pos) > radius {
			continue
		}
		out = append(out, combat.Target{ID: int64(p.ID), X: p.Pos.X, Y: p.Pos.Y, Health: p.Health})
	}
	return out
}

// DealDamage hurts a player and reports whether the hit was fatal.
func (m *PlayerManager) DealDamage(target int64, amount int, source game.PlayerID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[game.PlayerID(target)]
	if !ok {
		return false, game.ErrPlayerNotFound
	}
	if p.Health <= 0 {
		return false, nil
	}
	p.Health = combat.ApplyDamage(p.Health, amount)
	if p.Health == 0 {
		slog.Info("player killed", "player", p.ID, "by", source)
		return true, nil
	}
	return false, nil
}
