package world

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/holdfast/internal/game"
)

// FlushBuildings writes every dirty building, tombstones included. Buildings
// that fail to write stay dirty for the next flush. Reserved buildings are
// left dirty until their insert lands.
func (w *World) FlushBuildings(ctx context.Context) error {
	w.mu.Lock()
	pending := make([]*game.Building, 0, len(w.dirtyBuildings))
	for id := range w.dirtyBuildings {
		if _, ok := w.reserved[id]; ok {
			continue
		}
		if b, ok := w.buildings[id]; ok {
			pending = append(pending, b.Clone())
		} else if b, ok := w.tombstones[id]; ok {
			pending = append(pending, b.Clone())
		}
		delete(w.dirtyBuildings, id)
	}
	w.mu.Unlock()

	el := errors.NewErrorList()
	for _, b := range pending {
		sctx, cancel := context.WithTimeout(ctx, w.storeTimeout)
		err := w.store.SaveBuilding(sctx, b)
		cancel()

		w.mu.Lock()
		if err != nil {
			w.markBuildingLocked(b.ID)
			el.Add(fmt.Errorf("saving building %d: %w", b.ID, err))
		} else if b.Status == game.StatusDestroyed {
			delete(w.tombstones, b.ID)
		}
		w.mu.Unlock()
	}

	if len(pending) > 0 {
		slog.DebugContext(ctx, "buildings flushed", "count", len(pending))
	}
	return el.Err()
}

// FlushTerritories writes every dirty territory.
func (w *World) FlushTerritories(ctx context.Context) error {
	w.mu.Lock()
	pending := make([]*game.Territory, 0, len(w.dirtyTerritories))
	for id := range w.dirtyTerritories {
		if t, ok := w.territories[id]; ok {
			pending = append(pending, t.Clone())
		}
		delete(w.dirtyTerritories, id)
	}
	w.mu.Unlock()

	el := errors.NewErrorList()
	for _, t := range pending {
		sctx, cancel := context.WithTimeout(ctx, w.storeTimeout)
		err := w.store.SaveTerritory(sctx, t)
		cancel()

		if err != nil {
			w.mu.Lock()
			w.markTerritoryLocked(t.ID)
			w.mu.Unlock()
			el.Add(fmt.Errorf("saving territory %d: %w", t.ID, err))
		}
	}
	return el.Err()
}

// FlushPlayers writes the current state of every player the world changed.
func (w *World) FlushPlayers(ctx context.Context) error {
	w.mu.Lock()
	ids := make([]game.PlayerID, 0, len(w.dirtyPlayers))
	for id := range w.dirtyPlayers {
		ids = append(ids, id)
		delete(w.dirtyPlayers, id)
	}
	w.mu.Unlock()

	el := errors.NewErrorList()
	for _, id := range ids {
		p, ok := w.players.Player(id)
		if !ok {
			continue
		}

		sctx, cancel := context.WithTimeout(ctx, w.storeTimeout)
		err := w.store.SavePlayer(sctx, p)
		cancel()

		if err != nil {
			w.mu.Lock()
			w.markPlayerLocked(id)
			w.mu.Unlock()
			el.Add(fmt.Errorf("saving player %d: %w", id, err))
		}
	}
	return el.Err()
}

// Pending returns the number of buildings, territories and players waiting to
// be written.
func (w *World) Pending() (buildings, territories, players int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.dirtyBuildings), len(w.dirtyTerritories), len(w.dirtyPlayers)
}

// MarkPlayer queues a player's roster state for the next write-back.
func (w *World) MarkPlayer(id game.PlayerID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.markPlayerLocked(id)
}
