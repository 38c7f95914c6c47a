package world

import (
	"context"
	"log/slog"
	"time"

	"github.com/pixil98/holdfast/internal/game"
)

// CaptureDecay drains capture progress on territories nobody is contesting.
// The zero value disables it.
type CaptureDecay struct {
	IdleAfter time.Duration
	PerMinute float64
}

func (d CaptureDecay) enabled() bool {
	return d.PerMinute > 0
}

// CaptureProgress adds amount to the requester's capture of a territory.
// Players without a faction are refused and players of the controlling
// faction make no progress. Reaching 100 hands the
// territory to the requester and resets progress.
func (w *World) CaptureProgress(ctx context.Context, id game.TerritoryID, requester game.PlayerID, amount float64) error {
	if err := w.checkReady(); err != nil {
		return err
	}
	if amount <= 0 {
		return game.ErrInvalidAmount
	}

	fx := &effects{}
	w.mu.Lock()
	t, ok := w.territories[id]
	if !ok {
		w.mu.Unlock()
		return game.ErrTerritoryNotFound
	}
	player, ok := w.players.Player(requester)
	if !ok {
		w.mu.Unlock()
		return game.ErrPlayerNotFound
	}
	if player.Faction == "" {
		w.mu.Unlock()
		return game.ErrNoFaction
	}
	if player.Faction == t.ControlledBy {
		w.mu.Unlock()
		return nil
	}

	now := w.now()
	t.Progress += amount
	t.UnderAttack = true
	t.LastAttackAt = now

	captured := t.Progress >= captureComplete
	if captured {
		t.ControlledBy = player.Faction
		t.Owner = player.ID
		t.Clan = player.Clan
		t.Progress = 0
		t.UnderAttack = false

		ev := game.NewEvent(game.EventTerritoryCaptured, now, game.TerritoryCaptured{
			TerritoryID: t.ID,
			Name:        t.Name,
			Faction:     player.Faction,
			Owner:       player.ID,
			Clan:        player.Clan,
		})
		for _, zone := range w.shard {
			fx.toZone(zone, ev)
		}
		fx.record(ev)
	}
	w.markTerritoryLocked(id)
	w.mu.Unlock()

	w.deliver(fx)

	if captured {
		slog.InfoContext(ctx, "territory captured", "territory", id, "faction", player.Faction, "player", requester)
	}
	return nil
}

// SweepCaptureDecay reduces the progress of territories that have not been
// attacked for the configured idle period. It is a no-op when capture decay
// is disabled.
func (w *World) SweepCaptureDecay(ctx context.Context, now time.Time) int {
	if !w.captureDecay.enabled() {
		return 0
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	n := 0
	for _, t := range w.territories {
		if !t.UnderAttack || now.Sub(t.LastAttackAt) < w.captureDecay.IdleAfter {
			continue
		}
		t.Progress = max(0, t.Progress-w.captureDecay.PerMinute)
		if t.Progress == 0 {
			t.UnderAttack = false
		}
		w.markTerritoryLocked(t.ID)
		n++
	}

	if n > 0 {
		slog.DebugContext(ctx, "capture decay sweep", "territories", n)
	}
	return n
}
