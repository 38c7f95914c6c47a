package world

import (
	"context"
	"log/slog"
	"time"

	"github.com/pixil98/holdfast/internal/combat"
	"github.com/pixil98/holdfast/internal/game"
)

// SweepDecay damages every active building whose decay deadline has passed by
// a tenth of its max health. Decay ignores armor. Buildings that survive are
// marked decaying and decay again one step later.
func (w *World) SweepDecay(ctx context.Context, now time.Time) int {
	fx := &effects{}
	w.mu.Lock()

	decayed := 0
	for _, b := range w.buildings {
		if !b.Active() || b.DecayAt.After(now) {
			continue
		}
		if err := b.Check(w.grid); err != nil {
			w.quarantineLocked(b, err)
			continue
		}

		decayed++
		dmg := combat.Fraction(b.MaxHealth, decayFraction)
		if w.damageLocked(b, dmg, 0, now, fx) {
			continue
		}
		b.Decaying = true
		b.DecayAt = now.Add(w.decayStep)
	}
	w.pruneCooldownsLocked(now)
	w.mu.Unlock()

	w.deliver(fx)

	if decayed > 0 {
		slog.DebugContext(ctx, "decay sweep", "decayed", decayed)
	}
	return decayed
}

// quarantineLocked drops a building that broke an invariant from the cache
// and index so it cannot spread bad state.
func (w *World) quarantineLocked(b *game.Building, cause error) {
	slog.Error("quarantining building", "building", b.ID, "error", cause)
	w.removeLocked(b)
	delete(w.dirtyBuildings, b.ID)
}
