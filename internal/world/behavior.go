package world

import (
	"context"
	"log/slog"
	"time"

	"github.com/pixil98/holdfast/internal/combat"
	"github.com/pixil98/holdfast/internal/game"
)

// startBehaviorsLocked starts the repeating timer for buildings that act on
// their own.
func (w *World) startBehaviorsLocked(b *game.Building, spec *game.BuildingSpec) {
	id := b.ID
	switch {
	case spec.Turret != nil && b.Turret() != nil:
		w.sched.Every(behaviorKey(id), spec.Turret.FireRate.Duration, func(ctx context.Context, now time.Time) {
			w.turretTick(ctx, id, now)
		})
	case spec.Production != nil && b.Generator() != nil:
		w.sched.Every(behaviorKey(id), spec.Production.Interval.Duration, func(ctx context.Context, now time.Time) {
			w.generatorTick(ctx, id, now)
		})
	}
}

// turretTick fires once at the nearest hostile in range. The target locator is
// consulted without the world lock held.
func (w *World) turretTick(ctx context.Context, id game.BuildingID, now time.Time) {
	w.mu.Lock()
	b, ok := w.buildings[id]
	if !ok || !b.Active() {
		w.sched.Cancel(behaviorKey(id))
		w.mu.Unlock()
		return
	}
	spec, _ := w.catalog.Get(b.Type)
	tp := b.Turret()
	if tp == nil || spec.Turret == nil || tp.Ammo <= 0 || w.targets == nil {
		w.mu.Unlock()
		return
	}
	pos, owner, clan, zone := b.Pos, b.Owner, b.Clan, b.Zone
	w.mu.Unlock()

	target, ok := combat.Nearest(w.targets.HostilesInRadius(pos, spec.Turret.Range, owner, clan), pos.X, pos.Y)
	if !ok {
		return
	}

	killed, err := w.targets.DealDamage(target.ID, spec.Turret.Damage, owner)
	if err != nil {
		slog.WarnContext(ctx, "turret could not fire", "building", id, "target", target.ID, "error", err)
		return
	}

	fx := &effects{}
	w.mu.Lock()
	if b, ok := w.buildings[id]; ok {
		if tp := b.Turret(); tp != nil {
			tp.Ammo = max(0, tp.Ammo-1)
			if killed {
				tp.Kills++
			}
			w.markBuildingLocked(id)
		}
	}
	fx.toZone(zone, game.NewEvent(game.EventTurretFire, now, game.TurretFire{
		BuildingID: id,
		TargetID:   target.ID,
		Damage:     spec.Turret.Damage,
		Killed:     killed,
	}))
	w.mu.Unlock()

	w.deliver(fx)
}

// generatorTick credits one interval of production to the owner.
func (w *World) generatorTick(ctx context.Context, id game.BuildingID, now time.Time) {
	fx := &effects{}
	w.mu.Lock()
	b, ok := w.buildings[id]
	if !ok || !b.Active() {
		w.sched.Cancel(behaviorKey(id))
		w.mu.Unlock()
		return
	}
	spec, _ := w.catalog.Get(b.Type)
	gp := b.Generator()
	if gp == nil || spec.Production == nil {
		w.mu.Unlock()
		return
	}

	yield, owner := spec.Production.Yield, b.Owner
	if err := w.players.Credit(owner, yield); err != nil {
		w.mu.Unlock()
		slog.WarnContext(ctx, "generator could not credit owner", "building", id, "player", owner, "error", err)
		return
	}
	gp.LastHarvest = now
	w.markBuildingLocked(id)
	w.markPlayerLocked(owner)

	fx.toPlayer(owner, game.NewEvent(game.EventResourceGenerated, now, game.ResourceGenerated{
		BuildingID: id,
		Resources:  yield,
	}))
	w.mu.Unlock()

	w.deliver(fx)
}
