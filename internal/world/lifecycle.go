package world

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pixil98/holdfast/internal/combat"
	"github.com/pixil98/holdfast/internal/game"
)

// DamageResult reports the outcome of a hit on a building.
type DamageResult struct {
	Destroyed       bool `json:"destroyed"`
	RemainingHealth int  `json:"remaining_health"`
}

// DamageBuilding applies amount, reduced by armor, to a building. attacker may
// be zero for environmental damage.
func (w *World) DamageBuilding(ctx context.Context, id game.BuildingID, amount int, attacker game.PlayerID) (DamageResult, error) {
	if err := w.checkReady(); err != nil {
		return DamageResult{}, err
	}
	if amount <= 0 {
		return DamageResult{}, game.ErrInvalidAmount
	}

	fx := &effects{}
	w.mu.Lock()
	b, err := w.liveBuildingLocked(id)
	if err != nil {
		w.mu.Unlock()
		return DamageResult{}, err
	}

	dmg := combat.Mitigate(amount, b.Armor)
	destroyed := w.damageLocked(b, dmg, attacker, w.now(), fx)
	res := DamageResult{Destroyed: destroyed, RemainingHealth: b.Health}
	w.mu.Unlock()

	w.deliver(fx)

	if destroyed {
		slog.InfoContext(ctx, "building destroyed", "building", id, "attacker", attacker)
	}
	return res, nil
}

func (w *World) liveBuildingLocked(id game.BuildingID) (*game.Building, error) {
	if _, ok := w.reserved[id]; ok {
		return nil, game.ErrBuildingPending
	}
	if b, ok := w.buildings[id]; ok {
		return b, nil
	}
	if _, ok := w.tombstones[id]; ok {
		return nil, game.ErrBuildingDestroyed
	}
	return nil, game.ErrBuildingNotFound
}

// damageLocked takes dmg off b's health, destroying it at zero. It reports
// whether b was destroyed.
func (w *World) damageLocked(b *game.Building, dmg int, attacker game.PlayerID, now time.Time, fx *effects) bool {
	b.Health = combat.ApplyDamage(b.Health, dmg)
	if b.Health == 0 {
		w.destroyLocked(b, attacker, now, fx)
		return true
	}

	w.markBuildingLocked(b.ID)
	fx.toZone(b.Zone, game.NewEvent(game.EventBuildingDamaged, now, game.BuildingDamaged{
		BuildingID: b.ID,
		Damage:     dmg,
		Health:     b.Health,
		MaxHealth:  b.MaxHealth,
		Attacker:   attacker,
	}))
	return false
}

// destroyLocked retires b: it leaves the cache and index, its timers stop and
// it lives on only as a tombstone until the next write-back.
func (w *World) destroyLocked(b *game.Building, attacker game.PlayerID, now time.Time, fx *effects) {
	b.Health = 0
	b.Status = game.StatusDestroyed
	b.Decaying = false

	w.removeLocked(b)
	w.tombstones[b.ID] = b
	w.markBuildingLocked(b.ID)

	var loot game.Resources
	if spec, ok := w.catalog.Get(b.Type); ok {
		loot = spec.Cost.Floor(lootFraction)
	}
	if !loot.IsZero() {
		fx.drop(b.Pos, b.Zone, loot)
	}

	if attacker != 0 {
		if err := w.players.RecordDestruction(attacker); err != nil {
			slog.Warn("recording destruction", "player", attacker, "error", err)
		} else {
			w.markPlayerLocked(attacker)
		}
	}

	ev := game.NewEvent(game.EventBuildingDestroyed, now, game.BuildingDestroyed{
		BuildingID:  b.ID,
		Type:        b.Type,
		DestroyedBy: attacker,
		Loot:        loot,
	})
	fx.toZone(b.Zone, ev)
	fx.record(ev)
}

// RepairBuilding restores a damaged building to full health for a share of its
// cost proportional to the missing health. Owners and clanmates may repair.
func (w *World) RepairBuilding(ctx context.Context, requester game.PlayerID, id game.BuildingID) (game.Resources, error) {
	if err := w.checkReady(); err != nil {
		return game.Resources{}, err
	}

	fx := &effects{}
	w.mu.Lock()
	b, err := w.liveBuildingLocked(id)
	if err != nil {
		w.mu.Unlock()
		return game.Resources{}, err
	}

	player, ok := w.players.Player(requester)
	if !ok {
		w.mu.Unlock()
		return game.Resources{}, game.ErrPlayerNotFound
	}
	if !game.SameSide(b.Owner, b.Clan, player.ID, player.Clan) {
		w.mu.Unlock()
		return game.Resources{}, game.ErrNotOwner
	}
	if b.Status == game.StatusConstructing {
		w.mu.Unlock()
		return game.Resources{}, game.ErrUnderConstruction
	}
	if b.Health >= b.MaxHealth {
		w.mu.Unlock()
		return game.Resources{}, game.ErrFullHealth
	}

	spec, _ := w.catalog.Get(b.Type)
	missing := float64(b.MaxHealth - b.Health)
	cost := spec.Cost.Ceil(repairCostFraction * missing / 100)

	if err := w.players.Spend(requester, cost); err != nil {
		w.mu.Unlock()
		return game.Resources{}, err
	}

	now := w.now()
	b.Health = b.MaxHealth
	b.Decaying = false
	b.DecayAt = now.Add(w.decayGrace)
	if tp := b.Turret(); tp != nil && spec.Turret != nil {
		tp.Ammo = spec.Turret.Ammo
	}
	w.markBuildingLocked(b.ID)
	w.markPlayerLocked(requester)

	ev := game.NewEvent(game.EventBuildingRepaired, now, game.BuildingRepaired{BuildingID: b.ID, By: requester, Cost: cost})
	fx.toZone(b.Zone, ev)
	fx.record(ev)
	w.mu.Unlock()

	w.deliver(fx)

	slog.InfoContext(ctx, "building repaired", "building", id, "player", requester, "cost", cost.String())
	return cost, nil
}

// UpgradeBuilding raises a building one tier for twice its original cost.
// Only the owner may upgrade.
func (w *World) UpgradeBuilding(ctx context.Context, requester game.PlayerID, id game.BuildingID) (game.Resources, error) {
	if err := w.checkReady(); err != nil {
		return game.Resources{}, err
	}

	fx := &effects{}
	w.mu.Lock()
	b, err := w.liveBuildingLocked(id)
	if err != nil {
		w.mu.Unlock()
		return game.Resources{}, err
	}
	if _, ok := w.players.Player(requester); !ok {
		w.mu.Unlock()
		return game.Resources{}, game.ErrPlayerNotFound
	}
	if b.Owner != requester {
		w.mu.Unlock()
		return game.Resources{}, game.ErrNotOwner
	}
	if b.Status == game.StatusConstructing {
		w.mu.Unlock()
		return game.Resources{}, game.ErrUnderConstruction
	}
	if b.Tier >= game.MaxTier {
		w.mu.Unlock()
		return game.Resources{}, game.ErrMaxTier
	}

	spec, _ := w.catalog.Get(b.Type)
	cost := spec.Cost.Mul(upgradeCostMultiplier)
	if err := w.players.Spend(requester, cost); err != nil {
		w.mu.Unlock()
		return game.Resources{}, err
	}

	now := w.now()
	b.Tier++
	b.MaxHealth = int(float64(spec.Health) * (1 + float64(b.Tier)*upgradeHealthStep))
	b.Health = b.MaxHealth
	w.markBuildingLocked(b.ID)
	w.markPlayerLocked(requester)

	tier := b.Tier
	ev := game.NewEvent(game.EventBuildingUpgraded, now, game.BuildingUpgraded{BuildingID: b.ID, Tier: tier, MaxHealth: b.MaxHealth})
	fx.toZone(b.Zone, ev)
	fx.record(ev)
	w.mu.Unlock()

	w.deliver(fx)

	slog.InfoContext(ctx, "building upgraded", "building", id, "tier", tier)
	return cost, nil
}

// PurgeBuilding removes a building from the world and the store outright,
// without loot or notifications.
func (w *World) PurgeBuilding(ctx context.Context, id game.BuildingID) error {
	if err := w.checkReady(); err != nil {
		return err
	}

	w.mu.Lock()
	if _, ok := w.reserved[id]; ok {
		w.mu.Unlock()
		return game.ErrBuildingPending
	}
	b, ok := w.buildings[id]
	if ok {
		w.removeLocked(b)
	}
	_, tomb := w.tombstones[id]
	delete(w.tombstones, id)
	delete(w.dirtyBuildings, id)
	w.mu.Unlock()

	if !ok && !tomb {
		return game.ErrBuildingNotFound
	}

	sctx, cancel := context.WithTimeout(ctx, w.storeTimeout)
	defer cancel()
	if err := w.store.DeleteBuilding(sctx, id); err != nil {
		return fmt.Errorf("%w: %w", game.ErrStoreUnavailable, err)
	}

	slog.InfoContext(ctx, "building purged", "building", id)
	return nil
}

func (w *World) scheduleConstructionLocked(id game.BuildingID, at time.Time) {
	w.sched.At(constructionKey(id), at, func(ctx context.Context, now time.Time) {
		w.completeConstruction(ctx, id, now)
	})
}

// completeConstruction activates a building whose build time has elapsed, if
// it still exists.
func (w *World) completeConstruction(ctx context.Context, id game.BuildingID, now time.Time) {
	fx := &effects{}
	w.mu.Lock()
	b, ok := w.buildings[id]
	if !ok || b.Status != game.StatusConstructing {
		w.mu.Unlock()
		return
	}

	b.Status = game.StatusActive
	b.Health = b.MaxHealth
	w.markBuildingLocked(id)

	spec, _ := w.catalog.Get(b.Type)
	w.startBehaviorsLocked(b, spec)

	ev := game.NewEvent(game.EventBuildingCompleted, now, game.BuildingCompleted{BuildingID: id, Name: b.Type.DisplayName()})
	fx.toZone(b.Zone, ev)
	fx.record(ev)
	w.mu.Unlock()

	w.deliver(fx)

	slog.DebugContext(ctx, "construction completed", "building", id)
}
