package world

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/pixil98/holdfast/internal/game"
	"github.com/pixil98/holdfast/internal/zones"
	"golang.org/x/time/rate"
)

// PlaceRequest asks for a new building at (X, Y).
type PlaceRequest struct {
	Requester game.PlayerID     `json:"player_id"`
	Type      game.BuildingType `json:"building_type"`
	X         float64           `json:"x"`
	Y         float64           `json:"y"`
	Rotation  float64           `json:"rotation"`
}

// PlaceBuilding validates and places a building. On success the requester has
// paid for it and it is under construction. Placements by the same requester
// are serialized.
func (w *World) PlaceBuilding(ctx context.Context, req PlaceRequest) (game.BuildingID, error) {
	if err := w.checkReady(); err != nil {
		return 0, err
	}

	unlock := w.placing.Lock(req.Requester)
	defer unlock()

	w.mu.Lock()
	now := w.now()
	spec, player, zone, err := w.validatePlacementLocked(req, now)
	if err != nil {
		w.mu.Unlock()
		return 0, err
	}

	if err := w.players.Spend(req.Requester, spec.Cost); err != nil {
		w.mu.Unlock()
		return 0, err
	}

	// Reserve before the store round trip so concurrent placements nearby
	// collide with this one. A reserved building takes no damage, repairs,
	// upgrades or flushes until its insert lands.
	b := &game.Building{
		ID:          w.nextID,
		Type:        req.Type,
		Tier:        spec.Tier,
		Pos:         zones.Point{X: req.X, Y: req.Y},
		Zone:        zone,
		Rotation:    req.Rotation,
		Owner:       player.ID,
		Clan:        player.Clan,
		Health:      1,
		MaxHealth:   spec.Health,
		Armor:       spec.Armor,
		Status:      game.StatusConstructing,
		Payload:     game.NewPayload(spec, now),
		DecayAt:     now.Add(w.decayGrace),
		CompletesAt: now.Add(spec.BuildTime.Duration),
		CreatedAt:   now,
	}
	w.nextID++
	w.addLocked(b)
	w.reserved[b.ID] = struct{}{}
	snapshot := b.Clone()
	w.mu.Unlock()

	sctx, cancel := context.WithTimeout(ctx, w.storeTimeout)
	err = w.store.InsertBuilding(sctx, snapshot)
	cancel()
	if err != nil {
		w.rollbackPlacement(b, spec.Cost)
		slog.ErrorContext(ctx, "failed to create building", "player", req.Requester, "type", req.Type, "error", err)
		return 0, fmt.Errorf("%w: %w", game.ErrStoreUnavailable, err)
	}

	fx := &effects{}
	w.mu.Lock()
	delete(w.reserved, b.ID)
	if cur, ok := w.buildings[b.ID]; ok && cur.Status == game.StatusConstructing {
		w.scheduleConstructionLocked(b.ID, b.CompletesAt)
	}
	w.limiterLocked(req.Requester).AllowN(now, 1)
	w.markPlayerLocked(req.Requester)

	ev := game.NewEvent(game.EventBuildingPlaced, now, game.BuildingPlaced{
		Building:         snapshot,
		Name:             req.Type.DisplayName(),
		ConstructionTime: spec.BuildTime.String(),
	})
	fx.toZone(zone, ev)
	fx.record(ev)
	w.mu.Unlock()

	w.deliver(fx)

	slog.InfoContext(ctx, "building placed", "building", b.ID, "player", req.Requester, "type", req.Type, "zone", zone)
	return b.ID, nil
}

// rollbackPlacement undoes a reservation whose durable insert failed and
// refunds its cost. The insert may have landed before reporting failure, so
// the row is deleted as well.
func (w *World) rollbackPlacement(b *game.Building, cost game.Resources) {
	w.mu.Lock()
	w.removeLocked(b)
	delete(w.reserved, b.ID)
	delete(w.tombstones, b.ID)
	delete(w.dirtyBuildings, b.ID)
	w.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), w.storeTimeout)
	if err := w.store.DeleteBuilding(ctx, b.ID); err != nil {
		slog.Error("deleting failed placement", "building", b.ID, "error", err)
	}
	cancel()

	if err := w.players.Credit(b.Owner, cost); err != nil {
		slog.Error("refunding failed placement", "player", b.Owner, "cost", cost.String(), "error", err)
	}
}

// validatePlacementLocked runs the placement checks in order and returns the
// first failure.
func (w *World) validatePlacementLocked(req PlaceRequest, now time.Time) (*game.BuildingSpec, game.Player, zones.Key, error) {
	spec, ok := w.catalog.Get(req.Type)
	if !ok {
		return nil, game.Player{}, 0, game.ErrUnknownBuildingType
	}

	player, ok := w.players.Player(req.Requester)
	if !ok {
		return nil, game.Player{}, 0, game.ErrPlayerNotFound
	}
	if !player.Online {
		return nil, game.Player{}, 0, game.ErrPlayerOffline
	}

	if remaining := w.cooldownRemainingLocked(req.Requester, now); remaining > 0 {
		return nil, game.Player{}, 0, fmt.Errorf("%w: %ds", game.ErrBuildCooldown, int(math.Ceil(remaining.Seconds())))
	}

	if !player.Resources.Covers(spec.Cost) {
		return nil, game.Player{}, 0, fmt.Errorf("%w. need: %s", game.ErrInsufficientResources, spec.Cost)
	}

	pos := zones.Point{X: req.X, Y: req.Y}
	if player.Pos.Distance(pos) > w.maxBuildDistance {
		return nil, game.Player{}, 0, fmt.Errorf("%w. max distance: %g", game.ErrTooFar, w.maxBuildDistance)
	}

	zone, ok := w.grid.KeyFor(req.X, req.Y)
	if !ok || !w.owned[zone] {
		return nil, game.Player{}, 0, game.ErrInvalidPosition
	}

	if w.collidesLocked(pos, spec.Size) {
		return nil, game.Player{}, 0, game.ErrCollision
	}

	if spec.Tier >= 3 {
		for _, t := range w.territories {
			if t.Contains(pos) && t.Hostile(player.ID, player.Clan) {
				return nil, game.Player{}, 0, game.ErrEnemyTerritory
			}
		}
	}

	limit := baseBuildingLimit + player.Level*buildingLimitPerLevel
	if w.ownedCounts[player.ID] >= limit {
		return nil, game.Player{}, 0, fmt.Errorf("%w (%d)", game.ErrBuildingLimit, limit)
	}

	return spec, player, zone, nil
}

// collidesLocked reports whether a building of size at pos would sit closer
// than (size+otherSize)*10 to any live building.
func (w *World) collidesLocked(pos zones.Point, size int) bool {
	radius := float64((size + w.catalog.MaxSize()) * collisionScale)
	for _, id := range w.index.Query(pos, radius) {
		other, ok := w.buildings[id]
		if !ok {
			continue
		}
		otherSize := 2
		if s, ok := w.catalog.Get(other.Type); ok {
			otherSize = s.Size
		}
		if other.Pos.Distance(pos) < float64((size+otherSize)*collisionScale) {
			return true
		}
	}
	return false
}

func (w *World) limiterLocked(id game.PlayerID) *rate.Limiter {
	l, ok := w.cooldowns[id]
	if !ok {
		l = rate.NewLimiter(rate.Every(w.buildCooldown), 1)
		w.cooldowns[id] = l
	}
	return l
}

func (w *World) cooldownRemainingLocked(id game.PlayerID, now time.Time) time.Duration {
	l, ok := w.cooldowns[id]
	if !ok {
		return 0
	}
	tokens := l.TokensAt(now)
	if tokens >= 1 {
		return 0
	}
	return time.Duration((1 - tokens) * float64(w.buildCooldown))
}

// pruneCooldownsLocked forgets limiters that have fully recovered.
func (w *World) pruneCooldownsLocked(now time.Time) {
	for id, l := range w.cooldowns {
		if l.TokensAt(now) >= 1 {
			delete(w.cooldowns, id)
		}
	}
}
