package world

import (
	"log/slog"

	"github.com/pixil98/holdfast/internal/game"
	"github.com/pixil98/holdfast/internal/zones"
)

type notice struct {
	zone   zones.Key
	player game.PlayerID
	ev     game.Event
}

type lootDrop struct {
	pos  zones.Point
	zone zones.Key
	loot game.Resources
}

// effects collects the side effects of a state change made under the world
// lock so they can be delivered once the lock is released.
type effects struct {
	notices []notice
	drops   []lootDrop
	audit   []game.Event
}

func (fx *effects) toZone(zone zones.Key, ev game.Event) {
	fx.notices = append(fx.notices, notice{zone: zone, ev: ev})
}

func (fx *effects) toPlayer(player game.PlayerID, ev game.Event) {
	fx.notices = append(fx.notices, notice{player: player, ev: ev})
}

func (fx *effects) record(ev game.Event) {
	fx.audit = append(fx.audit, ev)
}

func (fx *effects) drop(pos zones.Point, zone zones.Key, loot game.Resources) {
	fx.drops = append(fx.drops, lootDrop{pos: pos, zone: zone, loot: loot})
}

// deliver publishes, drops and records everything in fx. Failures are logged;
// the state change they describe has already happened.
func (w *World) deliver(fx *effects) {
	if w.publisher != nil {
		for _, n := range fx.notices {
			data, err := n.ev.Encode()
			if err != nil {
				slog.Error("encoding notification", "type", n.ev.Type, "error", err)
				continue
			}
			if n.player != 0 {
				err = w.publisher.PublishToPlayer(n.player, data)
			} else {
				err = w.publisher.PublishToZone(n.zone, data)
			}
			if err != nil {
				slog.Warn("publishing notification", "type", n.ev.Type, "error", err)
			}
		}
	}

	if w.loot != nil {
		for _, d := range fx.drops {
			if err := w.loot.DropLoot(d.pos, d.zone, d.loot); err != nil {
				slog.Warn("dropping loot", "zone", d.zone, "error", err)
			}
		}
	}

	if w.recorder != nil {
		for _, ev := range fx.audit {
			if err := w.recorder.Record(ev); err != nil {
				slog.Warn("recording audit event", "type", ev.Type, "error", err)
			}
		}
	}
}
