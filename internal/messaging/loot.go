package messaging

import (
	"github.com/google/uuid"
	"github.com/pixil98/holdfast/internal/game"
	"github.com/pixil98/holdfast/internal/scheduler"
	"github.com/pixil98/holdfast/internal/zones"
)

// LootDropper announces dropped resources on the zone subject so the item
// service can spawn a pickup.
type LootDropper struct {
	sender Sender
	clock  scheduler.Clock
}

func NewLootDropper(sender Sender, clock scheduler.Clock) *LootDropper {
	return &LootDropper{sender: sender, clock: clock}
}

func (l *LootDropper) DropLoot(p zones.Point, zone zones.Key, loot game.Resources) error {
	if loot.IsZero() {
		return nil
	}

	ev := game.NewEvent(game.EventLootDropped, l.clock.Now(), game.LootDropped{
		DropID: uuid.NewString(),
		Pos:    p,
		Loot:   loot,
	})
	data, err := ev.Encode()
	if err != nil {
		return err
	}
	return l.sender.Publish(ZoneSubject(zone), data)
}
