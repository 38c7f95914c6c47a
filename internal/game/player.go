package game

import (
	"github.com/pixil98/holdfast/internal/combat"
	"github.com/pixil98/holdfast/internal/zones"
)

// Player is a read-only snapshot of a player as seen by the world.
type Player struct {
	ID                 PlayerID    `json:"id"`
	Name               string      `json:"name"`
	Clan               ClanID      `json:"clan,omitempty"`
	Faction            string      `json:"faction"`
	Level              int         `json:"level"`
	Pos                zones.Point `json:"pos"`
	Online             bool        `json:"online"`
	Health             int         `json:"health"`
	Resources          Resources   `json:"resources"`
	BuildingsDestroyed int         `json:"buildings_destroyed"`
}

// SameSide reports whether two parties count as friendly.
func SameSide(a PlayerID, aClan ClanID, b PlayerID, bClan ClanID) bool {
	return a == b || (aClan != 0 && aClan == bClan)
}

// PlayerDirectory is the world's view of player state it does not own.
type PlayerDirectory interface {
	Player(id PlayerID) (Player, bool)
	// Spend removes cost from the player's resources, failing with
	// ErrInsufficientResources without change when they cannot cover it.
	Spend(id PlayerID, cost Resources) error
	Credit(id PlayerID, amount Resources) error
	RecordDestruction(id PlayerID) error
}

// TargetLocator finds and damages things turrets can shoot at.
type TargetLocator interface {
	HostilesInRadius(p zones.Point, radius float64, owner PlayerID, clan ClanID) []combat.Target
	DealDamage(target int64, amount int, source PlayerID) (killed bool, err error)
}

// Publisher delivers encoded notifications.
type Publisher interface {
	PublishToZone(zone zones.Key, data []byte) error
	PublishToPlayer(player PlayerID, data []byte) error
}

// LootDropper spawns dropped resources in the world.
type LootDropper interface {
	DropLoot(p zones.Point, zone zones.Key, loot Resources) error
}

// Recorder receives audit events.
type Recorder interface {
	Record(ev Event) error
}
