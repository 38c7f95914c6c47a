package game

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pixil98/holdfast/internal/zones"
)

type EventType string

const (
	EventBuildingPlaced    EventType = "buildingPlaced"
	EventBuildingCompleted EventType = "buildingCompleted"
	EventBuildingDamaged   EventType = "buildingDamaged"
	EventBuildingDestroyed EventType = "buildingDestroyed"
	EventBuildingRepaired  EventType = "buildingRepaired"
	EventBuildingUpgraded  EventType = "buildingUpgraded"
	EventTurretFire        EventType = "turretFire"
	EventResourceGenerated EventType = "resourceGenerated"
	EventTerritoryCaptured EventType = "territoryCaptured"
	EventLootDropped       EventType = "lootDropped"
)

// Event is the envelope for every notification and audit record.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`
	Time time.Time `json:"time"`
	Data any       `json:"data"`
}

func NewEvent(t EventType, now time.Time, data any) Event {
	return Event{ID: uuid.NewString(), Type: t, Time: now, Data: data}
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

type BuildingPlaced struct {
	Building         *Building `json:"building"`
	Name             string    `json:"name"`
	ConstructionTime string    `json:"construction_time"`
}

type BuildingCompleted struct {
	BuildingID BuildingID `json:"building_id"`
	Name       string     `json:"name"`
}

type BuildingDamaged struct {
	BuildingID BuildingID `json:"building_id"`
	Damage     int        `json:"damage"`
	Health     int        `json:"health"`
	MaxHealth  int        `json:"max_health"`
	Attacker   PlayerID   `json:"attacker,omitempty"`
}

type BuildingDestroyed struct {
	BuildingID  BuildingID   `json:"building_id"`
	Type        BuildingType `json:"type"`
	DestroyedBy PlayerID     `json:"destroyed_by,omitempty"`
	Loot        Resources    `json:"loot"`
}

type BuildingRepaired struct {
	BuildingID BuildingID `json:"building_id"`
	By         PlayerID   `json:"by"`
	Cost       Resources  `json:"cost"`
}

type BuildingUpgraded struct {
	BuildingID BuildingID `json:"building_id"`
	Tier       int        `json:"tier"`
	MaxHealth  int        `json:"max_health"`
}

type TurretFire struct {
	BuildingID BuildingID `json:"building_id"`
	TargetID   int64      `json:"target_id"`
	Damage     int        `json:"damage"`
	Killed     bool       `json:"killed"`
}

type ResourceGenerated struct {
	BuildingID BuildingID `json:"building_id"`
	Resources  Resources  `json:"resources"`
}

type TerritoryCaptured struct {
	TerritoryID TerritoryID `json:"territory_id"`
	Name        string      `json:"name"`
	Faction     string      `json:"faction"`
	Owner       PlayerID    `json:"owner"`
	Clan        ClanID      `json:"clan,omitempty"`
}

type LootDropped struct {
	DropID string      `json:"drop_id"`
	Pos    zones.Point `json:"pos"`
	Loot   Resources   `json:"loot"`
}
