package game

import (
	"context"

	"github.com/pixil98/holdfast/internal/zones"
)

// Store is the durable backing of the world's caches.
type Store interface {
	// LoadBuildings returns every non-destroyed building in the given zones.
	LoadBuildings(ctx context.Context, zs []zones.Key) ([]*Building, error)
	LoadTerritories(ctx context.Context, zs []zones.Key) ([]*Territory, error)
	MaxBuildingID(ctx context.Context) (BuildingID, error)

	InsertBuilding(ctx context.Context, b *Building) error
	SaveBuilding(ctx context.Context, b *Building) error
	DeleteBuilding(ctx context.Context, id BuildingID) error
	SaveTerritory(ctx context.Context, t *Territory) error
	SavePlayer(ctx context.Context, p Player) error
}
