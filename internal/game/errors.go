package game

import "errors"

// Placement rejections, in the order the validator checks them.
var (
	ErrUnknownBuildingType   = errors.New("invalid building type")
	ErrPlayerNotFound        = errors.New("player not found")
	ErrPlayerOffline         = errors.New("player not online")
	ErrBuildCooldown         = errors.New("build cooldown")
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrTooFar                = errors.New("too far away")
	ErrInvalidPosition       = errors.New("invalid position")
	ErrCollision             = errors.New("too close to another building")
	ErrEnemyTerritory        = errors.New("cannot build advanced structures in enemy territory")
	ErrBuildingLimit         = errors.New("building limit reached")
)

var (
	ErrBuildingNotFound  = errors.New("building not found")
	ErrNotOwner          = errors.New("not your building")
	ErrBuildingDestroyed = errors.New("building is destroyed")
	ErrBuildingPending   = errors.New("building is still being placed")
	ErrUnderConstruction = errors.New("building is under construction")
	ErrFullHealth        = errors.New("building at full health")
	ErrMaxTier           = errors.New("building at max tier")
	ErrTerritoryNotFound = errors.New("territory not found")
	ErrNoFaction         = errors.New("player has no faction")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrStoreUnavailable  = errors.New("storage unavailable")
	ErrNotReady          = errors.New("world not initialized")
)
