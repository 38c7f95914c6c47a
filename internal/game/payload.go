package game

import (
	"encoding/json"
	"fmt"
	"time"
)

// PayloadKind selects which Payload variant a building type carries.
type PayloadKind string

const (
	PayloadNone      PayloadKind = ""
	PayloadStorage   PayloadKind = "storage"
	PayloadTurret    PayloadKind = "turret"
	PayloadGenerator PayloadKind = "generator"
	PayloadFactory   PayloadKind = "factory"
	PayloadSilo      PayloadKind = "silo"
)

// Payload is the type-specific state of a building. The variant is fixed by
// the building's type and is never reinterpreted.
type Payload interface {
	Kind() PayloadKind
	clone() Payload
}

type StoragePayload struct {
	Inventory  []string `json:"inventory"`
	MaxStorage int      `json:"max_storage"`
}

func (*StoragePayload) Kind() PayloadKind { return PayloadStorage }
func (p *StoragePayload) clone() Payload {
	c := *p
	c.Inventory = append([]string(nil), p.Inventory...)
	return &c
}

type TurretPayload struct {
	Ammo  int `json:"ammo"`
	Kills int `json:"kills"`
}

func (*TurretPayload) Kind() PayloadKind { return PayloadTurret }
func (p *TurretPayload) clone() Payload  { c := *p; return &c }

type GeneratorPayload struct {
	LastHarvest time.Time `json:"last_harvest"`
}

func (*GeneratorPayload) Kind() PayloadKind { return PayloadGenerator }
func (p *GeneratorPayload) clone() Payload  { c := *p; return &c }

type FactoryPayload struct {
	VehicleQueue []string `json:"vehicle_queue"`
}

func (*FactoryPayload) Kind() PayloadKind { return PayloadFactory }
func (p *FactoryPayload) clone() Payload {
	return &FactoryPayload{VehicleQueue: append([]string(nil), p.VehicleQueue...)}
}

type SiloPayload struct {
	NukesReady   int       `json:"nukes_ready"`
	NukeCooldown time.Time `json:"nuke_cooldown"`
}

func (*SiloPayload) Kind() PayloadKind { return PayloadSilo }
func (p *SiloPayload) clone() Payload  { c := *p; return &c }

// NewPayload returns the initial payload for a freshly placed building of spec.
func NewPayload(spec *BuildingSpec, now time.Time) Payload {
	switch spec.Payload {
	case PayloadStorage:
		return &StoragePayload{Inventory: []string{}, MaxStorage: spec.Capacity}
	case PayloadTurret:
		return &TurretPayload{Ammo: spec.Turret.Ammo}
	case PayloadGenerator:
		return &GeneratorPayload{LastHarvest: now}
	case PayloadFactory:
		return &FactoryPayload{VehicleQueue: []string{}}
	case PayloadSilo:
		return &SiloPayload{}
	default:
		return nil
	}
}

// EncodePayload serializes p for storage. A nil payload encodes as an empty object.
func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// DecodePayload restores the payload variant named by kind.
func DecodePayload(kind PayloadKind, data []byte) (Payload, error) {
	var p Payload
	switch kind {
	case PayloadNone:
		return nil, nil
	case PayloadStorage:
		p = &StoragePayload{}
	case PayloadTurret:
		p = &TurretPayload{}
	case PayloadGenerator:
		p = &GeneratorPayload{}
	case PayloadFactory:
		p = &FactoryPayload{}
	case PayloadSilo:
		p = &SiloPayload{}
	default:
		return nil, fmt.Errorf("unknown payload kind %q", kind)
	}
	if len(data) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", kind, err)
	}
	return p, nil
}
