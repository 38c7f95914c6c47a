package messaging

import (
	"fmt"

	"github.com/pixil98/holdfast/internal/game"
	"github.com/pixil98/holdfast/internal/zones"
)

// Sender is the part of a NATS connection the publishers need.
type Sender interface {
	Publish(subject string, data []byte) error
}

func ZoneSubject(zone zones.Key) string {
	return fmt.Sprintf("zone-%d", zone)
}

func PlayerSubject(player game.PlayerID) string {
	return fmt.Sprintf("player-%d", player)
}

// NatsPublisher delivers world notifications to zone and player subjects.
type NatsPublisher struct {
	sender Sender
}

func NewNatsPublisher(sender Sender) *NatsPublisher {
	return &NatsPublisher{sender: sender}
}

func (p *NatsPublisher) PublishToZone(zone zones.Key, data []byte) error {
	return p.sender.Publish(ZoneSubject(zone), data)
}

func (p *NatsPublisher) PublishToPlayer(player game.PlayerID, data []byte) error {
	return p.sender.Publish(PlayerSubject(player), data)
}
