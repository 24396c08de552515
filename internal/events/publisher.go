package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// publishTimeout bounds how long a single publish may wait for the broker.
const publishTimeout = 5 * time.Second

// #region publisher
// Publisher publishes deposit and stats events read from its channels.
type Publisher struct {
	client mqtt.Client
	config PublisherConfig

	// Input channels, written by the controller
	Deposits chan *DepositEvent
	Stats    chan *StatsEvent
}

// NewPublisher creates a publisher reading from the given channels.
func NewPublisher(client mqtt.Client, config PublisherConfig, deposits chan *DepositEvent, stats chan *StatsEvent) *Publisher {
	return &Publisher{
		client:   client,
		config:   config,
		Deposits: deposits,
		Stats:    stats,
	}
}

// Start publishes events until ctx is cancelled or both channels are closed.
// Publish failures are logged and the event is dropped.
func (p *Publisher) Start(ctx context.Context) {
	log.Println("MQTT Publisher: Starting...")

	deposits, stats := p.Deposits, p.Stats
	for deposits != nil || stats != nil {
		select {
		case <-ctx.Done():
			log.Println("MQTT Publisher: Context cancelled, shutting down...")
			return

		case ev, ok := <-deposits:
			if !ok {
				deposits = nil
				continue
			}
			if err := p.PublishDeposit(ev); err != nil {
				log.Printf("MQTT Publisher: %v", err)
			}

		case ev, ok := <-stats:
			if !ok {
				stats = nil
				continue
			}
			if err := p.PublishStats(ev); err != nil {
				log.Printf("MQTT Publisher: %v", err)
			}
		}
	}
	log.Println("MQTT Publisher: Channels closed, shutting down...")
}

// PublishDeposit publishes one deposit event.
func (p *Publisher) PublishDeposit(ev *DepositEvent) error {
	return p.publish(formatTopic(p.config.DepositTopic, ev.BinID), ev)
}

// PublishStats publishes one counters snapshot.
func (p *Publisher) PublishStats(ev *StatsEvent) error {
	return p.publish(formatTopic(p.config.StatsTopic, ev.BinID), ev)
}

func (p *Publisher) publish(topic string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event for %s: %w", topic, err)
	}

	token := p.client.Publish(topic, p.config.QoS, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timed out after %s", topic, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// #endregion publisher

// formatTopic replaces the {bin_id} placeholder.
func formatTopic(pattern, binID string) string {
	return strings.ReplaceAll(pattern, "{bin_id}", binID)
}
