package events

import (
	"time"

	"github.com/smartwaste/go-controller/internal/classifier"
	"github.com/smartwaste/go-controller/internal/stats"
)

// #region deposit-event
// DepositEvent is the payload published for every deposit cycle.
type DepositEvent struct {
	EventID    string              `json:"event_id"`
	BinID      string              `json:"bin_id"`
	Timestamp  time.Time           `json:"timestamp"`
	Material   classifier.Material `json:"material"`
	Confidence float64             `json:"confidence"`
	Valid      bool                `json:"valid"`
	Action     string              `json:"action"` // "deposit" | "reject"
	Reason     string              `json:"reason"`
	Light      uint16              `json:"light"`
	Sound      uint16              `json:"sound"`
	Inductive  bool                `json:"inductive"`
	Capacitive bool                `json:"capacitive"`
}

// NewDepositEvent wraps a stored event for publication.
func NewDepositEvent(binID string, ev stats.DepositEvent) *DepositEvent {
	return &DepositEvent{
		EventID:    ev.EventID,
		BinID:      binID,
		Timestamp:  ev.CreatedAt,
		Material:   ev.Material,
		Confidence: ev.Confidence,
		Valid:      ev.Valid,
		Action:     ev.Action,
		Reason:     ev.Reason,
		Light:      ev.Light,
		Sound:      ev.Sound,
		Inductive:  ev.Inductive,
		Capacitive: ev.Capacitive,
	}
}

// #endregion deposit-event

// #region stats-event
// StatsEvent is the periodic counters payload.
type StatsEvent struct {
	BinID     string         `json:"bin_id"`
	Timestamp time.Time      `json:"timestamp"`
	Counters  stats.Counters `json:"counters"`
}

// #endregion stats-event

// #region config
// ClientConfig holds MQTT client configuration.
type ClientConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// PublisherConfig holds the topic patterns. "{bin_id}" is replaced with
// the bin of each event.
type PublisherConfig struct {
	DepositTopic string
	StatsTopic   string
	QoS          byte
}

// DefaultPublisherConfig returns the standard topic layout.
func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		DepositTopic: "bin/{bin_id}/deposit",
		StatsTopic:   "bin/{bin_id}/stats",
		QoS:          1,
	}
}

// #endregion config
