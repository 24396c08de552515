package logging

import (
	"time"

	"github.com/smartwaste/go-controller/internal/classifier"
	"github.com/smartwaste/go-controller/internal/sensor"
)

// TriggerDepositCycle marks entries written by the controller loop.
const TriggerDepositCycle = "deposit_cycle"

// #region decision-entry
// DecisionEntry is a single row in the decision_log table.
type DecisionEntry struct {
	EventID     string
	TriggerType string
	RecordJSON  string
	Decision    string // "deposit" | "reject"
	Reason      string
	CreatedAt   time.Time
}

// #endregion decision-entry

// #region decision-record
// DecisionRecord captures the complete inputs and outputs of one deposit
// cycle. Serialized as JSON into decision_log.record_json for deterministic
// replay.
type DecisionRecord struct {
	EventID string `json:"event_id"`

	// Exact observations as sampled at runtime
	Digital sensor.DigitalObservation `json:"digital"`
	Analog  sensor.AnalogObservation  `json:"analog"`
	Levels  sensor.ContainerLevels    `json:"levels"`

	// Classifier output
	Bands  sensor.Bands      `json:"bands"`
	Result classifier.Result `json:"result"`

	// Thresholds active at decision time
	Thresholds DecisionThresholds `json:"thresholds"`

	// Gate output
	GateAction    string  `json:"gate_action"`
	GateSoftScore float64 `json:"gate_soft_score"`
	GateVetoed    bool    `json:"gate_vetoed"`
	GateReason    string  `json:"gate_reason"`

	// Actuation outcome
	Deposited     bool   `json:"deposited"`
	ActuatorError string `json:"actuator_error,omitempty"`
}

// DecisionThresholds captures the classifier/gate config active at decision time.
// MinConfidence and the distances are the gate's. Classifier is the complete
// classifier config; records written before it was added leave it nil.
type DecisionThresholds struct {
	MinConfidence   float64            `json:"min_confidence"`
	FullDistanceCm  float64            `json:"full_distance_cm"`
	EmptyDistanceCm float64            `json:"empty_distance_cm"`
	Resolution      uint16             `json:"resolution"`
	Classifier      *classifier.Config `json:"classifier,omitempty"`
}

// #endregion decision-record

// #region decision-row
// DecisionRow is a decision_log row with its record decoded.
type DecisionRow struct {
	Record    DecisionRecord
	Decision  string
	Reason    string
	CreatedAt time.Time
}

// #endregion decision-row
