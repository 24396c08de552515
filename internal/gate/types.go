package gate

// #region veto-type
// VetoType enumerates hard veto categories.
type VetoType string

const (
	VetoInvalidResult VetoType = "invalid_result"
	VetoLowConfidence VetoType = "low_confidence"
	VetoContainerFull VetoType = "container_full"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents a detected hard veto condition.
type VetoSignal struct {
	Type   VetoType `json:"type"`
	Reason string   `json:"reason"`
}

// #endregion veto-signal

// #region gate-config
// GateConfig holds thresholds for deposit decisions.
type GateConfig struct {
	MinConfidence   float64 `toml:"min_confidence" json:"min_confidence"`       // reject below this confidence
	FullDistanceCm  float64 `toml:"full_distance_cm" json:"full_distance_cm"`   // fill surface closer than this means full
	EmptyDistanceCm float64 `toml:"empty_distance_cm" json:"empty_distance_cm"` // distance reading of an empty container
}

// DefaultGateConfig returns the factory thresholds.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MinConfidence:   60.0,
		FullDistanceCm:  5.0,
		EmptyDistanceCm: 40.0,
	}
}

// #endregion gate-config

// #region gate-decision
// Actions a GateDecision can carry.
const (
	ActionDeposit = "deposit"
	ActionReject  = "reject"
)

// GateDecision is the output of the gate evaluation.
type GateDecision struct {
	Action      string       `json:"action"` // "deposit" | "reject"
	Reason      string       `json:"reason"`
	Vetoed      bool         `json:"vetoed"`
	VetoSignals []VetoSignal `json:"veto_signals,omitempty"` // non-empty if vetoed
	SoftScore   float64      `json:"soft_score"`             // 0-1, logged only
}

// #endregion gate-decision
