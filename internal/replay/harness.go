package replay

import (
	"gonum.org/v1/gonum/stat"

	"github.com/smartwaste/go-controller/internal/classifier"
	"github.com/smartwaste/go-controller/internal/gate"
	"github.com/smartwaste/go-controller/internal/sensor"
)

// #region types
// Deposit is a single recorded cycle for replay.
type Deposit struct {
	ID       string
	Snapshot sensor.Snapshot
}

// ReplayConfig bundles classifier and gate configs for a replay run.
type ReplayConfig struct {
	Classifier classifier.Config
	Gate       gate.GateConfig
}

// DefaultReplayConfig returns the factory configuration of both stages.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		Classifier: classifier.DefaultConfig(),
		Gate:       gate.DefaultGateConfig(),
	}
}

// ReplayResult captures the outcome of replaying one deposit through the
// classifier and gate.
type ReplayResult struct {
	ID     string
	Action string // "deposit" | "reject"
	Reason string

	Result       classifier.Result
	GateDecision gate.GateDecision
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalDeposits    int
	Deposits         int
	Rejects          int
	PerMaterial      map[classifier.Material]int
	ConfidenceMean   float64 // over concrete classifications
	ConfidenceStdDev float64
}

// #endregion types

// #region replay
// Replay classifies and gates every deposit in order. Operates entirely
// in-memory; no actuation or persistence.
func Replay(deposits []Deposit, config ReplayConfig) []ReplayResult {
	c := classifier.NewClassifier(config.Classifier)
	g := gate.NewGate(config.Gate)
	results := make([]ReplayResult, 0, len(deposits))

	for _, d := range deposits {
		// 1. Classify
		r := c.Classify(d.Snapshot.Digital, d.Snapshot.Analog)

		// 2. Gate
		decision := g.Evaluate(r, d.Snapshot.Levels)

		results = append(results, ReplayResult{
			ID:           d.ID,
			Action:       decision.Action,
			Reason:       decision.Reason,
			Result:       r,
			GateDecision: decision,
		})
	}
	return results
}

// #endregion replay

// #region summarize
// Summarize aggregates replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{
		TotalDeposits: len(results),
		PerMaterial:   make(map[classifier.Material]int),
	}
	var confidences []float64
	for _, r := range results {
		switch r.Action {
		case gate.ActionDeposit:
			s.Deposits++
		case gate.ActionReject:
			s.Rejects++
		}
		s.PerMaterial[r.Result.Material]++
		if r.Result.Material.IsConcrete() {
			confidences = append(confidences, r.Result.Confidence)
		}
	}
	switch len(confidences) {
	case 0:
	case 1:
		s.ConfidenceMean = confidences[0]
	default:
		s.ConfidenceMean, s.ConfidenceStdDev = stat.MeanStdDev(confidences, nil)
	}
	return s
}

// #endregion summarize
