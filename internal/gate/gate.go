package gate

import (
	"fmt"

	"github.com/smartwaste/go-controller/internal/classifier"
	"github.com/smartwaste/go-controller/internal/sensor"
)

// #region gate
// Gate decides whether a classified item should be routed into a container
// or left on the platform.
type Gate struct {
	config GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config}
}

// Config returns the gate thresholds.
func (g *Gate) Config() GateConfig {
	return g.config
}

// Evaluate checks hard vetoes first, then scores soft signals.
// Takes the classification result and the container fill distances sampled
// in the same cycle.
func (g *Gate) Evaluate(result classifier.Result, levels sensor.ContainerLevels) GateDecision {
	var vetoes []VetoSignal

	// --- Hard veto pass ---

	// 1. Classifier did not produce a usable label
	if !result.Valid || !result.Material.IsConcrete() {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoInvalidResult,
			Reason: fmt.Sprintf("classification %s is not valid", result.Material),
		})
	}

	// 2. Confidence below the deposit threshold
	if result.Confidence < g.config.MinConfidence {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoLowConfidence,
			Reason: fmt.Sprintf("confidence %.1f below minimum %.1f", result.Confidence, g.config.MinConfidence),
		})
	}

	// 3. Destination container full. A negative distance is a timed-out
	// echo and never blocks a deposit.
	distance, ok := LevelFor(levels, result.Material)
	if ok && distance >= 0 && distance < g.config.FullDistanceCm {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoContainerFull,
			Reason: fmt.Sprintf("%s container full: %.1f cm below %.1f cm", result.Material, distance, g.config.FullDistanceCm),
		})
	}

	// If any hard vetoes, reject immediately
	if len(vetoes) > 0 {
		return GateDecision{
			Action:      ActionReject,
			Reason:      fmt.Sprintf("hard veto: %s", vetoes[0].Reason),
			Vetoed:      true,
			VetoSignals: vetoes,
			SoftScore:   0,
		}
	}

	// --- Soft scoring ---
	softScore := computeSoftScore(result.Confidence, distance, ok, g.config)

	return GateDecision{
		Action:      ActionDeposit,
		Reason:      fmt.Sprintf("passed gate: soft_score=%.4f", softScore),
		Vetoed:      false,
		VetoSignals: nil,
		SoftScore:   softScore,
	}
}

// #endregion gate

// #region helpers

// LevelFor returns the fill distance of the container that receives m.
func LevelFor(levels sensor.ContainerLevels, m classifier.Material) (float64, bool) {
	switch m {
	case classifier.MaterialMetal:
		return levels.Metal, true
	case classifier.MaterialPaper:
		return levels.Paper, true
	case classifier.MaterialPlastic:
		return levels.Plastic, true
	case classifier.MaterialGlass:
		return levels.Glass, true
	}
	return 0, false
}

// computeSoftScore produces a 0-1 composite from confidence and remaining
// container headroom. Logged but does not block.
func computeSoftScore(confidence, distance float64, known bool, config GateConfig) float64 {
	// Confidence component (weight 0.7)
	score := 0.7 * clamp01(confidence/100.0)

	// Headroom component (weight 0.3); neutral when the level is unknown
	span := config.EmptyDistanceCm - config.FullDistanceCm
	switch {
	case !known || distance < 0 || span <= 0:
		score += 0.15
	default:
		score += 0.3 * clamp01((distance-config.FullDistanceCm)/span)
	}
	return score
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
