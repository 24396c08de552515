package gate

import (
	"testing"

	"github.com/smartwaste/go-controller/internal/classifier"
	"github.com/smartwaste/go-controller/internal/sensor"
)

func makeResult(m classifier.Material, confidence float64) classifier.Result {
	r := classifier.Result{Material: m, Confidence: confidence, Description: m.Description()}
	r.Valid = classifier.Validate(r)
	return r
}

func roomyLevels() sensor.ContainerLevels {
	return sensor.ContainerLevels{Metal: 30, Paper: 30, Plastic: 30, Glass: 30}
}

func TestGateDepositOnValidResult(t *testing.T) {
	g := NewGate(DefaultGateConfig())

	decision := g.Evaluate(makeResult(classifier.MaterialMetal, 100), roomyLevels())

	if decision.Action != ActionDeposit {
		t.Fatalf("expected deposit, got %s: %s", decision.Action, decision.Reason)
	}
	if decision.Vetoed {
		t.Fatal("should not be vetoed")
	}
}

func TestGateRejectOnUnknown(t *testing.T) {
	g := NewGate(DefaultGateConfig())

	decision := g.Evaluate(makeResult(classifier.MaterialUnknown, 0), roomyLevels())

	if decision.Action != ActionReject {
		t.Fatalf("expected reject, got %s", decision.Action)
	}
	if !decision.Vetoed {
		t.Fatal("should be vetoed")
	}
	if decision.VetoSignals[0].Type != VetoInvalidResult {
		t.Fatalf("expected VetoInvalidResult, got %s", decision.VetoSignals[0].Type)
	}
}

func TestGateRejectOnLowConfidence(t *testing.T) {
	config := DefaultGateConfig()
	config.MinConfidence = 90
	g := NewGate(config)

	decision := g.Evaluate(makeResult(classifier.MaterialGlass, 75), roomyLevels())

	if decision.Action != ActionReject {
		t.Fatalf("expected reject, got %s", decision.Action)
	}
	if decision.VetoSignals[0].Type != VetoLowConfidence {
		t.Fatalf("expected VetoLowConfidence, got %s", decision.VetoSignals[0].Type)
	}
}

func TestGateConfidenceThresholdInclusive(t *testing.T) {
	g := NewGate(DefaultGateConfig())

	if d := g.Evaluate(makeResult(classifier.MaterialPaper, 60), roomyLevels()); d.Action != ActionDeposit {
		t.Fatalf("60.0 should deposit, got %s: %s", d.Action, d.Reason)
	}
	if d := g.Evaluate(makeResult(classifier.MaterialPaper, 59.99), roomyLevels()); d.Action != ActionReject {
		t.Fatalf("59.99 should reject, got %s", d.Action)
	}
}

func TestGateRejectOnFullContainer(t *testing.T) {
	g := NewGate(DefaultGateConfig())
	levels := roomyLevels()
	levels.Plastic = 3.2

	decision := g.Evaluate(makeResult(classifier.MaterialPlastic, 100), levels)

	if decision.Action != ActionReject {
		t.Fatalf("expected reject, got %s", decision.Action)
	}
	if decision.VetoSignals[0].Type != VetoContainerFull {
		t.Fatalf("expected VetoContainerFull, got %s", decision.VetoSignals[0].Type)
	}

	// other containers are unaffected
	if d := g.Evaluate(makeResult(classifier.MaterialMetal, 100), levels); d.Action != ActionDeposit {
		t.Fatalf("metal should still deposit, got %s", d.Reason)
	}
}

func TestGateIgnoresTimedOutLevel(t *testing.T) {
	g := NewGate(DefaultGateConfig())
	levels := roomyLevels()
	levels.Glass = -1

	decision := g.Evaluate(makeResult(classifier.MaterialGlass, 100), levels)

	if decision.Action != ActionDeposit {
		t.Fatalf("timed-out sensor should not veto, got %s", decision.Reason)
	}
	if decision.SoftScore < 0.84 || decision.SoftScore > 0.86 {
		t.Fatalf("expected neutral headroom score ~0.85, got %.4f", decision.SoftScore)
	}
}

func TestGateMultipleVetoes(t *testing.T) {
	g := NewGate(DefaultGateConfig())

	decision := g.Evaluate(makeResult(classifier.MaterialUnknown, 0), roomyLevels())

	if decision.Action != ActionReject {
		t.Fatalf("expected reject, got %s", decision.Action)
	}
	if len(decision.VetoSignals) < 2 {
		t.Fatalf("expected at least 2 veto signals, got %d", len(decision.VetoSignals))
	}
}

func TestGateSoftScoreRange(t *testing.T) {
	g := NewGate(DefaultGateConfig())
	for _, distance := range []float64{5, 10, 40, 200} {
		levels := sensor.ContainerLevels{Metal: distance}
		decision := g.Evaluate(makeResult(classifier.MaterialMetal, 100), levels)
		if decision.SoftScore < 0 || decision.SoftScore > 1.0 {
			t.Fatalf("soft score %.4f out of [0, 1] range at %.0f cm", decision.SoftScore, distance)
		}
	}
}

func TestSoftScoreEmptyContainer(t *testing.T) {
	score := computeSoftScore(100, 40, true, DefaultGateConfig())

	// confidence 0.7 + headroom 0.3 = 1.0
	if score < 0.99 || score > 1.0 {
		t.Errorf("expected score ~1.0, got %.4f", score)
	}
}

func TestSoftScoreHalfFull(t *testing.T) {
	score := computeSoftScore(80, 22.5, true, DefaultGateConfig())

	// confidence 0.7*0.8=0.56 + headroom 0.3*0.5=0.15 = 0.71
	if score < 0.70 || score > 0.72 {
		t.Errorf("expected score ~0.71, got %.4f", score)
	}
}

func TestSoftScoreAtFullLine(t *testing.T) {
	score := computeSoftScore(60, 5, true, DefaultGateConfig())

	// confidence 0.42 + no headroom
	if score < 0.41 || score > 0.43 {
		t.Errorf("expected score ~0.42, got %.4f", score)
	}
}

func TestLevelFor(t *testing.T) {
	levels := sensor.ContainerLevels{Metal: 1, Paper: 2, Plastic: 3, Glass: 4}
	for i, m := range classifier.Concrete {
		got, ok := LevelFor(levels, m)
		if !ok || got != float64(i+1) {
			t.Errorf("LevelFor(%s) = %.0f, %v", m, got, ok)
		}
	}
	if _, ok := LevelFor(levels, classifier.MaterialUnknown); ok {
		t.Error("unknown material has no container")
	}
}
