package eval

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/smartwaste/go-controller/internal/classifier"
)

// #region eval-harness
// EvalHarness scores classifier output against labelled items.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run builds the confusion matrix for the labelled samples and checks the
// aggregate rates against the configured thresholds. A run with no labelled
// samples passes.
func (h *EvalHarness) Run(samples []Sample) EvalResult {
	confusion := mat.NewDense(len(classifier.Concrete), len(classifier.Concrete)+1, nil)
	var labelled, correct, unknown, misdeposits int

	for _, s := range samples {
		row := materialIndex(s.Label)
		if row < 0 {
			continue
		}
		labelled++
		col := materialIndex(s.Predicted)
		if col < 0 {
			col = len(classifier.Concrete)
			unknown++
		}
		confusion.Set(row, col, confusion.At(row, col)+1)
		if row == col {
			correct++
		} else if s.Deposited {
			misdeposits++
		}
	}

	if labelled == 0 {
		return EvalResult{
			Passed:    true,
			Reason:    "no labelled samples",
			Confusion: confusion,
		}
	}

	var metrics []EvalMetric
	passed := true
	var failReasons []string

	// 1. Overall accuracy
	accuracy := ratio(correct, labelled)
	accuracyPass := accuracy >= h.config.MinAccuracy
	metrics = append(metrics, EvalMetric{Name: "accuracy", Value: accuracy, Pass: accuracyPass})
	if !accuracyPass {
		passed = false
		failReasons = append(failReasons, fmt.Sprintf("accuracy %.3f below %.3f", accuracy, h.config.MinAccuracy))
	}

	// 2. Items left unclassified
	unknownRate := ratio(unknown, labelled)
	unknownPass := unknownRate <= h.config.MaxUnknownRate
	metrics = append(metrics, EvalMetric{Name: "unknown_rate", Value: unknownRate, Pass: unknownPass})
	if !unknownPass {
		passed = false
		failReasons = append(failReasons, fmt.Sprintf("unknown rate %.3f exceeds %.3f", unknownRate, h.config.MaxUnknownRate))
	}

	// 3. Items routed into the wrong container
	misdepositRate := ratio(misdeposits, labelled)
	misdepositPass := misdepositRate <= h.config.MaxMisdepositRate
	metrics = append(metrics, EvalMetric{Name: "misdeposit_rate", Value: misdepositRate, Pass: misdepositPass})
	if !misdepositPass {
		passed = false
		failReasons = append(failReasons, fmt.Sprintf("misdeposit rate %.3f exceeds %.3f", misdepositRate, h.config.MaxMisdepositRate))
	}

	// 4. Per-material recall: informational only, does not fail the run
	for i, m := range classifier.Concrete {
		rowTotal := mat.Sum(confusion.RowView(i))
		if rowTotal == 0 {
			continue
		}
		recall := confusion.At(i, i) / rowTotal
		metrics = append(metrics, EvalMetric{
			Name:  fmt.Sprintf("recall_%s", m),
			Value: recall,
			Pass:  recall >= h.config.MinAccuracy,
		})
	}

	reason := "all checks passed"
	if !passed {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return EvalResult{
		Passed:    passed,
		Labelled:  labelled,
		Metrics:   metrics,
		Reason:    reason,
		Confusion: confusion,
	}
}

// Metric returns the named metric.
func (r EvalResult) Metric(name string) (EvalMetric, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return EvalMetric{}, false
}

// #endregion eval-harness

// #region helpers
// materialIndex is the position of m in classifier.Concrete, or -1.
func materialIndex(m classifier.Material) int {
	for i, c := range classifier.Concrete {
		if c == m {
			return i
		}
	}
	return -1
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// #endregion helpers
