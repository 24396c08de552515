package eval

import (
	"gonum.org/v1/gonum/mat"

	"github.com/smartwaste/go-controller/internal/classifier"
)

// #region eval-config
// EvalConfig holds the acceptance thresholds for a labelled run.
type EvalConfig struct {
	MinAccuracy       float64 `toml:"min_accuracy" json:"min_accuracy"`               // fraction of labelled items classified as their label
	MaxUnknownRate    float64 `toml:"max_unknown_rate" json:"max_unknown_rate"`       // fraction of labelled items left unclassified
	MaxMisdepositRate float64 `toml:"max_misdeposit_rate" json:"max_misdeposit_rate"` // fraction routed into the wrong container
}

// DefaultEvalConfig returns the thresholds used for bench acceptance.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		MinAccuracy:       0.8,
		MaxUnknownRate:    0.2,
		MaxMisdepositRate: 0.05,
	}
}

// #endregion eval-config

// #region sample
// Sample pairs the known label of an inserted item with what the bin did
// with it. Samples labelled MaterialNone are ignored.
type Sample struct {
	ID        string
	Label     classifier.Material
	Predicted classifier.Material
	Deposited bool
}

// #endregion sample

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string
	Value float64
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of a labelled evaluation. Confusion rows are the
// labels in classifier.Concrete order; columns are the same four materials
// followed by an "unknown" column for everything else.
type EvalResult struct {
	Passed    bool
	Labelled  int
	Metrics   []EvalMetric
	Reason    string
	Confusion *mat.Dense
}

// #endregion eval-result
