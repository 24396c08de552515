package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/smartwaste/go-controller/internal/classifier"
	"github.com/smartwaste/go-controller/internal/eval"
	"github.com/smartwaste/go-controller/internal/gate"
	"github.com/smartwaste/go-controller/internal/logging"
	"github.com/smartwaste/go-controller/internal/sensor"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description     string                  `json:"description"`
	Config          FixtureConfig           `json:"config"`
	Deposits        []FixtureDeposit        `json:"deposits"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureDeposit is one recorded sensor snapshot.
type FixtureDeposit struct {
	ID      string                    `json:"id"`
	Digital sensor.DigitalObservation `json:"digital"`
	Analog  sensor.AnalogObservation  `json:"analog"`
	Levels  sensor.ContainerLevels    `json:"levels"`
}

// FixtureExpectedResult captures the expected action and material per
// deposit. Label is the item actually inserted, when it is known.
type FixtureExpectedResult struct {
	ID       string              `json:"id"`
	Action   string              `json:"action"`
	Material classifier.Material `json:"material"`
	Label    classifier.Material `json:"label,omitempty"`
}

// FixtureConfig bundles the classifier and gate configs for a replay run.
type FixtureConfig struct {
	ClassifierConfig classifier.Config `json:"classifier_config"`
	GateConfig       gate.GateConfig   `json:"gate_config"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// WriteFixture writes f as indented JSON.
func WriteFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// ToDeposit converts a FixtureDeposit to a domain Deposit.
func (fd *FixtureDeposit) ToDeposit() Deposit {
	return Deposit{
		ID: fd.ID,
		Snapshot: sensor.Snapshot{
			Digital: fd.Digital,
			Analog:  fd.Analog,
			Levels:  fd.Levels,
		},
	}
}

// ToReplayConfig converts a FixtureConfig to a domain ReplayConfig.
func (fc *FixtureConfig) ToReplayConfig() ReplayConfig {
	return ReplayConfig{
		Classifier: fc.ClassifierConfig,
		Gate:       fc.GateConfig,
	}
}

// ToDeposits converts every fixture deposit.
func (f *Fixture) ToDeposits() []Deposit {
	out := make([]Deposit, len(f.Deposits))
	for i := range f.Deposits {
		out[i] = f.Deposits[i].ToDeposit()
	}
	return out
}

// EvalSamples pairs replay results with the fixture labels by deposit ID.
// Results with no labelled expectation are left out.
func (f *Fixture) EvalSamples(results []ReplayResult) []eval.Sample {
	labels := make(map[string]classifier.Material, len(f.ExpectedResults))
	for _, e := range f.ExpectedResults {
		if e.Label != classifier.MaterialNone {
			labels[e.ID] = e.Label
		}
	}
	var samples []eval.Sample
	for _, r := range results {
		label, ok := labels[r.ID]
		if !ok {
			continue
		}
		samples = append(samples, eval.Sample{
			ID:        r.ID,
			Label:     label,
			Predicted: r.Result.Material,
			Deposited: r.Action == gate.ActionDeposit,
		})
	}
	return samples
}

// #endregion fixture-loader

// #region fixture-export

// FixtureFromDecisions builds a fixture from logged decision records. The
// expected results are the decisions taken at runtime, so replaying the
// fixture under the same config must reproduce them.
func FixtureFromDecisions(description string, rows []logging.DecisionRow, config ReplayConfig) *Fixture {
	f := &Fixture{
		Description: description,
		Config: FixtureConfig{
			ClassifierConfig: config.Classifier,
			GateConfig:       config.Gate,
		},
	}
	for _, row := range rows {
		rec := row.Record
		f.Deposits = append(f.Deposits, FixtureDeposit{
			ID:      rec.EventID,
			Digital: rec.Digital,
			Analog:  rec.Analog,
			Levels:  rec.Levels,
		})
		f.ExpectedResults = append(f.ExpectedResults, FixtureExpectedResult{
			ID:       rec.EventID,
			Action:   row.Decision,
			Material: rec.Result.Material,
		})
	}
	return f
}

// ConfigFromRecord reconstructs the thresholds recorded with a decision,
// starting from the factory defaults for anything not recorded. A recorded
// classifier config is used as is; older records only carry the gate
// confidence and the ADC resolution.
func ConfigFromRecord(rec logging.DecisionRecord) ReplayConfig {
	cfg := DefaultReplayConfig()
	t := rec.Thresholds
	if t.Classifier != nil {
		cfg.Classifier = *t.Classifier
	}
	if t.MinConfidence > 0 {
		cfg.Gate.MinConfidence = t.MinConfidence
		if t.Classifier == nil {
			cfg.Classifier.MinConfidence = t.MinConfidence
		}
	}
	if t.FullDistanceCm > 0 {
		cfg.Gate.FullDistanceCm = t.FullDistanceCm
	}
	if t.EmptyDistanceCm > 0 {
		cfg.Gate.EmptyDistanceCm = t.EmptyDistanceCm
	}
	if t.Classifier == nil && t.Resolution > 0 {
		cfg.Classifier.Calibration.Resolution = t.Resolution
	}
	return cfg
}

// #endregion fixture-export
