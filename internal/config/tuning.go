package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"

	"github.com/smartwaste/go-controller/internal/actuator"
	"github.com/smartwaste/go-controller/internal/classifier"
	"github.com/smartwaste/go-controller/internal/gate"
)

// #region tuning
// Tuning holds the per-installation thresholds kept in a TOML file:
// classifier calibration, gate limits and servo timings.
type Tuning struct {
	Classifier classifier.Config `toml:"classifier"`
	Gate       gate.GateConfig   `toml:"gate"`
	Timings    actuator.Timings  `toml:"timings"`
}

// DefaultTuning returns the factory tuning.
func DefaultTuning() Tuning {
	return Tuning{
		Classifier: classifier.DefaultConfig(),
		Gate:       gate.DefaultGateConfig(),
		Timings:    actuator.DefaultTimings(),
	}
}

// LoadTuning decodes a tuning file over the factory defaults, so a file
// only needs the keys it changes. Unknown keys are rejected.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	md, err := toml.DecodeFile(path, &t)
	if err != nil {
		return Tuning{}, fmt.Errorf("decode tuning %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Tuning{}, fmt.Errorf("decode tuning %s: unknown key %s", path, undecoded[0])
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}

// WriteTuning encodes t as TOML.
func WriteTuning(w io.Writer, t Tuning) error {
	if err := toml.NewEncoder(w).Encode(t); err != nil {
		return fmt.Errorf("encode tuning: %w", err)
	}
	return nil
}

// Validate checks every section.
func (t Tuning) Validate() error {
	var errs []error
	if err := t.Classifier.Validate(); err != nil {
		errs = append(errs, err)
	}
	g := t.Gate
	if g.MinConfidence < 0 || g.MinConfidence > 100 {
		errs = append(errs, fmt.Errorf("gate min_confidence %.1f outside 0-100", g.MinConfidence))
	}
	if g.FullDistanceCm < 0 || g.FullDistanceCm >= g.EmptyDistanceCm {
		errs = append(errs, fmt.Errorf("gate full_distance_cm %.1f must be in [0, empty_distance_cm %.1f)", g.FullDistanceCm, g.EmptyDistanceCm))
	}
	tm := t.Timings
	if tm.Open < 0 || tm.Tilt < 0 || tm.Drop < 0 || tm.Close < 0 || tm.Settle < 0 {
		errs = append(errs, errors.New("timings must not be negative"))
	}
	return errors.Join(errs...)
}

// #endregion tuning
