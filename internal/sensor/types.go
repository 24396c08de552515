package sensor

import (
	"fmt"
	"time"
)

// #region resolution
// ResolutionMax is the full-scale reading of the 12-bit analog channels.
const ResolutionMax = 4095

// #endregion resolution

// #region observations
// DigitalObservation holds the three digital flags sampled once per cycle.
type DigitalObservation struct {
	Inductive  bool `json:"inductive"`  // metal proximity sensor fired
	Capacitive bool `json:"capacitive"` // any material present in the chute
	Motion     bool `json:"motion"`     // PIR; used for presence gating only
}

// AnalogObservation holds the raw analog channels sampled once per cycle.
// Aux1 and Aux2 are carried but not consulted by classification.
type AnalogObservation struct {
	LightLevel uint16 `json:"light_level"`
	SoundLevel uint16 `json:"sound_level"`
	Aux1       uint16 `json:"aux1"`
	Aux2       uint16 `json:"aux2"`
}

// ContainerLevels are ultrasonic distances in cm from each container's
// sensor to the fill surface. Negative values mean the echo timed out.
type ContainerLevels struct {
	Metal   float64 `json:"metal"`
	Paper   float64 `json:"paper"`
	Plastic float64 `json:"plastic"`
	Glass   float64 `json:"glass"`
}

// Snapshot is one atomic sample of every sensor, taken by the control loop
// before classification.
type Snapshot struct {
	Digital    DigitalObservation `json:"digital"`
	Analog     AnalogObservation  `json:"analog"`
	Levels     ContainerLevels    `json:"levels"`
	CapturedAt time.Time          `json:"captured_at"`
}

// #endregion observations

// #region bands
// TranslucencyBand discretises the light reading.
type TranslucencyBand int

const (
	TranslucencyOpaque TranslucencyBand = iota
	TranslucencyMedium
	TranslucencyHigh
)

func (b TranslucencyBand) String() string {
	switch b {
	case TranslucencyOpaque:
		return "opaque"
	case TranslucencyMedium:
		return "medium"
	case TranslucencyHigh:
		return "high"
	default:
		return fmt.Sprintf("translucency(%d)", int(b))
	}
}

// MarshalText renders the band name for JSON fixtures and logs.
func (b TranslucencyBand) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText parses a band name written by MarshalText.
func (b *TranslucencyBand) UnmarshalText(text []byte) error {
	switch string(text) {
	case "opaque":
		*b = TranslucencyOpaque
	case "medium":
		*b = TranslucencyMedium
	case "high":
		*b = TranslucencyHigh
	default:
		return fmt.Errorf("unknown translucency band %q", text)
	}
	return nil
}

// SoundBand discretises the microphone reading.
type SoundBand int

const (
	SoundLow SoundBand = iota
	SoundMedium
	SoundHigh
)

func (b SoundBand) String() string {
	switch b {
	case SoundLow:
		return "low"
	case SoundMedium:
		return "medium"
	case SoundHigh:
		return "high"
	default:
		return fmt.Sprintf("sound(%d)", int(b))
	}
}

// MarshalText renders the band name for JSON fixtures and logs.
func (b SoundBand) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText parses a band name written by MarshalText.
func (b *SoundBand) UnmarshalText(text []byte) error {
	switch string(text) {
	case "low":
		*b = SoundLow
	case "medium":
		*b = SoundMedium
	case "high":
		*b = SoundHigh
	default:
		return fmt.Errorf("unknown sound band %q", text)
	}
	return nil
}

// Bands pairs the two derived bands of one observation.
type Bands struct {
	Translucency TranslucencyBand `json:"translucency"`
	Sound        SoundBand        `json:"sound"`
}

// #endregion bands
