package classifier

import (
	"fmt"
	"strings"

	"github.com/smartwaste/go-controller/internal/sensor"
)

// #region material
// Material is the label assigned to a deposit. The numeric values match the
// codes the bin firmware reports and persists.
type Material int

const (
	MaterialNone    Material = 0 // no classification attempted
	MaterialMetal   Material = 1
	MaterialPaper   Material = 2
	MaterialPlastic Material = 3
	MaterialGlass   Material = 4
	MaterialUnknown Material = 99 // attempted, no rule matched
)

// Concrete lists the sortable materials in container order.
var Concrete = []Material{MaterialMetal, MaterialPaper, MaterialPlastic, MaterialGlass}

func (m Material) String() string {
	switch m {
	case MaterialNone:
		return "none"
	case MaterialMetal:
		return "metal"
	case MaterialPaper:
		return "paper"
	case MaterialPlastic:
		return "plastic"
	case MaterialGlass:
		return "glass"
	case MaterialUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("material(%d)", int(m))
	}
}

// Description is the display text shown to the user.
func (m Material) Description() string {
	switch m {
	case MaterialNone:
		return "None"
	case MaterialMetal:
		return "Metal"
	case MaterialPaper:
		return "Paper"
	case MaterialPlastic:
		return "Plastic"
	case MaterialGlass:
		return "Glass"
	case MaterialUnknown:
		return "Unknown"
	default:
		return "Error"
	}
}

// IsConcrete reports whether m is one of the four sortable materials.
func (m Material) IsConcrete() bool {
	switch m {
	case MaterialMetal, MaterialPaper, MaterialPlastic, MaterialGlass:
		return true
	}
	return false
}

// ParseMaterial accepts the lower-case names produced by String.
func ParseMaterial(s string) (Material, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return MaterialNone, nil
	case "metal":
		return MaterialMetal, nil
	case "paper":
		return MaterialPaper, nil
	case "plastic":
		return MaterialPlastic, nil
	case "glass":
		return MaterialGlass, nil
	case "unknown":
		return MaterialUnknown, nil
	}
	return MaterialNone, fmt.Errorf("unknown material %q", s)
}

func (m Material) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Material) UnmarshalText(text []byte) error {
	parsed, err := ParseMaterial(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// #endregion material

// #region result

// Confidence thresholds in percent.
const (
	MinConfidenceThreshold  = 60.0
	HighConfidenceThreshold = 80.0
)

// MaxDescriptionLen bounds Result.Description in bytes.
const MaxDescriptionLen = 19

// Result is the outcome of one classification.
type Result struct {
	Material    Material     `json:"material"`
	Confidence  float64      `json:"confidence"` // 0-100
	Valid       bool         `json:"valid"`
	Description string       `json:"description"`
	Bands       sensor.Bands `json:"bands"`
	Matches     int          `json:"matches"` // profile features matched, 0-4
}

// #endregion result

// #region profile
// Profile is one truth-table row: the expected features of a material.
// The scorer counts agreement against the same row.
type Profile struct {
	Material     Material                `json:"material"`
	Inductive    bool                    `json:"inductive"`
	Capacitive   bool                    `json:"capacitive"`
	Translucency sensor.TranslucencyBand `json:"translucency"`
	Sound        sensor.SoundBand        `json:"sound"`
}

// #endregion profile

// #region calibration
// ReferenceScale is the full scale the calibration thresholds are written
// against. When Calibration.Resolution differs they are rescaled linearly.
const ReferenceScale = sensor.ResolutionMax

// Calibration holds the analog bonus thresholds in raw counts at
// ReferenceScale, and the bonus added when each one holds.
type Calibration struct {
	Resolution uint16 `toml:"resolution" json:"resolution"`

	MetalSoundMin   float64 `toml:"metal_sound_min" json:"metal_sound_min"`
	GlassLightMin   float64 `toml:"glass_light_min" json:"glass_light_min"`
	PlasticLightMin float64 `toml:"plastic_light_min" json:"plastic_light_min"`
	PlasticLightMax float64 `toml:"plastic_light_max" json:"plastic_light_max"`
	PlasticSoundMin float64 `toml:"plastic_sound_min" json:"plastic_sound_min"`
	PlasticSoundMax float64 `toml:"plastic_sound_max" json:"plastic_sound_max"`
	PaperLightMax   float64 `toml:"paper_light_max" json:"paper_light_max"`
	PaperSoundMax   float64 `toml:"paper_sound_max" json:"paper_sound_max"`

	MetalBonus   float64 `toml:"metal_bonus" json:"metal_bonus"`
	GlassBonus   float64 `toml:"glass_bonus" json:"glass_bonus"`
	PlasticBonus float64 `toml:"plastic_bonus" json:"plastic_bonus"`
	PaperBonus   float64 `toml:"paper_bonus" json:"paper_bonus"`
}

// DefaultCalibration returns the factory thresholds for a 12-bit board.
func DefaultCalibration() Calibration {
	return Calibration{
		Resolution:      sensor.ResolutionMax,
		MetalSoundMin:   3000,
		GlassLightMin:   3500,
		PlasticLightMin: 1500,
		PlasticLightMax: 3000,
		PlasticSoundMin: 1000,
		PlasticSoundMax: 2500,
		PaperLightMax:   1500,
		PaperSoundMax:   1500,
		MetalBonus:      5.0,
		GlassBonus:      5.0,
		PlasticBonus:    3.0,
		PaperBonus:      3.0,
	}
}

// #endregion calibration

// #region config
// Config configures a Classifier.
type Config struct {
	MinConfidence float64     `toml:"min_confidence" json:"min_confidence"`
	Calibration   Calibration `toml:"calibration" json:"calibration"`
}

// DefaultConfig returns the factory classifier settings.
func DefaultConfig() Config {
	return Config{
		MinConfidence: MinConfidenceThreshold,
		Calibration:   DefaultCalibration(),
	}
}

// #endregion config
