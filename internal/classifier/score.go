package classifier

import (
	"github.com/smartwaste/go-controller/internal/sensor"
)

// #region score

// Score rates how well an observation fits the profile of m and returns the
// confidence with the number of matched features. Non-concrete materials
// score zero. The bonus checks are independent of the match count.
func Score(d sensor.DigitalObservation, a sensor.AnalogObservation, b sensor.Bands, m Material, cal Calibration) (float64, int) {
	profile, ok := ProfileFor(m)
	if !ok {
		return 0, 0
	}
	matches := profile.MatchCount(d, b)
	confidence := float64(matches) / 4.0 * 100.0
	confidence += bonus(a, m, cal)
	return clamp(confidence, 0, 100), matches
}

// bonus adds the material-specific analog evidence.
func bonus(a sensor.AnalogObservation, m Material, cal Calibration) float64 {
	light := float64(a.LightLevel)
	sound := float64(a.SoundLevel)
	scale := cal.scale()

	var extra float64
	switch m {
	case MaterialMetal:
		if sound > cal.MetalSoundMin*scale {
			extra += cal.MetalBonus
		}
	case MaterialGlass:
		if light > cal.GlassLightMin*scale {
			extra += cal.GlassBonus
		}
	case MaterialPlastic:
		if light > cal.PlasticLightMin*scale && light < cal.PlasticLightMax*scale {
			extra += cal.PlasticBonus
		}
		if sound > cal.PlasticSoundMin*scale && sound < cal.PlasticSoundMax*scale {
			extra += cal.PlasticBonus
		}
	case MaterialPaper:
		if light < cal.PaperLightMax*scale {
			extra += cal.PaperBonus
		}
		if sound < cal.PaperSoundMax*scale {
			extra += cal.PaperBonus
		}
	}
	return extra
}

// scale maps reference-scale thresholds onto the configured resolution.
func (c Calibration) scale() float64 {
	if c.Resolution == 0 || c.Resolution == ReferenceScale {
		return 1
	}
	return float64(c.Resolution) / float64(ReferenceScale)
}

func (c Calibration) fullScale() uint16 {
	if c.Resolution == 0 {
		return sensor.ResolutionMax
	}
	return c.Resolution
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion score

// #region validate

// Validate applies the factory acceptance rule: a concrete material with
// confidence of at least MinConfidenceThreshold.
func Validate(r Result) bool {
	return ValidateAt(r, MinConfidenceThreshold)
}

// ValidateAt is Validate with an explicit threshold.
func ValidateAt(r Result, minConfidence float64) bool {
	return r.Material.IsConcrete() && r.Confidence >= minConfidence
}

// ConfidenceLevel buckets a confidence for display.
func ConfidenceLevel(confidence float64) string {
	switch {
	case confidence >= HighConfidenceThreshold:
		return "high"
	case confidence >= MinConfidenceThreshold:
		return "acceptable"
	default:
		return "low"
	}
}

// #endregion validate
