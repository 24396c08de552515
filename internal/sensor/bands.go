package sensor

// #region thresholds
// Band breakpoints as a percentage of full scale. The lower bound of each
// band is inclusive.
const (
	translucencyMediumPct = 20.0
	translucencyHighPct   = 60.0
	soundMediumPct        = 30.0
	soundHighPct          = 70.0
)

// #endregion thresholds

// #region classify-bands

// ClassifyTranslucency bands a light reading at the default 12-bit scale.
func ClassifyTranslucency(light uint16) TranslucencyBand {
	return ClassifyTranslucencyAt(light, ResolutionMax)
}

// ClassifyTranslucencyAt bands a light reading against fullScale.
// Readings above full scale saturate into TranslucencyHigh.
func ClassifyTranslucencyAt(light uint16, fullScale uint16) TranslucencyBand {
	pct := percentOf(light, fullScale)
	switch {
	case pct < translucencyMediumPct:
		return TranslucencyOpaque
	case pct < translucencyHighPct:
		return TranslucencyMedium
	default:
		return TranslucencyHigh
	}
}

// ClassifySound bands a microphone reading at the default 12-bit scale.
func ClassifySound(sound uint16) SoundBand {
	return ClassifySoundAt(sound, ResolutionMax)
}

// ClassifySoundAt bands a microphone reading against fullScale.
func ClassifySoundAt(sound uint16, fullScale uint16) SoundBand {
	pct := percentOf(sound, fullScale)
	switch {
	case pct < soundMediumPct:
		return SoundLow
	case pct < soundHighPct:
		return SoundMedium
	default:
		return SoundHigh
	}
}

// DeriveBands computes both bands once for an observation.
func DeriveBands(a AnalogObservation) Bands {
	return DeriveBandsAt(a, ResolutionMax)
}

// DeriveBandsAt computes both bands against fullScale.
func DeriveBandsAt(a AnalogObservation, fullScale uint16) Bands {
	return Bands{
		Translucency: ClassifyTranslucencyAt(a.LightLevel, fullScale),
		Sound:        ClassifySoundAt(a.SoundLevel, fullScale),
	}
}

// #endregion classify-bands

// #region presence
// DetectPresence reports whether a deposit is in the chute: the capacitive
// sensor sees material and the PIR confirms movement.
func DetectPresence(d DigitalObservation) bool {
	return d.Capacitive && d.Motion
}

// #endregion presence

func percentOf(level, fullScale uint16) float64 {
	if fullScale == 0 {
		fullScale = ResolutionMax
	}
	return float64(level) * 100.0 / float64(fullScale)
}
