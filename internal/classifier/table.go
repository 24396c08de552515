package classifier

import (
	"github.com/smartwaste/go-controller/internal/sensor"
)

// #region truth-table
// TruthTable is evaluated top to bottom; the first matching row wins. Every
// non-metal row requires the capacitive sensor, so an empty chute and any
// capacitive=false reading fall through to MaterialUnknown.
var TruthTable = []Profile{
	{Material: MaterialMetal, Inductive: true, Capacitive: true, Translucency: sensor.TranslucencyOpaque, Sound: sensor.SoundHigh},
	{Material: MaterialGlass, Inductive: false, Capacitive: true, Translucency: sensor.TranslucencyHigh, Sound: sensor.SoundHigh},
	{Material: MaterialPlastic, Inductive: false, Capacitive: true, Translucency: sensor.TranslucencyMedium, Sound: sensor.SoundMedium},
	{Material: MaterialPaper, Inductive: false, Capacitive: true, Translucency: sensor.TranslucencyOpaque, Sound: sensor.SoundLow},
}

// Match selects a material from the digital flags and precomputed bands.
func Match(d sensor.DigitalObservation, b sensor.Bands) Material {
	for _, row := range TruthTable {
		if row.MatchCount(d, b) == 4 {
			return row.Material
		}
	}
	return MaterialUnknown
}

// ProfileFor returns the truth-table row of a concrete material.
func ProfileFor(m Material) (Profile, bool) {
	for _, row := range TruthTable {
		if row.Material == m {
			return row, true
		}
	}
	return Profile{}, false
}

// MatchCount reports how many of the four profile features agree with the
// observation.
func (p Profile) MatchCount(d sensor.DigitalObservation, b sensor.Bands) int {
	n := 0
	if d.Inductive == p.Inductive {
		n++
	}
	if d.Capacitive == p.Capacitive {
		n++
	}
	if b.Translucency == p.Translucency {
		n++
	}
	if b.Sound == p.Sound {
		n++
	}
	return n
}

// #endregion truth-table
