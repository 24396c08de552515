package display

import (
	"github.com/smartwaste/go-controller/internal/classifier"
)

// #region lcd
// LCDWidth is the number of characters per line on the 16x2 panel.
const LCDWidth = 16

// LCD is the text shown on the two-line panel.
type LCD struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

// NewLCD builds a panel frame, cutting each line to LCDWidth runes.
func NewLCD(line1, line2 string) LCD {
	return LCD{Line1: fit(line1), Line2: fit(line2)}
}

func (l LCD) String() string {
	return l.Line1 + " | " + l.Line2
}

func fit(s string) string {
	r := []rune(s)
	if len(r) > LCDWidth {
		return string(r[:LCDWidth])
	}
	return s
}

// #endregion lcd

// #region indicator
// Indicator identifies one of the front-panel LEDs.
type Indicator int

const (
	IndicatorNone Indicator = iota
	IndicatorMetal
	IndicatorPaper
	IndicatorPlastic
	IndicatorGlass
	IndicatorError
	IndicatorSystem
)

func (i Indicator) String() string {
	switch i {
	case IndicatorMetal:
		return "metal"
	case IndicatorPaper:
		return "paper"
	case IndicatorPlastic:
		return "plastic"
	case IndicatorGlass:
		return "glass"
	case IndicatorError:
		return "error"
	case IndicatorSystem:
		return "system"
	}
	return "none"
}

// LEDFor returns the LED lit for a classification. Unknown and
// out-of-range materials light the error LED.
func LEDFor(m classifier.Material) Indicator {
	switch m {
	case classifier.MaterialNone:
		return IndicatorNone
	case classifier.MaterialMetal:
		return IndicatorMetal
	case classifier.MaterialPaper:
		return IndicatorPaper
	case classifier.MaterialPlastic:
		return IndicatorPlastic
	case classifier.MaterialGlass:
		return IndicatorGlass
	}
	return IndicatorError
}

// #endregion indicator
