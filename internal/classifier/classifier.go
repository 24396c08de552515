package classifier

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/smartwaste/go-controller/internal/sensor"
)

// #region classifier
// Classifier is an immutable, configured classification engine. It holds no
// per-call state and may be shared across goroutines.
type Classifier struct {
	config Config
}

// NewClassifier creates a classifier with the given configuration.
func NewClassifier(config Config) *Classifier {
	return &Classifier{config: config}
}

// Config returns the configuration the classifier was built with.
func (c *Classifier) Config() Config {
	return c.config
}

// Classify derives the bands once, selects a material from the truth table,
// scores it and validates the result. An observation with no matching row is
// a normal MaterialUnknown result with zero confidence.
func (c *Classifier) Classify(d sensor.DigitalObservation, a sensor.AnalogObservation) Result {
	cal := c.config.Calibration
	bands := sensor.DeriveBandsAt(a, cal.fullScale())
	material := Match(d, bands)
	confidence, matches := Score(d, a, bands, material, cal)

	r := Result{
		Material:    material,
		Confidence:  confidence,
		Description: boundDescription(material.Description()),
		Bands:       bands,
		Matches:     matches,
	}
	r.Valid = ValidateAt(r, c.config.MinConfidence)
	return r
}

// boundDescription truncates to MaxDescriptionLen bytes on a rune boundary.
func boundDescription(s string) string {
	if len(s) <= MaxDescriptionLen {
		return s
	}
	cut := MaxDescriptionLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// #endregion classifier

// #region calibration-validate

// Validate checks that the thresholds are usable: a non-zero resolution,
// thresholds within the reference scale, ordered ranges, and non-negative
// bonuses.
func (c Calibration) Validate() error {
	var errs []error
	if c.Resolution == 0 {
		errs = append(errs, errors.New("resolution must be positive"))
	}
	thresholds := map[string]float64{
		"metal_sound_min":   c.MetalSoundMin,
		"glass_light_min":   c.GlassLightMin,
		"plastic_light_min": c.PlasticLightMin,
		"plastic_light_max": c.PlasticLightMax,
		"plastic_sound_min": c.PlasticSoundMin,
		"plastic_sound_max": c.PlasticSoundMax,
		"paper_light_max":   c.PaperLightMax,
		"paper_sound_max":   c.PaperSoundMax,
	}
	names := make([]string, 0, len(thresholds))
	for name := range thresholds {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if v := thresholds[name]; v < 0 || v > ReferenceScale {
			errs = append(errs, fmt.Errorf("%s=%.1f outside 0..%d", name, v, ReferenceScale))
		}
	}
	if c.PlasticLightMin >= c.PlasticLightMax {
		errs = append(errs, fmt.Errorf("plastic light range (%.1f, %.1f) is empty", c.PlasticLightMin, c.PlasticLightMax))
	}
	if c.PlasticSoundMin >= c.PlasticSoundMax {
		errs = append(errs, fmt.Errorf("plastic sound range (%.1f, %.1f) is empty", c.PlasticSoundMin, c.PlasticSoundMax))
	}
	if c.MetalBonus < 0 || c.GlassBonus < 0 || c.PlasticBonus < 0 || c.PaperBonus < 0 {
		errs = append(errs, errors.New("bonuses must be non-negative"))
	}
	return errors.Join(errs...)
}

// Validate checks the threshold and the calibration.
func (c Config) Validate() error {
	var errs []error
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		errs = append(errs, fmt.Errorf("min_confidence=%.1f outside 0..100", c.MinConfidence))
	}
	if err := c.Calibration.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("calibration: %w", err))
	}
	return errors.Join(errs...)
}

// #endregion calibration-validate

// #region truth-table-report

// WriteTruthTable prints the decision table followed by the active
// thresholds, for operators verifying a bin's configuration.
func WriteTruthTable(w io.Writer, config Config) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tMATERIAL\tINDUCTIVE\tCAPACITIVE\tTRANSLUCENCY\tSOUND")
	for i, row := range TruthTable {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%s\n",
			i+1, row.Material.Description(), boolBit(row.Inductive), boolBit(row.Capacitive), row.Translucency, row.Sound)
	}
	fmt.Fprintf(tw, "else\t%s\t-\t-\t-\t-\n", MaterialUnknown.Description())
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write truth table: %w", err)
	}

	cal := config.Calibration
	_, err := fmt.Fprintf(w, "\nconfidence: min %.1f%%, high %.1f%%\nresolution: %d (thresholds at %d)\n"+
		"bonus: metal sound>%.0f +%.1f | glass light>%.0f +%.1f | plastic light(%.0f,%.0f) sound(%.0f,%.0f) +%.1f each | paper light<%.0f sound<%.0f +%.1f each\n",
		config.MinConfidence, HighConfidenceThreshold,
		cal.fullScale(), ReferenceScale,
		cal.MetalSoundMin, cal.MetalBonus,
		cal.GlassLightMin, cal.GlassBonus,
		cal.PlasticLightMin, cal.PlasticLightMax, cal.PlasticSoundMin, cal.PlasticSoundMax, cal.PlasticBonus,
		cal.PaperLightMax, cal.PaperSoundMax, cal.PaperBonus,
	)
	if err != nil {
		return fmt.Errorf("write thresholds: %w", err)
	}
	return nil
}

func boolBit(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion truth-table-report
