package stats

import (
	"errors"
	"time"

	"github.com/smartwaste/go-controller/internal/classifier"
)

// ErrNoData is returned by lookups that find nothing stored.
var ErrNoData = errors.New("no data")

// #region counters
// Counters are the bin's lifetime usage statistics. The material counters
// count items classified as that material, whether or not the gate let them
// be deposited; deposits are recorded per event in the Store. Valid counts
// the results that passed validation, the sample size of AvgConfidence.
type Counters struct {
	Total          uint32  `json:"total" msgpack:"total"`
	Metal          uint32  `json:"metal" msgpack:"metal"`
	Paper          uint32  `json:"paper" msgpack:"paper"`
	Plastic        uint32  `json:"plastic" msgpack:"plastic"`
	Glass          uint32  `json:"glass" msgpack:"glass"`
	Errors         uint32  `json:"errors" msgpack:"errors"` // unknown or unclassified results
	Valid          uint32  `json:"valid" msgpack:"valid"`
	AvgConfidence  float64 `json:"avg_confidence" msgpack:"avg_confidence"`
	OperatingHours float64 `json:"operating_hours" msgpack:"operating_hours"`
}

// Count returns the counter for a concrete material, zero otherwise.
func (c Counters) Count(m classifier.Material) uint32 {
	switch m {
	case classifier.MaterialMetal:
		return c.Metal
	case classifier.MaterialPaper:
		return c.Paper
	case classifier.MaterialPlastic:
		return c.Plastic
	case classifier.MaterialGlass:
		return c.Glass
	}
	return 0
}

// Share returns the percentage of all classifications that were m.
func (c Counters) Share(m classifier.Material) float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Count(m)) * 100.0 / float64(c.Total)
}

// maxPlausibleTotal bounds what a stored image may claim. Larger values, zero,
// and the erased-flash pattern are treated as no data.
const maxPlausibleTotal = 1_000_000

func (c Counters) plausible() bool {
	return c.Total != 0 && c.Total != 0xFFFFFFFF && c.Total <= maxPlausibleTotal
}

// #endregion counters

// #region persister
// Persister stores and restores counters. Load reports false when nothing
// valid is stored.
type Persister interface {
	Save(c Counters) error
	Load() (Counters, bool, error)
}

// #endregion persister

// #region deposit-event
// DepositEvent is one persisted deposit cycle.
type DepositEvent struct {
	EventID    string              `json:"event_id"`
	Material   classifier.Material `json:"material"`
	Confidence float64             `json:"confidence"`
	Valid      bool                `json:"valid"`
	Action     string              `json:"action"` // "deposit" | "reject"
	Reason     string              `json:"reason"`
	Light      uint16              `json:"light"`
	Sound      uint16              `json:"sound"`
	Inductive  bool                `json:"inductive"`
	Capacitive bool                `json:"capacitive"`
	CreatedAt  time.Time           `json:"created_at"`
}

// #endregion deposit-event

// #region material-total
// MaterialTotal aggregates stored events for one material and action.
type MaterialTotal struct {
	Material      classifier.Material
	Action        string
	Count         int
	AvgConfidence float64
}

// #endregion material-total
