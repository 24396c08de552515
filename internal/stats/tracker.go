package stats

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/smartwaste/go-controller/internal/classifier"
)

// DefaultSaveEvery is how many classifications pass between persists.
const DefaultSaveEvery = 10

// #region tracker
// Tracker accumulates counters in memory and persists them periodically.
// Safe for concurrent use.
type Tracker struct {
	persister Persister
	saveEvery uint32

	mu       sync.Mutex
	counters Counters
}

// NewTracker creates a tracker. A nil persister keeps counters in memory
// only; saveEvery <= 0 uses DefaultSaveEvery.
func NewTracker(persister Persister, saveEvery int) *Tracker {
	if saveEvery <= 0 {
		saveEvery = DefaultSaveEvery
	}
	return &Tracker{persister: persister, saveEvery: uint32(saveEvery)}
}

// Load restores persisted counters, or starts from zero when nothing valid
// is stored.
func (t *Tracker) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counters = Counters{}
	if t.persister == nil {
		return nil
	}
	c, ok, err := t.persister.Load()
	if err != nil {
		return fmt.Errorf("load counters: %w", err)
	}
	if !ok {
		log.Printf("Stats: no stored counters, starting from zero")
		return nil
	}
	// images written before Valid was tracked hold only the average
	if c.Valid == 0 && c.AvgConfidence > 0 {
		c.Valid = c.Total - c.Errors
	}
	t.counters = c
	log.Printf("Stats: restored total=%d avg=%.1f%%", c.Total, c.AvgConfidence)
	return nil
}

// Update records one classification. The counters are updated even when
// the periodic persist fails; the error is returned for logging.
func (t *Tracker) Update(r classifier.Result) (Counters, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c := &t.counters
	c.Total++
	switch r.Material {
	case classifier.MaterialMetal:
		c.Metal++
	case classifier.MaterialPaper:
		c.Paper++
	case classifier.MaterialPlastic:
		c.Plastic++
	case classifier.MaterialGlass:
		c.Glass++
	default:
		c.Errors++
	}

	// incremental mean over the valid classifications
	if r.Valid {
		c.Valid++
		n := float64(c.Valid)
		c.AvgConfidence = (c.AvgConfidence*(n-1) + r.Confidence) / n
	}

	log.Printf("Stats: total=%d metal=%d paper=%d plastic=%d glass=%d avg=%.1f%%",
		c.Total, c.Metal, c.Paper, c.Plastic, c.Glass, c.AvgConfidence)

	if t.persister != nil && c.Total%t.saveEvery == 0 {
		if err := t.persister.Save(*c); err != nil {
			return *c, fmt.Errorf("persist counters: %w", err)
		}
	}
	return *c, nil
}

// AddOperatingTime accumulates powered-on time.
func (t *Tracker) AddOperatingTime(d time.Duration) {
	t.mu.Lock()
	t.counters.OperatingHours += d.Hours()
	t.mu.Unlock()
}

// Snapshot returns a copy of the current counters.
func (t *Tracker) Snapshot() Counters {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counters
}

// Flush persists the current counters immediately.
func (t *Tracker) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.persister == nil {
		return nil
	}
	if err := t.persister.Save(t.counters); err != nil {
		return fmt.Errorf("flush counters: %w", err)
	}
	return nil
}

// Reset zeroes the counters and persists the empty set.
func (t *Tracker) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters = Counters{}
	log.Printf("Stats: counters reset")
	if t.persister == nil {
		return nil
	}
	if err := t.persister.Save(t.counters); err != nil {
		return fmt.Errorf("reset counters: %w", err)
	}
	return nil
}

// #endregion tracker

// #region multi-persister
// MultiPersister saves to every persister and loads from the first one
// holding valid data.
type MultiPersister []Persister

func (m MultiPersister) Save(c Counters) error {
	var errs []error
	for _, p := range m {
		if err := p.Save(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiPersister) Load() (Counters, bool, error) {
	var errs []error
	for _, p := range m {
		c, ok, err := p.Load()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			return c, true, nil
		}
	}
	return Counters{}, false, errors.Join(errs...)
}

// #endregion multi-persister
