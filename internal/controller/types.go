package controller

import (
	"context"
	"database/sql"
	"time"

	"github.com/smartwaste/go-controller/internal/classifier"
	"github.com/smartwaste/go-controller/internal/events"
	"github.com/smartwaste/go-controller/internal/gate"
	"github.com/smartwaste/go-controller/internal/sensor"
	"github.com/smartwaste/go-controller/internal/stats"
)

// #region config
// Config holds the loop settings.
type Config struct {
	BinID        string
	PollInterval time.Duration // idle wait after a cycle with nothing present
	StatsEvery   int           // show and publish counters every N classifications; 0 disables
}

// DefaultConfig returns the firmware loop timing.
func DefaultConfig() Config {
	return Config{
		BinID:        "bin-1",
		PollInterval: 100 * time.Millisecond,
		StatsEvery:   stats.DefaultSaveEvery,
	}
}

// #endregion config

// #region collaborators
// Actuator moves an item into the container for its material.
type Actuator interface {
	Deposit(ctx context.Context, m classifier.Material) error
}

// Display receives operator feedback for each cycle.
type Display interface {
	Detecting()
	Result(r classifier.Result)
	Error(msg string)
	Statistics(c stats.Counters)
}

// EventStore persists deposit events. DB exposes the database holding the
// decision log.
type EventStore interface {
	SaveEvent(ev stats.DepositEvent) (stats.DepositEvent, error)
	DB() *sql.DB
}

// Sink receives every deposit event synchronously, e.g. a telemetry store.
type Sink interface {
	SaveDeposit(ctx context.Context, ev *events.DepositEvent) error
}

// Deps are the collaborators of a Controller. Source, Classifier, Gate,
// Actuator and Tracker are required; the rest may be nil.
type Deps struct {
	Source     sensor.Source
	Classifier *classifier.Classifier
	Gate       *gate.Gate
	Actuator   Actuator
	Tracker    *stats.Tracker

	Store    EventStore
	Display  Display
	Sink     Sink
	Deposits chan<- *events.DepositEvent
	Stats    chan<- *events.StatsEvent
}

// #endregion collaborators

// #region outcome
// Outcome is everything one cycle observed and decided.
type Outcome struct {
	Skipped   bool // nothing present in the chute
	Snapshot  sensor.Snapshot
	Result    classifier.Result
	Decision  gate.GateDecision
	Deposited bool
	Event     stats.DepositEvent
	Counters  stats.Counters
}

// #endregion outcome
