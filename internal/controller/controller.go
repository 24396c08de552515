package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/smartwaste/go-controller/internal/events"
	"github.com/smartwaste/go-controller/internal/gate"
	"github.com/smartwaste/go-controller/internal/logging"
	"github.com/smartwaste/go-controller/internal/sensor"
	"github.com/smartwaste/go-controller/internal/stats"
)

// #region controller-struct
// Controller runs the detect, classify, gate, deposit and record cycle.
type Controller struct {
	config Config
	deps   Deps
	now    func() time.Time
}

// NewController wires a controller.
func NewController(config Config, deps Deps) *Controller {
	return &Controller{config: config, deps: deps, now: time.Now}
}

// #endregion controller-struct

// #region run
// Run reads snapshots until the source is exhausted or ctx is cancelled.
// Malformed frames and per-cycle errors are logged and skipped. Counters
// are flushed on the way out. Returns nil at end of input.
func (c *Controller) Run(ctx context.Context) error {
	last := c.now()
	defer func() {
		if err := c.deps.Tracker.Flush(); err != nil {
			log.Printf("Controller: %v", err)
		}
	}()

	for {
		snap, err := c.deps.Source.Next(ctx)
		now := c.now()
		c.deps.Tracker.AddOperatingTime(now.Sub(last))
		last = now

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			log.Println("Controller: input exhausted")
			return nil
		case errors.Is(err, sensor.ErrMalformedFrame):
			log.Printf("Controller: skipping frame: %v", err)
			continue
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			return fmt.Errorf("read snapshot: %w", err)
		}

		out, err := c.RunCycle(ctx, snap)
		if err != nil {
			log.Printf("Controller: cycle error: %v", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if out.Skipped && c.config.PollInterval > 0 {
			t := time.NewTimer(c.config.PollInterval)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
	}
}

// #endregion run

// #region run-cycle
// RunCycle processes one snapshot. Nothing happens unless an item is
// present. Otherwise the item is classified and gated, deposited when the
// gate allows, counted, recorded, shown and published. Every step after
// actuation runs even when an earlier one fails; the returned error joins
// all failures and the Outcome is always complete.
func (c *Controller) RunCycle(ctx context.Context, snap sensor.Snapshot) (Outcome, error) {
	out := Outcome{Snapshot: snap}

	// 1. Presence
	if !sensor.DetectPresence(snap.Digital) {
		out.Skipped = true
		return out, nil
	}
	if c.deps.Display != nil {
		c.deps.Display.Detecting()
	}

	// 2. Classify
	out.Result = c.deps.Classifier.Classify(snap.Digital, snap.Analog)
	log.Printf("Controller: classified %s confidence=%.1f valid=%v bands=%s/%s",
		out.Result.Material, out.Result.Confidence, out.Result.Valid,
		out.Result.Bands.Translucency, out.Result.Bands.Sound)

	// 3. Gate
	out.Decision = c.deps.Gate.Evaluate(out.Result, snap.Levels)
	log.Printf("Controller: gate action=%s reason=%q", out.Decision.Action, out.Decision.Reason)

	var errs []error

	// 4. Deposit
	var actErr error
	if out.Decision.Action == gate.ActionDeposit {
		if actErr = c.deps.Actuator.Deposit(ctx, out.Result.Material); actErr != nil {
			errs = append(errs, fmt.Errorf("deposit %s: %w", out.Result.Material, actErr))
		} else {
			out.Deposited = true
		}
	}

	// 5. Statistics
	counters, err := c.deps.Tracker.Update(out.Result)
	if err != nil {
		errs = append(errs, err)
	}
	out.Counters = counters

	// 6. Event and decision log
	ev, err := c.record(out, actErr)
	if err != nil {
		errs = append(errs, err)
	}
	out.Event = ev

	// 7. Display
	c.show(out, actErr)

	// 8. Publish
	c.publish(ctx, out)

	return out, errors.Join(errs...)
}

// #endregion run-cycle

// #region record
// record assigns the event id and persists the event with its decision
// record when a store is configured.
func (c *Controller) record(out Outcome, actErr error) (stats.DepositEvent, error) {
	ev := stats.DepositEvent{
		Material:   out.Result.Material,
		Confidence: out.Result.Confidence,
		Valid:      out.Result.Valid,
		Action:     out.Decision.Action,
		Reason:     out.Decision.Reason,
		Light:      out.Snapshot.Analog.LightLevel,
		Sound:      out.Snapshot.Analog.SoundLevel,
		Inductive:  out.Snapshot.Digital.Inductive,
		Capacitive: out.Snapshot.Digital.Capacitive,
	}
	if actErr != nil {
		ev.Action = gate.ActionReject
		ev.Reason = fmt.Sprintf("actuator: %v", actErr)
	}
	ev.EventID = uuid.NewString()
	ev.CreatedAt = c.now().UTC()

	if c.deps.Store == nil {
		return ev, nil
	}
	saved, err := c.deps.Store.SaveEvent(ev)
	if err != nil {
		return ev, err
	}
	rec := c.decisionRecord(out, saved.EventID, actErr)
	if err := logging.LogRecord(c.deps.Store.DB(), logging.TriggerDepositCycle, rec); err != nil {
		return saved, err
	}
	return saved, nil
}

func (c *Controller) decisionRecord(out Outcome, eventID string, actErr error) logging.DecisionRecord {
	cc := c.deps.Classifier.Config()
	gc := c.deps.Gate.Config()
	rec := logging.DecisionRecord{
		EventID: eventID,
		Digital: out.Snapshot.Digital,
		Analog:  out.Snapshot.Analog,
		Levels:  out.Snapshot.Levels,
		Bands:   out.Result.Bands,
		Result:  out.Result,
		Thresholds: logging.DecisionThresholds{
			MinConfidence:   gc.MinConfidence,
			FullDistanceCm:  gc.FullDistanceCm,
			EmptyDistanceCm: gc.EmptyDistanceCm,
			Resolution:      cc.Calibration.Resolution,
			Classifier:      &cc,
		},
		GateAction:    out.Decision.Action,
		GateSoftScore: out.Decision.SoftScore,
		GateVetoed:    out.Decision.Vetoed,
		GateReason:    out.Decision.Reason,
		Deposited:     out.Deposited,
	}
	if actErr != nil {
		rec.ActuatorError = actErr.Error()
	}
	return rec
}

// #endregion record

// #region feedback
func (c *Controller) show(out Outcome, actErr error) {
	d := c.deps.Display
	if d == nil {
		return
	}
	d.Result(out.Result)
	switch {
	case actErr != nil:
		d.Error("Actuator fault")
	case out.Result.Valid && out.Decision.Vetoed:
		d.Error(vetoMessage(out))
	}
	if c.statsDue(out.Counters) {
		d.Statistics(out.Counters)
	}
}

// vetoMessage is a short operator message for a valid item the gate held
// back.
func vetoMessage(out Outcome) string {
	for _, v := range out.Decision.VetoSignals {
		if v.Type == gate.VetoContainerFull {
			return fmt.Sprintf("%s bin full", out.Result.Material.Description())
		}
	}
	return "Not accepted"
}

func (c *Controller) publish(ctx context.Context, out Outcome) {
	ev := events.NewDepositEvent(c.config.BinID, out.Event)

	if c.deps.Sink != nil {
		if err := c.deps.Sink.SaveDeposit(ctx, ev); err != nil {
			log.Printf("Controller: telemetry: %v", err)
		}
	}
	if c.deps.Deposits != nil {
		select {
		case c.deps.Deposits <- ev:
		default:
			log.Printf("Controller: deposit channel full, dropping event %s", ev.EventID)
		}
	}
	if c.deps.Stats != nil && c.statsDue(out.Counters) {
		se := &events.StatsEvent{BinID: c.config.BinID, Timestamp: ev.Timestamp, Counters: out.Counters}
		select {
		case c.deps.Stats <- se:
		default:
			log.Printf("Controller: stats channel full, dropping snapshot")
		}
	}
}

func (c *Controller) statsDue(counters stats.Counters) bool {
	return c.config.StatsEvery > 0 && counters.Total > 0 && counters.Total%uint32(c.config.StatsEvery) == 0
}

// #endregion feedback
