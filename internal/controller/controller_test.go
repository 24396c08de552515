package controller

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smartwaste/go-controller/internal/classifier"
	"github.com/smartwaste/go-controller/internal/events"
	"github.com/smartwaste/go-controller/internal/gate"
	"github.com/smartwaste/go-controller/internal/logging"
	"github.com/smartwaste/go-controller/internal/sensor"
	"github.com/smartwaste/go-controller/internal/stats"
)

// #region fakes
type fakeActuator struct {
	mu        sync.Mutex
	deposited []classifier.Material
	err       error
}

func (a *fakeActuator) Deposit(ctx context.Context, m classifier.Material) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.deposited = append(a.deposited, m)
	return nil
}

type fakeDisplay struct {
	calls  []string
	errors []string
}

func (d *fakeDisplay) Detecting()                  { d.calls = append(d.calls, "detecting") }
func (d *fakeDisplay) Result(r classifier.Result)  { d.calls = append(d.calls, "result:"+r.Material.String()) }
func (d *fakeDisplay) Error(msg string)            { d.errors = append(d.errors, msg) }
func (d *fakeDisplay) Statistics(c stats.Counters) { d.calls = append(d.calls, "stats") }

type fakeSink struct {
	saved []*events.DepositEvent
}

func (s *fakeSink) SaveDeposit(ctx context.Context, ev *events.DepositEvent) error {
	s.saved = append(s.saved, ev)
	return nil
}

// #endregion fakes

// #region helpers
type harness struct {
	ctrl     *Controller
	act      *fakeActuator
	display  *fakeDisplay
	sink     *fakeSink
	store    *stats.Store
	tracker  *stats.Tracker
	deposits chan *events.DepositEvent
	stats    chan *events.StatsEvent
}

func newHarness(t *testing.T, src sensor.Source) *harness {
	t.Helper()
	store, err := stats.NewStore(filepath.Join(t.TempDir(), "bin.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	h := &harness{
		act:      &fakeActuator{},
		display:  &fakeDisplay{},
		sink:     &fakeSink{},
		store:    store,
		tracker:  stats.NewTracker(store, 10),
		deposits: make(chan *events.DepositEvent, 16),
		stats:    make(chan *events.StatsEvent, 16),
	}
	config := DefaultConfig()
	config.BinID = "bin-test"
	config.PollInterval = time.Millisecond
	config.StatsEvery = 2
	h.ctrl = NewController(config, Deps{
		Source:     src,
		Classifier: classifier.NewClassifier(classifier.DefaultConfig()),
		Gate:       gate.NewGate(gate.DefaultGateConfig()),
		Actuator:   h.act,
		Tracker:    h.tracker,
		Store:      store,
		Display:    h.display,
		Sink:       h.sink,
		Deposits:   h.deposits,
		Stats:      h.stats,
	})
	return h
}

var roomy = sensor.ContainerLevels{Metal: 30, Paper: 30, Plastic: 30, Glass: 30}

func snapshot(inductive, capacitive, motion bool, light, sound uint16) sensor.Snapshot {
	return sensor.Snapshot{
		Digital: sensor.DigitalObservation{Inductive: inductive, Capacitive: capacitive, Motion: motion},
		Analog:  sensor.AnalogObservation{LightLevel: light, SoundLevel: sound},
		Levels:  roomy,
	}
}

func metal() sensor.Snapshot   { return snapshot(true, true, true, 500, 3800) }
func unknown() sensor.Snapshot { return snapshot(true, true, true, 2000, 3800) }
func idle() sensor.Snapshot    { return snapshot(false, false, false, 0, 0) }

// #endregion helpers

func TestRunCycle_NothingPresent(t *testing.T) {
	h := newHarness(t, nil)

	out, err := h.ctrl.RunCycle(context.Background(), idle())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if !out.Skipped {
		t.Fatal("expected skipped cycle")
	}
	if len(h.act.deposited) != 0 || len(h.display.calls) != 0 || h.tracker.Snapshot().Total != 0 {
		t.Error("expected no side effects")
	}
}

func TestRunCycle_MotionWithoutMaterial(t *testing.T) {
	h := newHarness(t, nil)

	out, _ := h.ctrl.RunCycle(context.Background(), snapshot(false, false, true, 500, 3800))
	if !out.Skipped {
		t.Fatal("expected PIR alone not to count as presence")
	}
}

func TestRunCycle_Deposit(t *testing.T) {
	h := newHarness(t, nil)

	out, err := h.ctrl.RunCycle(context.Background(), metal())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if !out.Deposited || out.Decision.Action != gate.ActionDeposit {
		t.Fatalf("expected deposit, got %+v", out.Decision)
	}
	if len(h.act.deposited) != 1 || h.act.deposited[0] != classifier.MaterialMetal {
		t.Errorf("expected one metal deposit, got %v", h.act.deposited)
	}
	if out.Counters.Total != 1 || out.Counters.Metal != 1 || out.Counters.AvgConfidence != 100 {
		t.Errorf("unexpected counters %+v", out.Counters)
	}

	// event persisted with its decision record
	stored, err := h.store.GetEvent(out.Event.EventID)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if stored.Material != classifier.MaterialMetal || stored.Action != gate.ActionDeposit {
		t.Errorf("unexpected stored event %+v", stored)
	}
	rows, err := logging.ListDecisions(h.store.DB(), logging.TriggerDepositCycle, 10)
	if err != nil {
		t.Fatalf("ListDecisions: %v", err)
	}
	if len(rows) != 1 || rows[0].Record.EventID != out.Event.EventID || !rows[0].Record.Deposited {
		t.Fatalf("unexpected decision log %+v", rows)
	}
	if rows[0].Record.Thresholds.MinConfidence != 60 || rows[0].Record.Thresholds.Resolution != 4095 {
		t.Errorf("thresholds not recorded: %+v", rows[0].Record.Thresholds)
	}
	if cc := rows[0].Record.Thresholds.Classifier; cc == nil || *cc != classifier.DefaultConfig() {
		t.Errorf("classifier config not recorded: %+v", cc)
	}

	// published and shown
	ev := <-h.deposits
	if ev.BinID != "bin-test" || ev.EventID != out.Event.EventID {
		t.Errorf("unexpected published event %+v", ev)
	}
	if len(h.sink.saved) != 1 {
		t.Errorf("expected telemetry write, got %d", len(h.sink.saved))
	}
	if strings.Join(h.display.calls, ",") != "detecting,result:metal" {
		t.Errorf("unexpected display calls %v", h.display.calls)
	}
}

func TestRunCycle_UnknownIsCountedNotDeposited(t *testing.T) {
	h := newHarness(t, nil)

	out, err := h.ctrl.RunCycle(context.Background(), unknown())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if out.Deposited || len(h.act.deposited) != 0 {
		t.Fatal("expected no deposit for unknown")
	}
	if out.Result.Material != classifier.MaterialUnknown || out.Decision.Action != gate.ActionReject {
		t.Errorf("unexpected outcome %+v / %+v", out.Result, out.Decision)
	}
	if out.Counters.Total != 1 || out.Counters.Errors != 1 || out.Counters.AvgConfidence != 0 {
		t.Errorf("unexpected counters %+v", out.Counters)
	}
	if len(h.display.errors) != 0 {
		t.Errorf("unknown items are shown by Result, got errors %v", h.display.errors)
	}
}

func TestRunCycle_ContainerFull(t *testing.T) {
	h := newHarness(t, nil)
	snap := metal()
	snap.Levels.Metal = 2

	out, err := h.ctrl.RunCycle(context.Background(), snap)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if out.Deposited || !out.Result.Valid {
		t.Fatalf("expected valid result held back, got %+v", out)
	}
	if len(h.display.errors) != 1 || h.display.errors[0] != "Metal bin full" {
		t.Errorf("unexpected display errors %v", h.display.errors)
	}
	if out.Counters.Metal != 1 {
		t.Errorf("expected classification counted, got %+v", out.Counters)
	}
}

func TestRunCycle_ActuatorFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.act.err = errors.New("servo stalled")

	out, err := h.ctrl.RunCycle(context.Background(), metal())
	if err == nil || !strings.Contains(err.Error(), "servo stalled") {
		t.Fatalf("expected actuator error, got %v", err)
	}
	if out.Deposited {
		t.Error("expected Deposited=false")
	}
	if out.Event.Action != gate.ActionReject || !strings.HasPrefix(out.Event.Reason, "actuator:") {
		t.Errorf("unexpected event %+v", out.Event)
	}
	rows, _ := logging.ListDecisions(h.store.DB(), logging.TriggerDepositCycle, 1)
	if len(rows) != 1 || rows[0].Record.ActuatorError != "servo stalled" || rows[0].Decision != gate.ActionDeposit {
		t.Errorf("expected gate decision and actuator error logged, got %+v", rows)
	}
	if len(h.display.errors) != 1 || h.display.errors[0] != "Actuator fault" {
		t.Errorf("unexpected display errors %v", h.display.errors)
	}
}

func TestRunCycle_StatsEveryN(t *testing.T) {
	h := newHarness(t, nil)

	h.ctrl.RunCycle(context.Background(), metal())
	if len(h.stats) != 0 {
		t.Fatal("expected no stats after first classification")
	}
	h.ctrl.RunCycle(context.Background(), unknown())
	if len(h.stats) != 1 {
		t.Fatalf("expected stats after second classification, got %d", len(h.stats))
	}
	se := <-h.stats
	if se.Counters.Total != 2 || se.BinID != "bin-test" {
		t.Errorf("unexpected stats event %+v", se)
	}
}

func TestRunCycle_FullChannelDoesNotBlock(t *testing.T) {
	h := newHarness(t, nil)
	blocked := make(chan *events.DepositEvent) // nobody reads
	h.ctrl.deps.Deposits = blocked

	done := make(chan struct{})
	go func() {
		h.ctrl.RunCycle(context.Background(), metal())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunCycle blocked on a full channel")
	}
}

func TestRunCycle_NoStore(t *testing.T) {
	h := newHarness(t, nil)
	h.ctrl.deps.Store = nil

	out, err := h.ctrl.RunCycle(context.Background(), metal())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if out.Event.EventID == "" || out.Event.CreatedAt.IsZero() {
		t.Errorf("expected id and timestamp without a store, got %+v", out.Event)
	}
}

func TestRun_UntilEOF(t *testing.T) {
	src := sensor.NewSliceSource(idle(), metal(), idle(), unknown(), metal())
	h := newHarness(t, src)

	if err := h.ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(h.act.deposited) != 2 {
		t.Errorf("expected 2 deposits, got %d", len(h.act.deposited))
	}

	// counters were flushed on exit even though saveEvery was not reached
	c, ok, err := h.store.Load()
	if err != nil || !ok {
		t.Fatalf("expected flushed counters, got ok=%v err=%v", ok, err)
	}
	if c.Total != 3 || c.Metal != 2 || c.Errors != 1 {
		t.Errorf("unexpected flushed counters %+v", c)
	}
}

func TestRun_SkipsMalformedFrames(t *testing.T) {
	input := strings.Join([]string{
		"# bench capture",
		"ind=1 cap=1 pir=1 ldr=500 mic=3800 fill=30,30,30,30",
		"garbage",
		"ind=0 cap=1 pir=1 ldr=400 mic=600 fill=30,30,30,30",
	}, "\n")
	h := newHarness(t, sensor.NewLineSource(strings.NewReader(input)))

	if err := h.ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []classifier.Material{classifier.MaterialMetal, classifier.MaterialPaper}
	if len(h.act.deposited) != 2 || h.act.deposited[0] != want[0] || h.act.deposited[1] != want[1] {
		t.Errorf("expected %v, got %v", want, h.act.deposited)
	}
}

func TestRun_Cancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	h := newHarness(t, sensor.NewLineSource(pr))
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- h.ctrl.Run(ctx) }()
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
