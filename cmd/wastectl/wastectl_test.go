package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/smartwaste/go-controller/internal/actuator"
	"github.com/smartwaste/go-controller/internal/classifier"
	"github.com/smartwaste/go-controller/internal/display"
	"github.com/smartwaste/go-controller/internal/stats"
)

type recordingDriver struct {
	pulses []int
	err    error
}

func (d *recordingDriver) SetPulse(s actuator.Servo, pulse int) error {
	if d.err != nil {
		return d.err
	}
	d.pulses = append(d.pulses, pulse)
	return nil
}

func TestSelfTestReportsRestPositions(t *testing.T) {
	driver := &recordingDriver{}
	act := actuator.NewController(driver, actuator.Timings{})
	var out bytes.Buffer

	if err := selfTest(context.Background(), act, &out); err != nil {
		t.Fatalf("selfTest: %v", err)
	}

	// four angles per servo, then one rest move each
	if want := 5 * len(actuator.Servos); len(driver.pulses) != want {
		t.Errorf("expected %d servo commands, got %d", want, len(driver.pulses))
	}
	want := actuator.Status{
		Platform: actuator.PlatformRest,
		MetalLid: actuator.LidClosed, PaperLid: actuator.LidClosed,
		PlasticLid: actuator.LidClosed, GlassLid: actuator.LidClosed,
	}
	if diff := cmp.Diff(want, act.Status()); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(out.String(), "Servo self test passed") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestSelfTestDriverFailure(t *testing.T) {
	boom := errors.New("board unplugged")
	act := actuator.NewController(&recordingDriver{err: boom}, actuator.Timings{})
	var out bytes.Buffer

	err := selfTest(context.Background(), act, &out)
	if !errors.Is(err, boom) {
		t.Fatalf("expected driver error, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no report on failure, got:\n%s", out.String())
	}
}

func TestResetCounters(t *testing.T) {
	store, err := stats.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()
	stored := stats.Counters{Total: 5, Metal: 3, Glass: 1, Errors: 1, Valid: 4, AvgConfidence: 82}
	if err := store.Save(stored); err != nil {
		t.Fatalf("Save: %v", err)
	}

	prev, err := resetCounters(store)
	if err != nil {
		t.Fatalf("resetCounters: %v", err)
	}

	if diff := cmp.Diff(stored, prev); diff != "" {
		t.Errorf("previous counters mismatch (-want +got):\n%s", diff)
	}
	got, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(stats.Counters{}, got); diff != "" {
		t.Errorf("counters not zeroed (-want +got):\n%s", diff)
	}
}

func TestPrintPanel(t *testing.T) {
	var console bytes.Buffer
	c := display.NewConsole(&console, true)
	c.Result(classifier.Result{Material: classifier.MaterialMetal, Description: "Metal", Confidence: 92, Valid: true})

	var out bytes.Buffer
	printPanel(&out, c)

	want := "LCD: [Metal           ] [92%             ]\nLED: metal\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("panel mismatch (-want +got):\n%s", diff)
	}
}
