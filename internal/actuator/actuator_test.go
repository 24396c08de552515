package actuator

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/smartwaste/go-controller/internal/classifier"
)

type command struct {
	Servo Servo
	Pulse int
}

// recordingDriver captures every command; failAt makes the nth call fail.
type recordingDriver struct {
	cmds   []command
	failAt int
}

func (d *recordingDriver) SetPulse(s Servo, pulse int) error {
	d.cmds = append(d.cmds, command{s, pulse})
	if d.failAt > 0 && len(d.cmds) == d.failAt {
		return errors.New("board not responding")
	}
	return nil
}

func TestAngleToPulse(t *testing.T) {
	cases := map[int]int{0: 1000, 45: 1250, 90: 1500, 135: 1750, 180: 2000, 270: 2000, -10: 1000}
	for angle, want := range cases {
		if got := AngleToPulse(angle); got != want {
			t.Errorf("AngleToPulse(%d) = %d, want %d", angle, got, want)
		}
	}
}

func TestDepositSequence(t *testing.T) {
	cases := []struct {
		material classifier.Material
		tilt     int
		lid      Servo
	}{
		{classifier.MaterialMetal, PlatformMetal, ServoMetalLid},
		{classifier.MaterialPaper, PlatformPaper, ServoPaperLid},
		{classifier.MaterialPlastic, PlatformPlastic, ServoPlasticLid},
		{classifier.MaterialGlass, PlatformGlass, ServoGlassLid},
	}
	for _, tc := range cases {
		t.Run(tc.material.String(), func(t *testing.T) {
			drv := &recordingDriver{}
			c := NewController(drv, Timings{})

			if err := c.Deposit(context.Background(), tc.material); err != nil {
				t.Fatalf("Deposit: %v", err)
			}
			want := []command{
				{ServoPlatform, AngleToPulse(tc.tilt)},
				{tc.lid, AngleToPulse(LidOpen)},
				{tc.lid, AngleToPulse(LidClosed)},
				{ServoPlatform, AngleToPulse(PlatformRest)},
			}
			if diff := cmp.Diff(want, drv.cmds); diff != "" {
				t.Fatalf("commands mismatch (-want +got):\n%s", diff)
			}
			if st := c.Status(); st.Platform != PlatformRest {
				t.Fatalf("platform should be back at rest, got %d", st.Platform)
			}
		})
	}
}

func TestDepositRejectsNonConcrete(t *testing.T) {
	drv := &recordingDriver{}
	c := NewController(drv, Timings{})

	for _, m := range []classifier.Material{classifier.MaterialUnknown, classifier.MaterialNone} {
		err := c.Deposit(context.Background(), m)
		if !errors.Is(err, ErrInvalidMaterial) {
			t.Fatalf("expected ErrInvalidMaterial for %s, got %v", m, err)
		}
	}
	if len(drv.cmds) != 0 {
		t.Fatalf("no servo should move, got %d commands", len(drv.cmds))
	}
}

func TestDepositDriverFailure(t *testing.T) {
	drv := &recordingDriver{failAt: 2}
	c := NewController(drv, Timings{})

	if err := c.Deposit(context.Background(), classifier.MaterialGlass); err == nil {
		t.Fatal("expected driver error")
	}
	if st := c.Status(); st.GlassLid != LidClosed {
		t.Fatalf("failed command must not update status, got lid %d", st.GlassLid)
	}
}

func TestDepositCancelledLeavesBinSafe(t *testing.T) {
	drv := &recordingDriver{}
	c := NewController(drv, DefaultTimings())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Deposit(ctx, classifier.MaterialPaper)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	want := Status{Platform: PlatformRest}
	if diff := cmp.Diff(want, c.Status()); diff != "" {
		t.Fatalf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestRestClosesEverything(t *testing.T) {
	drv := &recordingDriver{}
	c := NewController(drv, Timings{})

	if err := c.Rest(context.Background()); err != nil {
		t.Fatalf("Rest: %v", err)
	}
	if len(drv.cmds) != len(Servos) {
		t.Fatalf("expected %d commands, got %d", len(Servos), len(drv.cmds))
	}
	if drv.cmds[0] != (command{ServoPlatform, 1500}) {
		t.Fatalf("platform should level first, got %+v", drv.cmds[0])
	}
}

func TestSelfTest(t *testing.T) {
	drv := &recordingDriver{}
	c := NewController(drv, Timings{})

	if err := c.SelfTest(context.Background()); err != nil {
		t.Fatalf("SelfTest: %v", err)
	}
	if want := len(Servos)*4 + len(Servos); len(drv.cmds) != want {
		t.Fatalf("expected %d commands, got %d", want, len(drv.cmds))
	}
}

func TestSerialDriver(t *testing.T) {
	var buf bytes.Buffer
	d := NewSerialDriver(&buf)

	if err := d.SetPulse(ServoPlasticLid, 1500); err != nil {
		t.Fatalf("SetPulse: %v", err)
	}
	if got := buf.String(); got != "SRV 4 1500\n" {
		t.Fatalf("unexpected command %q", got)
	}
}
