package sensor

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestClassifyTranslucencyBoundaries(t *testing.T) {
	cases := []struct {
		light uint16
		want  TranslucencyBand
	}{
		{0, TranslucencyOpaque},
		{818, TranslucencyOpaque},
		{819, TranslucencyMedium}, // exactly 20%
		{2456, TranslucencyMedium},
		{2457, TranslucencyHigh}, // exactly 60%
		{4095, TranslucencyHigh},
		{65535, TranslucencyHigh},
	}
	for _, tc := range cases {
		if got := ClassifyTranslucency(tc.light); got != tc.want {
			t.Errorf("ClassifyTranslucency(%d) = %s, want %s", tc.light, got, tc.want)
		}
	}
}

func TestClassifySoundBoundaries(t *testing.T) {
	cases := []struct {
		sound uint16
		want  SoundBand
	}{
		{0, SoundLow},
		{1228, SoundLow},
		{1229, SoundMedium},
		{2866, SoundMedium},
		{2867, SoundHigh},
		{4095, SoundHigh},
		{65535, SoundHigh},
	}
	for _, tc := range cases {
		if got := ClassifySound(tc.sound); got != tc.want {
			t.Errorf("ClassifySound(%d) = %s, want %s", tc.sound, got, tc.want)
		}
	}
}

func TestBandsAtAlternateScale(t *testing.T) {
	// 10-bit board: 200/1023 is under 20%, 205/1023 is just over.
	if got := ClassifyTranslucencyAt(200, 1023); got != TranslucencyOpaque {
		t.Fatalf("expected opaque, got %s", got)
	}
	if got := ClassifyTranslucencyAt(205, 1023); got != TranslucencyMedium {
		t.Fatalf("expected medium, got %s", got)
	}
	if got := ClassifySoundAt(1000, 0); got != ClassifySound(1000) {
		t.Fatal("zero full scale should fall back to ResolutionMax")
	}
}

func TestDeriveBands(t *testing.T) {
	got := DeriveBands(AnalogObservation{LightLevel: 3800, SoundLevel: 3800, Aux1: 9, Aux2: 9})
	want := Bands{Translucency: TranslucencyHigh, Sound: SoundHigh}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("bands mismatch (-want +got):\n%s", diff)
	}
}

func TestBandTextRoundTrip(t *testing.T) {
	for _, b := range []TranslucencyBand{TranslucencyOpaque, TranslucencyMedium, TranslucencyHigh} {
		text, _ := b.MarshalText()
		var back TranslucencyBand
		if err := back.UnmarshalText(text); err != nil || back != b {
			t.Fatalf("translucency %s did not round trip: %v", b, err)
		}
	}
	var s SoundBand
	if err := s.UnmarshalText([]byte("loud")); err == nil {
		t.Fatal("expected error for unknown sound band")
	}
}

func TestDetectPresence(t *testing.T) {
	cases := []struct {
		d    DigitalObservation
		want bool
	}{
		{DigitalObservation{Capacitive: true, Motion: true}, true},
		{DigitalObservation{Capacitive: true}, false},
		{DigitalObservation{Motion: true}, false},
		{DigitalObservation{Inductive: true}, false},
	}
	for _, tc := range cases {
		if got := DetectPresence(tc.d); got != tc.want {
			t.Errorf("DetectPresence(%+v) = %v, want %v", tc.d, got, tc.want)
		}
	}
}

// #region frame-tests

func TestParseFrame(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	got, err := ParseFrame("ind=1 cap=1 pir=0 ldr=500 mic=3800 x1=7 x2=8 fill=12.5,30,8,-1 fw=2", now)
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	want := Snapshot{
		Digital:    DigitalObservation{Inductive: true, Capacitive: true},
		Analog:     AnalogObservation{LightLevel: 500, SoundLevel: 3800, Aux1: 7, Aux2: 8},
		Levels:     ContainerLevels{Metal: 12.5, Paper: 30, Plastic: 8, Glass: -1},
		CapturedAt: now,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFrameDefaults(t *testing.T) {
	got, err := ParseFrame("ind=0 cap=1 pir=1 ldr=1 mic=2", time.Time{})
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if got.Analog.Aux1 != 0 || got.Analog.Aux2 != 0 {
		t.Fatal("aux channels should default to zero")
	}
	if got.Levels.Metal != -1 || got.Levels.Glass != -1 {
		t.Fatalf("levels should default to -1, got %+v", got.Levels)
	}
}

func TestParseFrameErrors(t *testing.T) {
	cases := map[string]string{
		"missing key":  "ind=1 cap=1 ldr=5 mic=5",
		"bad token":    "ind=1 cap=1 pir=1 ldr=5 mic",
		"bad flag":     "ind=2 cap=1 pir=1 ldr=5 mic=5",
		"not numeric":  "ind=1 cap=1 pir=1 ldr=abc mic=5",
		"negative":     "ind=1 cap=1 pir=1 ldr=-1 mic=5",
		"overflow":     "ind=1 cap=1 pir=1 ldr=70000 mic=5",
		"short fill":   "ind=1 cap=1 pir=1 ldr=5 mic=5 fill=1,2,3",
		"bad fill val": "ind=1 cap=1 pir=1 ldr=5 mic=5 fill=1,2,x,4",
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFrame(line, time.Time{})
			if !errors.Is(err, ErrMalformedFrame) {
				t.Fatalf("expected ErrMalformedFrame, got %v", err)
			}
		})
	}
}

func TestFormatFrameRoundTrip(t *testing.T) {
	snap := Snapshot{
		Digital: DigitalObservation{Inductive: false, Capacitive: true, Motion: true},
		Analog:  AnalogObservation{LightLevel: 2000, SoundLevel: 1500, Aux1: 1, Aux2: 2},
		Levels:  ContainerLevels{Metal: 40.25, Paper: 3, Plastic: -1, Glass: 17},
	}
	back, err := ParseFrame(FormatFrame(snap), time.Time{})
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if diff := cmp.Diff(snap, back); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// #endregion frame-tests

// #region source-tests

func TestLineSource(t *testing.T) {
	input := strings.Join([]string{
		"# capture 2026-01-02",
		"",
		"ind=1 cap=1 pir=1 ldr=100 mic=3900",
		"garbage",
		"ind=0 cap=1 pir=1 ldr=3800 mic=3800",
	}, "\n")
	src := NewLineSource(strings.NewReader(input))
	ctx := context.Background()

	first, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("first frame: %v", err)
	}
	if !first.Digital.Inductive || first.Analog.LightLevel != 100 {
		t.Fatalf("unexpected first frame %+v", first)
	}
	if _, err := src.Next(ctx); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("expected malformed frame, got %v", err)
	}
	second, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("second frame: %v", err)
	}
	if second.Analog.LightLevel != 3800 {
		t.Fatalf("unexpected second frame %+v", second)
	}
	if _, err := src.Next(ctx); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestLineSourceCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	src := NewLineSource(pr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLineSourceSkipsOverlongLine(t *testing.T) {
	input := strings.Repeat("x", 70*1024) + "\n" +
		"ind=1 cap=1 pir=1 ldr=500 mic=3800\n" +
		strings.Repeat("y", MaxFrameLen+1)
	src := NewLineSource(strings.NewReader(input))
	ctx := context.Background()

	if _, err := src.Next(ctx); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("expected malformed frame for noise line, got %v", err)
	}
	snap, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("frame after noise: %v", err)
	}
	if snap.Analog.SoundLevel != 3800 {
		t.Fatalf("unexpected frame %+v", snap)
	}
	if _, err := src.Next(ctx); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("expected malformed frame for unterminated noise, got %v", err)
	}
	if _, err := src.Next(ctx); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestLineSourceFrameWithoutNewline(t *testing.T) {
	src := NewLineSource(strings.NewReader("ind=0 cap=1 pir=1 ldr=300 mic=200"))
	snap, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if snap.Analog.LightLevel != 300 {
		t.Fatalf("unexpected frame %+v", snap)
	}
}

func TestLineSourceCloseReleasesReader(t *testing.T) {
	pr, pw := io.Pipe()
	defer pr.Close()
	src := NewLineSource(pr)

	// one frame read, the next one left undelivered
	go func() {
		io.WriteString(pw, "ind=1 cap=1 pir=1 ldr=500 mic=3800\n")
		io.WriteString(pw, "ind=1 cap=1 pir=1 ldr=500 mic=3800\n")
		pw.Close()
	}()
	if _, err := src.Next(context.Background()); err != nil {
		t.Fatalf("Next: %v", err)
	}
	src.Close()
	src.Close()

	// after Close the reader stops handing over lines and the source ends
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("reader goroutine did not stop after Close")
		default:
		}
		if _, err := src.Next(context.Background()); err == io.EOF {
			return
		}
	}
}

func TestSliceSource(t *testing.T) {
	src := NewSliceSource(Snapshot{}, Snapshot{})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := src.Next(ctx); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
	}
	if _, err := src.Next(ctx); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

// #endregion source-tests

func TestPortOptionsNormalize(t *testing.T) {
	got, err := PortOptions{Parity: "even"}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := PortOptions{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: "E"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []PortOptions{{DataBits: 9}, {StopBits: 3}, {Parity: "mark"}} {
		if _, err := bad.Normalize(); err == nil {
			t.Errorf("expected error for %+v", bad)
		}
	}
}
