package sensor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fortio.org/safecast"
)

// ErrMalformedFrame is returned for sensor lines that cannot be decoded.
var ErrMalformedFrame = errors.New("malformed sensor frame")

// #region frame-keys
// Frame keys emitted by the microcontroller, one key=value pair per field:
//
//	ind=1 cap=1 pir=1 ldr=500 mic=3800 x1=0 x2=0 fill=12.5,30.0,8.0,40.2
//
// fill is optional; when absent every container level is reported as -1.
const (
	keyInductive  = "ind"
	keyCapacitive = "cap"
	keyMotion     = "pir"
	keyLight      = "ldr"
	keySound      = "mic"
	keyAux1       = "x1"
	keyAux2       = "x2"
	keyFill       = "fill"
)

var requiredKeys = []string{keyInductive, keyCapacitive, keyMotion, keyLight, keySound}

// #endregion frame-keys

// #region parse-frame

// ParseFrame decodes one sensor line into a Snapshot stamped with now.
// Unknown keys are ignored so firmware can add channels without breaking
// older controllers.
func ParseFrame(line string, now time.Time) (Snapshot, error) {
	fields := make(map[string]string)
	for _, tok := range strings.Fields(line) {
		k, v, ok := strings.Cut(tok, "=")
		if !ok || k == "" {
			return Snapshot{}, fmt.Errorf("%w: token %q", ErrMalformedFrame, tok)
		}
		fields[k] = v
	}
	for _, k := range requiredKeys {
		if _, ok := fields[k]; !ok {
			return Snapshot{}, fmt.Errorf("%w: missing %s", ErrMalformedFrame, k)
		}
	}

	snap := Snapshot{
		CapturedAt: now,
		Levels:     ContainerLevels{Metal: -1, Paper: -1, Plastic: -1, Glass: -1},
	}
	var err error
	if snap.Digital.Inductive, err = parseFlag(keyInductive, fields[keyInductive]); err != nil {
		return Snapshot{}, err
	}
	if snap.Digital.Capacitive, err = parseFlag(keyCapacitive, fields[keyCapacitive]); err != nil {
		return Snapshot{}, err
	}
	if snap.Digital.Motion, err = parseFlag(keyMotion, fields[keyMotion]); err != nil {
		return Snapshot{}, err
	}
	if snap.Analog.LightLevel, err = parseReading(keyLight, fields[keyLight]); err != nil {
		return Snapshot{}, err
	}
	if snap.Analog.SoundLevel, err = parseReading(keySound, fields[keySound]); err != nil {
		return Snapshot{}, err
	}
	if v, ok := fields[keyAux1]; ok {
		if snap.Analog.Aux1, err = parseReading(keyAux1, v); err != nil {
			return Snapshot{}, err
		}
	}
	if v, ok := fields[keyAux2]; ok {
		if snap.Analog.Aux2, err = parseReading(keyAux2, v); err != nil {
			return Snapshot{}, err
		}
	}
	if v, ok := fields[keyFill]; ok {
		if snap.Levels, err = parseLevels(v); err != nil {
			return Snapshot{}, err
		}
	}
	return snap, nil
}

// #endregion parse-frame

// #region format-frame

// FormatFrame renders a Snapshot in the line format ParseFrame accepts.
func FormatFrame(s Snapshot) string {
	return fmt.Sprintf("%s=%s %s=%s %s=%s %s=%d %s=%d %s=%d %s=%d %s=%s,%s,%s,%s",
		keyInductive, flag(s.Digital.Inductive),
		keyCapacitive, flag(s.Digital.Capacitive),
		keyMotion, flag(s.Digital.Motion),
		keyLight, s.Analog.LightLevel,
		keySound, s.Analog.SoundLevel,
		keyAux1, s.Analog.Aux1,
		keyAux2, s.Analog.Aux2,
		keyFill,
		level(s.Levels.Metal), level(s.Levels.Paper), level(s.Levels.Plastic), level(s.Levels.Glass),
	)
}

// #endregion format-frame

// #region helpers
func parseFlag(key, v string) (bool, error) {
	switch v {
	case "1", "true", "H":
		return true, nil
	case "0", "false", "L":
		return false, nil
	}
	return false, fmt.Errorf("%w: %s=%q is not a flag", ErrMalformedFrame, key, v)
}

func parseReading(key, v string) (uint16, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", ErrMalformedFrame, key, v, err)
	}
	r, err := safecast.Conv[uint16](n)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%d out of range: %v", ErrMalformedFrame, key, n, err)
	}
	return r, nil
}

func parseLevels(v string) (ContainerLevels, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return ContainerLevels{}, fmt.Errorf("%w: fill needs 4 values, got %d", ErrMalformedFrame, len(parts))
	}
	var vals [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return ContainerLevels{}, fmt.Errorf("%w: fill[%d]=%q: %v", ErrMalformedFrame, i, p, err)
		}
		vals[i] = f
	}
	return ContainerLevels{Metal: vals[0], Paper: vals[1], Plastic: vals[2], Glass: vals[3]}, nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func level(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// #endregion helpers
