package actuator

import (
	"errors"
	"time"
)

// ErrInvalidMaterial is returned when asked to route a non-sortable material.
var ErrInvalidMaterial = errors.New("material has no container")

// #region servos
// Servo identifies one PWM channel on the actuator board.
type Servo int

const (
	ServoPlatform   Servo = 1
	ServoMetalLid   Servo = 2
	ServoPaperLid   Servo = 3
	ServoPlasticLid Servo = 4
	ServoGlassLid   Servo = 5
)

// Servos lists every channel in board order.
var Servos = []Servo{ServoPlatform, ServoMetalLid, ServoPaperLid, ServoPlasticLid, ServoGlassLid}

func (s Servo) String() string {
	switch s {
	case ServoPlatform:
		return "platform"
	case ServoMetalLid:
		return "metal-lid"
	case ServoPaperLid:
		return "paper-lid"
	case ServoPlasticLid:
		return "plastic-lid"
	case ServoGlassLid:
		return "glass-lid"
	}
	return "servo?"
}

// #endregion servos

// #region angles
// Platform tilt and lid angles in degrees.
const (
	PlatformRest    = 90
	PlatformMetal   = 45
	PlatformPaper   = 135
	PlatformPlastic = 0
	PlatformGlass   = 180

	LidClosed = 0
	LidOpen   = 90
)

// Pulse width bounds in microseconds for 0 and 180 degrees.
const (
	MinPulseMicros = 1000
	MaxPulseMicros = 2000
)

// #endregion angles

// #region timings
// Timings are the settle waits after each step of the deposit sequence.
type Timings struct {
	Open   time.Duration `toml:"open"`
	Tilt   time.Duration `toml:"tilt"`
	Drop   time.Duration `toml:"drop"`
	Close  time.Duration `toml:"close"`
	Settle time.Duration `toml:"settle"`
}

// DefaultTimings returns the timings tuned for the reference servos.
func DefaultTimings() Timings {
	return Timings{
		Open:   500 * time.Millisecond,
		Tilt:   1000 * time.Millisecond,
		Drop:   2000 * time.Millisecond,
		Close:  500 * time.Millisecond,
		Settle: 1000 * time.Millisecond,
	}
}

// #endregion timings

// #region status
// Status is the last commanded angle of every servo.
type Status struct {
	Platform   int `json:"platform"`
	MetalLid   int `json:"metal_lid"`
	PaperLid   int `json:"paper_lid"`
	PlasticLid int `json:"plastic_lid"`
	GlassLid   int `json:"glass_lid"`
}

// #endregion status
