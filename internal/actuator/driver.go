package actuator

import (
	"fmt"
	"io"
	"log"
	"sync"
)

// #region driver
// Driver sets the pulse width of one servo channel.
type Driver interface {
	SetPulse(s Servo, pulseMicros int) error
}

// LogDriver only logs commands; used when no actuator board is attached.
type LogDriver struct{}

func (LogDriver) SetPulse(s Servo, pulseMicros int) error {
	log.Printf("Actuator: %s -> %d us", s, pulseMicros)
	return nil
}

// SerialDriver writes "SRV <id> <pulse>" command lines to the actuator
// board, typically the same UART the sensor frames arrive on.
type SerialDriver struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSerialDriver creates a driver writing to w.
func NewSerialDriver(w io.Writer) *SerialDriver {
	return &SerialDriver{w: w}
}

func (d *SerialDriver) SetPulse(s Servo, pulseMicros int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := fmt.Fprintf(d.w, "SRV %d %d\n", int(s), pulseMicros); err != nil {
		return fmt.Errorf("write servo command: %w", err)
	}
	return nil
}

// #endregion driver
