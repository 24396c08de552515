package actuator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/smartwaste/go-controller/internal/classifier"
)

// AngleToPulse converts an angle to a servo pulse width. Angles above 180
// are clamped.
func AngleToPulse(angle int) int {
	if angle < 0 {
		angle = 0
	}
	if angle > 180 {
		angle = 180
	}
	return MinPulseMicros + angle*(MaxPulseMicros-MinPulseMicros)/180
}

// #region controller
// Controller drives the platform and lids through a Driver. Calls are
// serialised; only one deposit sequence runs at a time.
type Controller struct {
	driver  Driver
	timings Timings

	mu     sync.Mutex
	angles map[Servo]int
}

// NewController creates a controller. The servos are not moved until Rest
// or Deposit is called.
func NewController(driver Driver, timings Timings) *Controller {
	angles := map[Servo]int{ServoPlatform: PlatformRest}
	for _, s := range Servos[1:] {
		angles[s] = LidClosed
	}
	return &Controller{driver: driver, timings: timings, angles: angles}
}

// Rest levels the platform and closes every lid.
func (c *Controller) Rest(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.move(ServoPlatform, PlatformRest); err != nil {
		return err
	}
	for _, s := range Servos[1:] {
		if err := c.move(s, LidClosed); err != nil {
			return err
		}
	}
	return wait(ctx, c.timings.Settle)
}

// Deposit routes an item: tilt the platform towards the container, open the
// lid, wait for the drop, close the lid and level the platform.
func (c *Controller) Deposit(ctx context.Context, m classifier.Material) error {
	tilt, lid, ok := route(m)
	if !ok {
		return fmt.Errorf("deposit %s: %w", m, ErrInvalidMaterial)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	log.Printf("Actuator: depositing %s", m)
	steps := []struct {
		servo Servo
		angle int
		after time.Duration
	}{
		{ServoPlatform, tilt, c.timings.Tilt},
		{lid, LidOpen, c.timings.Open + c.timings.Drop},
		{lid, LidClosed, c.timings.Close},
		{ServoPlatform, PlatformRest, c.timings.Tilt},
	}
	for _, step := range steps {
		if err := c.move(step.servo, step.angle); err != nil {
			return fmt.Errorf("deposit %s: %w", m, err)
		}
		if err := wait(ctx, step.after); err != nil {
			// leave the bin safe even when interrupted mid-sequence
			c.restoreAfterAbort(m, lid)
			return fmt.Errorf("deposit %s: %w", m, err)
		}
	}
	return nil
}

// SelfTest sweeps each servo through 0, 90 and 180 degrees, then rests.
func (c *Controller) SelfTest(ctx context.Context) error {
	c.mu.Lock()
	for _, s := range Servos {
		for _, angle := range []int{0, 90, 180, 90} {
			if err := c.move(s, angle); err != nil {
				c.mu.Unlock()
				return fmt.Errorf("self test %s: %w", s, err)
			}
			if err := wait(ctx, c.timings.Settle); err != nil {
				c.mu.Unlock()
				return err
			}
		}
	}
	c.mu.Unlock()
	return c.Rest(ctx)
}

// Status returns the last commanded angles.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Platform:   c.angles[ServoPlatform],
		MetalLid:   c.angles[ServoMetalLid],
		PaperLid:   c.angles[ServoPaperLid],
		PlasticLid: c.angles[ServoPlasticLid],
		GlassLid:   c.angles[ServoGlassLid],
	}
}

func (c *Controller) move(s Servo, angle int) error {
	if err := c.driver.SetPulse(s, AngleToPulse(angle)); err != nil {
		return fmt.Errorf("move %s to %d: %w", s, angle, err)
	}
	c.angles[s] = angle
	return nil
}

func (c *Controller) restoreAfterAbort(m classifier.Material, lid Servo) {
	if err := c.move(lid, LidClosed); err != nil {
		log.Printf("Actuator: close %s lid after abort: %v", m, err)
	}
	if err := c.move(ServoPlatform, PlatformRest); err != nil {
		log.Printf("Actuator: level platform after abort: %v", err)
	}
}

// #endregion controller

// #region helpers
func route(m classifier.Material) (tilt int, lid Servo, ok bool) {
	switch m {
	case classifier.MaterialMetal:
		return PlatformMetal, ServoMetalLid, true
	case classifier.MaterialPaper:
		return PlatformPaper, ServoPaperLid, true
	case classifier.MaterialPlastic:
		return PlatformPlastic, ServoPlasticLid, true
	case classifier.MaterialGlass:
		return PlatformGlass, ServoGlassLid, true
	}
	return 0, 0, false
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// #endregion helpers
