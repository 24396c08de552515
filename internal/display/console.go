package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/smartwaste/go-controller/internal/classifier"
	"github.com/smartwaste/go-controller/internal/sensor"
	"github.com/smartwaste/go-controller/internal/stats"
)

const bannerWidth = 58

// #region console
// Console renders operator feedback as text on w and keeps the state of
// the panel (LCD text and lit LED) for callers that mirror it to hardware.
type Console struct {
	mu  sync.Mutex
	w   io.Writer
	lcd LCD
	led Indicator

	title *color.Color
	ok    *color.Color
	fail  *color.Color
	info  *color.Color
}

// NewConsole creates a console writing to w. When plain is set no ANSI
// colour codes are written regardless of the terminal.
func NewConsole(w io.Writer, plain bool) *Console {
	c := &Console{
		w:     w,
		led:   IndicatorSystem,
		title: color.New(color.FgCyan, color.Bold),
		ok:    color.New(color.FgGreen, color.Bold),
		fail:  color.New(color.FgRed, color.Bold),
		info:  color.New(color.FgYellow),
	}
	if plain {
		for _, col := range []*color.Color{c.title, c.ok, c.fail, c.info} {
			col.DisableColor()
		}
	}
	return c
}

// LCD returns the text currently on the panel.
func (c *Console) LCD() LCD {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lcd
}

// LED returns the indicator currently lit.
func (c *Console) LED() Indicator {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.led
}

// Welcome prints the start-up banner.
func (c *Console) Welcome() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.banner("SMART WASTE SORTER", "system ready")
	c.setLCD("Smart Waste", "Sorter Ready")
	c.led = IndicatorSystem
}

// Detecting announces that an item is being sampled.
func (c *Console) Detecting() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info.Fprintln(c.w, "Detecting material...")
	c.setLCD("Detecting...", "Material")
}

// Result shows a classification outcome.
func (c *Console) Result(r classifier.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r.Valid {
		c.ok.Fprintf(c.w, "✓ Material identified: %s (%.1f%% confidence)\n", r.Description, r.Confidence)
		c.setLCD(r.Description, fmt.Sprintf("%.0f%%", r.Confidence))
		c.led = LEDFor(r.Material)
		return
	}
	c.fail.Fprintln(c.w, "✗ Material could not be identified")
	c.setLCD("Unknown", "Try again")
	c.led = IndicatorError
}

// Error shows an operator-facing error.
func (c *Console) Error(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail.Fprintf(c.w, "Error: %s\n", msg)
	c.setLCD("Error", msg)
	c.led = IndicatorError
}

// Statistics prints the usage counters.
func (c *Console) Statistics(s stats.Counters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.banner("STATISTICS", "")
	fmt.Fprintf(c.w, "  Total: %d | Metal: %d | Paper: %d\n", s.Total, s.Metal, s.Paper)
	fmt.Fprintf(c.w, "  Plastic: %d | Glass: %d | Errors: %d\n", s.Plastic, s.Glass, s.Errors)
	fmt.Fprintf(c.w, "  Average confidence: %.1f%%\n", s.AvgConfidence)
	c.setLCD(fmt.Sprintf("Total: %d", s.Total), fmt.Sprintf("Conf: %.0f%%", s.AvgConfidence))
}

// ContainerLevels prints the fill distance of each container. Timed-out
// echoes are shown as "--".
func (c *Console) ContainerLevels(l sensor.ContainerLevels) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.banner("CONTAINER LEVELS", "")
	fmt.Fprintf(c.w, "  Metal:   %s\n", distance(l.Metal, "%.1f cm"))
	fmt.Fprintf(c.w, "  Paper:   %s\n", distance(l.Paper, "%.1f cm"))
	fmt.Fprintf(c.w, "  Plastic: %s\n", distance(l.Plastic, "%.1f cm"))
	fmt.Fprintf(c.w, "  Glass:   %s\n", distance(l.Glass, "%.1f cm"))
	c.setLCD(
		fmt.Sprintf("M:%s P:%s", distance(l.Metal, "%.0f"), distance(l.Paper, "%.0f")),
		fmt.Sprintf("Pl:%s G:%s", distance(l.Plastic, "%.0f"), distance(l.Glass, "%.0f")),
	)
}

// #endregion console

// #region helpers
// banner writes a boxed title. Caller holds c.mu.
func (c *Console) banner(title, subtitle string) {
	rule := strings.Repeat("═", bannerWidth)
	c.title.Fprintf(c.w, "╔%s╗\n", rule)
	c.title.Fprintf(c.w, "║%s║\n", center(title, bannerWidth))
	if subtitle != "" {
		c.title.Fprintf(c.w, "║%s║\n", center(subtitle, bannerWidth))
	}
	c.title.Fprintf(c.w, "╚%s╝\n", rule)
}

// setLCD updates the panel and echoes it. Caller holds c.mu.
func (c *Console) setLCD(line1, line2 string) {
	c.lcd = NewLCD(line1, line2)
	fmt.Fprintf(c.w, "LCD: %s\n", c.lcd)
}

func center(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

func distance(cm float64, format string) string {
	if cm < 0 {
		return "--"
	}
	return fmt.Sprintf(format, cm)
}

// #endregion helpers
