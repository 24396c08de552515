package stats

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/smartwaste/go-controller/internal/classifier"
)

// WriteReport prints the counters with each material's share of the total.
func WriteReport(w io.Writer, c Counters) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Total classified:\t%d\t\n", c.Total)
	fmt.Fprintf(tw, "Errors:\t%d\t\n", c.Errors)
	fmt.Fprintf(tw, "Average confidence:\t%.1f%%\t(over %d valid)\t\n", c.AvgConfidence, c.Valid)
	fmt.Fprintf(tw, "Operating hours:\t%.1f\t\n", c.OperatingHours)
	for _, m := range classifier.Concrete {
		fmt.Fprintf(tw, "%s:\t%d\t(%5.1f%%)\t\n", m.Description(), c.Count(m), c.Share(m))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
