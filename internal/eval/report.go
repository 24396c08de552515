package eval

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/smartwaste/go-controller/internal/classifier"
)

// WriteReport prints the metrics and confusion matrix of r.
func WriteReport(w io.Writer, r EvalResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	status := "PASS"
	if !r.Passed {
		status = "FAIL"
	}
	fmt.Fprintf(tw, "eval\t%s\t%s\t\n", status, r.Reason)
	fmt.Fprintf(tw, "labelled\t%d\t\t\n", r.Labelled)
	for _, m := range r.Metrics {
		fmt.Fprintf(tw, "%s\t%.3f\t%t\t\n", m.Name, m.Value, m.Pass)
	}
	fmt.Fprintln(tw, "\t\t\t")

	fmt.Fprint(tw, "label \\ got\t")
	for _, m := range classifier.Concrete {
		fmt.Fprintf(tw, "%s\t", m)
	}
	fmt.Fprintf(tw, "%s\t\n", classifier.MaterialUnknown)
	if r.Confusion != nil {
		rows, cols := r.Confusion.Dims()
		for i := 0; i < rows; i++ {
			fmt.Fprintf(tw, "%s\t", classifier.Concrete[i])
			for j := 0; j < cols; j++ {
				fmt.Fprintf(tw, "%.0f\t", r.Confusion.At(i, j))
			}
			fmt.Fprintln(tw)
		}
	}
	return tw.Flush()
}
