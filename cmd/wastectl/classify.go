package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartwaste/go-controller/internal/classifier"
	"github.com/smartwaste/go-controller/internal/display"
	"github.com/smartwaste/go-controller/internal/gate"
	"github.com/smartwaste/go-controller/internal/rpc"
	"github.com/smartwaste/go-controller/internal/sensor"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [flags] [frame]",
	Short: "Classify one set of sensor readings",
	Long: `Classify runs the classifier and gate on a single reading, given either as a
frame line ("ind=1 cap=1 pir=1 ldr=500 mic=3800 fill=...") or through flags`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().Bool("ind", false, "inductive sensor triggered")
	classifyCmd.Flags().Bool("cap", true, "capacitive sensor triggered")
	classifyCmd.Flags().Uint16("ldr", 0, "raw light level")
	classifyCmd.Flags().Uint16("mic", 0, "raw sound level")
	classifyCmd.Flags().String("remote", "", "classify on a running controller at host:port")
	classifyCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type classifyOutput struct {
	Result   classifier.Result  `json:"result"`
	Decision *gate.GateDecision `json:"decision,omitempty"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	snap, err := readingFromArgs(cmd, args)
	if err != nil {
		return err
	}
	tuning, err := loadTuning(cmd)
	if err != nil {
		return err
	}

	var out classifyOutput
	remote, _ := cmd.Flags().GetString("remote")
	if remote != "" {
		client, err := rpc.NewClient(remote)
		if err != nil {
			return err
		}
		defer client.Close()
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		if out.Result, err = client.Classify(ctx, snap.Digital, snap.Analog); err != nil {
			return fmt.Errorf("remote classify: %w", err)
		}
	} else {
		out.Result = classifier.NewClassifier(tuning.Classifier).Classify(snap.Digital, snap.Analog)
		d := gate.NewGate(tuning.Gate).Evaluate(out.Result, snap.Levels)
		out.Decision = &d
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		fmt.Println(string(data))
	case "pretty":
		console := display.NewConsole(os.Stdout, plainOutput(cmd))
		if len(args) == 1 {
			console.ContainerLevels(snap.Levels)
		}
		console.Result(out.Result)
		fmt.Printf("Bands: %s / %s, matches %d, %s confidence\n",
			out.Result.Bands.Translucency, out.Result.Bands.Sound, out.Result.Matches,
			classifier.ConfidenceLevel(out.Result.Confidence))
		if out.Decision != nil {
			fmt.Printf("Gate: %s (%s)\n", out.Decision.Action, out.Decision.Reason)
		}
		printPanel(os.Stdout, console)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}

// readingFromArgs parses a frame argument, or builds a snapshot from the
// sensor flags with every container empty.
func readingFromArgs(cmd *cobra.Command, args []string) (sensor.Snapshot, error) {
	if len(args) == 1 {
		return sensor.ParseFrame(args[0], time.Now())
	}
	ind, _ := cmd.Flags().GetBool("ind")
	capacitive, _ := cmd.Flags().GetBool("cap")
	ldr, _ := cmd.Flags().GetUint16("ldr")
	mic, _ := cmd.Flags().GetUint16("mic")
	return sensor.Snapshot{
		Digital: sensor.DigitalObservation{Inductive: ind, Capacitive: capacitive, Motion: true},
		Analog:  sensor.AnalogObservation{LightLevel: ldr, SoundLevel: mic},
		Levels:  sensor.ContainerLevels{Metal: -1, Paper: -1, Plastic: -1, Glass: -1},
	}, nil
}

// printPanel shows what the bin's front panel would display.
func printPanel(w io.Writer, c *display.Console) {
	lcd := c.LCD()
	fmt.Fprintf(w, "LCD: [%-16s] [%-16s]\n", lcd.Line1, lcd.Line2)
	fmt.Fprintf(w, "LED: %s\n", c.LED())
}
