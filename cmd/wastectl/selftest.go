package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/smartwaste/go-controller/internal/actuator"
	"github.com/smartwaste/go-controller/internal/sensor"
)

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Sweep every servo and report where each one was left",
	Long: `Selftest moves the platform and each lid through 0, 90 and 180 degrees and
then back to rest. Without --port the commands are only logged`,
	Args: cobra.NoArgs,
	RunE: runSelfTest,
}

func init() {
	selftestCmd.Flags().String("port", "", "actuator board serial port")
	selftestCmd.Flags().Int("baud", 0, "serial baud rate (115200 when 0)")
}

func runSelfTest(cmd *cobra.Command, args []string) error {
	tuning, err := loadTuning(cmd)
	if err != nil {
		return err
	}

	var driver actuator.Driver = actuator.LogDriver{}
	portPath, _ := cmd.Flags().GetString("port")
	if portPath != "" {
		baud, _ := cmd.Flags().GetInt("baud")
		port, err := sensor.OpenSerial(portPath, sensor.PortOptions{BaudRate: baud})
		if err != nil {
			return err
		}
		defer port.Close()
		driver = actuator.NewSerialDriver(port)
	}
	return selfTest(cmd.Context(), actuator.NewController(driver, tuning.Timings), os.Stdout)
}

// selfTest sweeps the servos and prints the angles they were left at.
func selfTest(ctx context.Context, act *actuator.Controller, w io.Writer) error {
	if err := act.SelfTest(ctx); err != nil {
		return fmt.Errorf("servo self test: %w", err)
	}
	s := act.Status()
	fmt.Fprintln(w, "Servo self test passed")
	fmt.Fprintf(w, "  Platform:    %3d°\n", s.Platform)
	fmt.Fprintf(w, "  Metal lid:   %3d°\n", s.MetalLid)
	fmt.Fprintf(w, "  Paper lid:   %3d°\n", s.PaperLid)
	fmt.Fprintf(w, "  Plastic lid: %3d°\n", s.PlasticLid)
	fmt.Fprintf(w, "  Glass lid:   %3d°\n", s.GlassLid)
	return nil
}
