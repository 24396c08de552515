package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smartwaste/go-controller/internal/config"
)

var tuningCmd = &cobra.Command{
	Use:   "tuning",
	Short: "Print the effective tuning as TOML",
	Long: `Tuning prints the tuning in effect, the factory values or the --tuning file
merged over them. Use --check to only validate the file`,
	Args: cobra.NoArgs,
	RunE: runTuning,
}

func init() {
	tuningCmd.Flags().Bool("check", false, "validate only")
}

func runTuning(cmd *cobra.Command, args []string) error {
	tuning, err := loadTuning(cmd)
	if err != nil {
		return err
	}
	if err := tuning.Validate(); err != nil {
		return fmt.Errorf("invalid tuning: %w", err)
	}
	if check, _ := cmd.Flags().GetBool("check"); check {
		fmt.Println("tuning ok")
		return nil
	}
	return config.WriteTuning(os.Stdout, tuning)
}
