package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/smartwaste/go-controller/internal/classifier"
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Print the material decision table and thresholds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tuning, err := loadTuning(cmd)
		if err != nil {
			return err
		}
		return classifier.WriteTruthTable(os.Stdout, tuning.Classifier)
	},
}
