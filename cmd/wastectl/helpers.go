package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartwaste/go-controller/internal/config"
)

// loadTuning reads the --tuning file, or returns the factory tuning.
func loadTuning(cmd *cobra.Command) (config.Tuning, error) {
	path, err := cmd.Root().PersistentFlags().GetString("tuning")
	if err != nil {
		return config.Tuning{}, fmt.Errorf("failed to get tuning flag: %w", err)
	}
	if path == "" {
		return config.DefaultTuning(), nil
	}
	return config.LoadTuning(path)
}

func plainOutput(cmd *cobra.Command) bool {
	plain, _ := cmd.Root().PersistentFlags().GetBool("plain")
	return plain
}
