package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wastectl",
	Short: "Smart waste bin operator tool",
	Long:  `wastectl classifies sensor readings offline, prints the decision table and tuning, tests the servos, and queries a running controller`,
}

func main() {
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(tableCmd)
	rootCmd.AddCommand(tuningCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(selftestCmd)

	rootCmd.PersistentFlags().String("tuning", "", "tuning TOML file (defaults when empty)")
	rootCmd.PersistentFlags().Bool("plain", false, "disable colored output")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
