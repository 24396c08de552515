package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartwaste/go-controller/internal/display"
	"github.com/smartwaste/go-controller/internal/rpc"
	"github.com/smartwaste/go-controller/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show usage counters from a running controller or a database",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().String("remote", "", "controller gRPC address host:port")
	statsCmd.Flags().String("db", "", "path to smartwaste.db")
	statsCmd.Flags().Bool("reset", false, "zero the counters stored in --db")
}

func runStats(cmd *cobra.Command, args []string) error {
	remote, _ := cmd.Flags().GetString("remote")
	dbPath, _ := cmd.Flags().GetString("db")
	reset, _ := cmd.Flags().GetBool("reset")
	if reset && dbPath == "" {
		return fmt.Errorf("--reset requires --db")
	}

	var counters stats.Counters
	switch {
	case remote != "":
		client, err := rpc.NewClient(remote)
		if err != nil {
			return err
		}
		defer client.Close()
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		if counters, err = client.Stats(ctx); err != nil {
			return fmt.Errorf("remote stats: %w", err)
		}
	case dbPath != "":
		store, err := stats.NewStore(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if reset {
			prev, err := resetCounters(store)
			if err != nil {
				return err
			}
			fmt.Printf("Counters reset (%d items were counted)\n", prev.Total)
			return nil
		}
		c, ok, err := store.Load()
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no counters stored in %s", dbPath)
		}
		counters = c
	default:
		return fmt.Errorf("one of --remote or --db is required")
	}

	display.NewConsole(os.Stdout, plainOutput(cmd)).Statistics(counters)
	fmt.Println()
	return stats.WriteReport(os.Stdout, counters)
}

// resetCounters zeroes the persisted counters and returns the ones that
// were stored before.
func resetCounters(p stats.Persister) (stats.Counters, error) {
	tracker := stats.NewTracker(p, 0)
	if err := tracker.Load(); err != nil {
		return stats.Counters{}, err
	}
	prev := tracker.Snapshot()
	if err := tracker.Reset(); err != nil {
		return prev, err
	}
	return prev, nil
}
