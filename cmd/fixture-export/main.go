package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/smartwaste/go-controller/internal/logging"
	"github.com/smartwaste/go-controller/internal/replay"
	"github.com/smartwaste/go-controller/internal/stats"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to smartwaste.db")
	last := flag.Int("last", 20, "number of most recent deposit cycles to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/db --out path/to/fixture.json [--last N]")
		os.Exit(2)
	}

	if err := run(*dbPath, *last, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(dbPath string, last int, outPath string) error {
	store, err := stats.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	rows, err := logging.ListDecisions(store.DB(), logging.TriggerDepositCycle, last)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no decision records found in last %d deposit cycles", last)
	}
	fmt.Printf("Found %d decision records\n", len(rows))

	// Thresholds come from the first record; a session spans one config.
	config := replay.ConfigFromRecord(rows[0].Record)
	desc := fmt.Sprintf("Bin session export: %d deposit cycles from %s", len(rows), rows[0].CreatedAt.Format("2006-01-02"))
	fixture := replay.FixtureFromDecisions(desc, rows, config)

	if err := replay.WriteFixture(outPath, fixture); err != nil {
		return err
	}
	fmt.Printf("Wrote fixture to %s (%d deposits)\n", outPath, len(fixture.Deposits))
	return nil
}

// #endregion export
