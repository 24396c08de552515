package main

import (
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/smartwaste/go-controller/internal/classifier"
	"github.com/smartwaste/go-controller/internal/eval"
	"github.com/smartwaste/go-controller/internal/logging"
	"github.com/smartwaste/go-controller/internal/replay"
	"github.com/smartwaste/go-controller/internal/stats"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to smartwaste.db (DB mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	last := flag.Int("last", 100, "number of most recent logged cycles to replay (DB mode)")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/smartwaste.db [--last N]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath)
	} else {
		exitCode = runDBMode(*dbPath, *last)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region db-mode

// runDBMode replays logged cycles under the thresholds recorded with the
// first of them and checks the decisions are reproduced.
func runDBMode(dbPath string, last int) int {
	store, err := stats.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	rows, err := logging.ListDecisions(store.DB(), logging.TriggerDepositCycle, last)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list decisions: %v\n", err)
		return 2
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stderr, "no deposit_cycle entries found in decision_log")
		return 2
	}

	config := replay.ConfigFromRecord(rows[0].Record)
	f := replay.FixtureFromDecisions("db replay", rows, config)
	results := replay.Replay(f.ToDeposits(), config)

	expected := make([]string, len(rows))
	for i, r := range rows {
		expected[i] = r.Decision
	}
	code := printComparison(results, expected)
	printSummary(replay.Summarize(results))
	return code
}

// #endregion db-mode

// #region fixture-mode

func runFixtureMode(path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	results := replay.Replay(f.ToDeposits(), f.Config.ToReplayConfig())

	expected := make([]string, len(f.ExpectedResults))
	for i, e := range f.ExpectedResults {
		expected[i] = e.Action
	}
	code := printComparison(results, expected)
	printSummary(replay.Summarize(results))

	samples := f.EvalSamples(results)
	if len(samples) == 0 {
		return code
	}
	er := eval.NewEvalHarness(eval.DefaultEvalConfig()).Run(samples)
	fmt.Println()
	if err := eval.WriteReport(os.Stdout, er); err != nil {
		fmt.Fprintf(os.Stderr, "write report: %v\n", err)
		return 2
	}
	if !er.Passed && code == 0 {
		code = 1
	}
	return code
}

// #endregion fixture-mode

// #region output

// printComparison outputs a comparison table and returns exit code.
// expected holds the reference actions (from DB or fixture).
func printComparison(results []replay.ReplayResult, expected []string) int {
	fmt.Printf("%-12s| %-10s| %-10s| %-10s| %s\n", "Deposit", "Expected", "Replayed", "Material", "Match")
	fmt.Printf("%-12s+%-11s+%-11s+%-11s+%s\n",
		"------------", "-----------", "-----------", "-----------", "------")

	matches := 0
	total := min(len(results), len(expected))

	for i := 0; i < total; i++ {
		exp := expected[i]
		got := results[i].Action
		match := "DIFF"
		if exp == got {
			match = "OK"
			matches++
		}
		fmt.Printf("%-12s| %-10s| %-10s| %-10s| %s\n",
			shortID(results[i].ID), exp, got, results[i].Result.Material, match)
	}

	diverge := total - matches
	fmt.Printf("\nSummary: %d total, %d match, %d diverge\n", total, matches, diverge)

	if diverge > 0 {
		return 1
	}
	return 0
}

func printSummary(s replay.ReplaySummary) {
	fmt.Printf("Deposited %d, rejected %d, confidence %.1f ± %.1f\n",
		s.Deposits, s.Rejects, s.ConfidenceMean, s.ConfidenceStdDev)
	materials := make([]classifier.Material, 0, len(s.PerMaterial))
	for m := range s.PerMaterial {
		materials = append(materials, m)
	}
	slices.Sort(materials)
	for _, m := range materials {
		fmt.Printf("  %-8s %d\n", m, s.PerMaterial[m])
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// #endregion output
