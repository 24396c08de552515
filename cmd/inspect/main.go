package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/smartwaste/go-controller/internal/logging"
	"github.com/smartwaste/go-controller/internal/stats"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to smartwaste.db")
	last := flag.Int("last", 20, "show N most recent deposit events")
	event := flag.String("event", "", "show single event detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/smartwaste.db [--last N] [--event id] [--json]")
		os.Exit(2)
	}

	store, err := stats.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *event != "" {
		err = runDetailMode(store, *event, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listOutput struct {
	Counters stats.Counters        `json:"counters"`
	Totals   []stats.MaterialTotal `json:"totals"`
	Events   []stats.DepositEvent  `json:"events"`
}

func runListMode(store *stats.Store, last int, jsonOut bool) error {
	counters, ok, err := store.Load()
	if err != nil {
		return err
	}
	totals, err := store.MaterialTotals()
	if err != nil {
		return err
	}
	events, err := store.ListEvents(last)
	if err != nil {
		return err
	}

	// store returns newest first, reverse for chronological
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}

	if jsonOut {
		return printJSON(listOutput{Counters: counters, Totals: totals, Events: events})
	}

	if ok {
		fmt.Println("Counters:")
		if err := stats.WriteReport(os.Stdout, counters); err != nil {
			return err
		}
	} else {
		fmt.Println("Counters: none stored")
	}

	if len(totals) > 0 {
		fmt.Printf("\n%-10s  %-8s  %6s  %8s\n", "Material", "Action", "Count", "Avg Conf")
		for _, t := range totals {
			fmt.Printf("%-10s  %-8s  %6d  %7.1f%%\n", t.Material, t.Action, t.Count, t.AvgConfidence)
		}
	}

	if len(events) == 0 {
		fmt.Fprintln(os.Stderr, "\nno events found")
		return nil
	}
	fmt.Printf("\n%-8s  %-10s  %6s  %-8s  %5s  %5s  %s\n",
		"Event", "Material", "Conf", "Action", "LDR", "MIC", "Time")
	fmt.Printf("%-8s+-%-10s+-%6s+-%-8s+-%5s+-%5s+-%s\n",
		"--------", "----------", "------", "--------", "-----", "-----", "--------------------")
	for _, ev := range events {
		fmt.Printf("%-8s  %-10s  %6.1f  %-8s  %5d  %5d  %s\n",
			shortID(ev.EventID), ev.Material, ev.Confidence, ev.Action, ev.Light, ev.Sound,
			ev.CreatedAt.Format("2006-01-02T15:04:05Z"))
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	Event  stats.DepositEvent       `json:"event"`
	Record *logging.DecisionRecord `json:"record,omitempty"`
}

func runDetailMode(store *stats.Store, eventID string, jsonOut bool) error {
	ev, err := store.GetEvent(eventID)
	if err != nil {
		return err
	}
	out := detailOutput{Event: ev}
	rec, err := findRecord(store, eventID)
	if err != nil && !errors.Is(err, stats.ErrNoData) {
		return err
	}
	out.Record = rec

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Event:      %s\n", ev.EventID)
	fmt.Printf("Created:    %s\n", ev.CreatedAt.Format("2006-01-02T15:04:05Z"))
	fmt.Printf("Material:   %s\n", ev.Material.Description())
	fmt.Printf("Confidence: %.1f%%\n", ev.Confidence)
	fmt.Printf("Valid:      %v\n", ev.Valid)
	fmt.Printf("Action:     %s\n", ev.Action)
	fmt.Printf("Reason:     %s\n", ev.Reason)
	fmt.Printf("Sensors:    ind=%v cap=%v ldr=%d mic=%d\n", ev.Inductive, ev.Capacitive, ev.Light, ev.Sound)

	if rec != nil {
		fmt.Printf("\nDecision Record:\n")
		fmt.Printf("  Bands:       %s / %s\n", rec.Bands.Translucency, rec.Bands.Sound)
		fmt.Printf("  Matches:     %d\n", rec.Result.Matches)
		fmt.Printf("  Levels:      M %.1f  P %.1f  Pl %.1f  G %.1f\n",
			rec.Levels.Metal, rec.Levels.Paper, rec.Levels.Plastic, rec.Levels.Glass)
		fmt.Printf("  Vetoed:      %v\n", rec.GateVetoed)
		fmt.Printf("  Soft Score:  %.2f\n", rec.GateSoftScore)
		fmt.Printf("  Thresholds:  min %.0f%%  full %.0f cm  scale %d\n",
			rec.Thresholds.MinConfidence, rec.Thresholds.FullDistanceCm, rec.Thresholds.Resolution)
		if rec.ActuatorError != "" {
			fmt.Printf("  Actuator:    %s\n", rec.ActuatorError)
		}
	}
	return nil
}

// findRecord scans the decision log for the record of eventID.
func findRecord(store *stats.Store, eventID string) (*logging.DecisionRecord, error) {
	rows, err := logging.ListDecisions(store.DB(), logging.TriggerDepositCycle, 10000)
	if err != nil {
		return nil, err
	}
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Record.EventID == eventID {
			return &rows[i].Record, nil
		}
	}
	return nil, stats.ErrNoData
}

// #endregion detail-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
