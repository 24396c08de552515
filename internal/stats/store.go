package stats

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/smartwaste/go-controller/internal/classifier"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS counters (
	id              INTEGER PRIMARY KEY CHECK (id = 1),
	total           INTEGER NOT NULL,
	metal           INTEGER NOT NULL,
	paper           INTEGER NOT NULL,
	plastic         INTEGER NOT NULL,
	glass           INTEGER NOT NULL,
	errors          INTEGER NOT NULL,
	valid           INTEGER NOT NULL DEFAULT 0,
	avg_confidence  REAL NOT NULL,
	operating_hours REAL NOT NULL,
	updated_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS deposit_events (
	event_id      TEXT PRIMARY KEY,
	material      INTEGER NOT NULL,
	confidence    REAL NOT NULL,
	valid         INTEGER NOT NULL,
	action        TEXT NOT NULL,
	reason        TEXT,
	light_level   INTEGER NOT NULL,
	sound_level   INTEGER NOT NULL,
	inductive     INTEGER NOT NULL,
	capacitive    INTEGER NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS decision_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id      TEXT NOT NULL,
	trigger_type  TEXT NOT NULL,
	record_json   TEXT,
	decision      TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (event_id) REFERENCES deposit_events(event_id)
);

CREATE INDEX IF NOT EXISTS idx_deposit_events_created ON deposit_events(created_at);
`

// #endregion schema

// #region store-struct
// Store keeps counters, deposit events and the decision log in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #region counters
// Save upserts the single counters row.
func (s *Store) Save(c Counters) error {
	_, err := s.db.Exec(
		`INSERT INTO counters (id, total, metal, paper, plastic, glass, errors, valid, avg_confidence, operating_hours, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			total = excluded.total, metal = excluded.metal, paper = excluded.paper,
			plastic = excluded.plastic, glass = excluded.glass, errors = excluded.errors,
			valid = excluded.valid, avg_confidence = excluded.avg_confidence, operating_hours = excluded.operating_hours,
			updated_at = excluded.updated_at`,
		c.Total, c.Metal, c.Paper, c.Plastic, c.Glass, c.Errors, c.Valid, c.AvgConfidence, c.OperatingHours,
		time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("save counters: %w", err)
	}
	return nil
}

// Load reads the counters row. A missing row or implausible total is no data.
func (s *Store) Load() (Counters, bool, error) {
	var c Counters
	err := s.db.QueryRow(
		`SELECT total, metal, paper, plastic, glass, errors, valid, avg_confidence, operating_hours
		 FROM counters WHERE id = 1`,
	).Scan(&c.Total, &c.Metal, &c.Paper, &c.Plastic, &c.Glass, &c.Errors, &c.Valid, &c.AvgConfidence, &c.OperatingHours)
	if errors.Is(err, sql.ErrNoRows) {
		return Counters{}, false, nil
	}
	if err != nil {
		return Counters{}, false, fmt.Errorf("load counters: %w", err)
	}
	if !c.plausible() {
		return Counters{}, false, nil
	}
	return c, true, nil
}

// #endregion counters

// #region save-event
// SaveEvent inserts a deposit event, assigning an id and timestamp when unset.
func (s *Store) SaveEvent(ev DepositEvent) (DepositEvent, error) {
	if ev.EventID == "" {
		ev.EventID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO deposit_events (event_id, material, confidence, valid, action, reason,
			light_level, sound_level, inductive, capacitive, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.EventID, int(ev.Material), ev.Confidence, ev.Valid, ev.Action, nullIfEmpty(ev.Reason),
		ev.Light, ev.Sound, ev.Inductive, ev.Capacitive, ev.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return DepositEvent{}, fmt.Errorf("insert event: %w", err)
	}
	return ev, nil
}

// #endregion save-event

// #region get-event
const eventColumns = `event_id, material, confidence, valid, action, reason,
	light_level, sound_level, inductive, capacitive, created_at`

// GetEvent retrieves a deposit event by id.
func (s *Store) GetEvent(id string) (DepositEvent, error) {
	row := s.db.QueryRow(`SELECT `+eventColumns+` FROM deposit_events WHERE event_id = ?`, id)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return DepositEvent{}, fmt.Errorf("get event %s: %w", id, ErrNoData)
	}
	if err != nil {
		return DepositEvent{}, fmt.Errorf("get event %s: %w", id, err)
	}
	return ev, nil
}

// ListEvents returns the most recent deposit events, newest first.
func (s *Store) ListEvents(limit int) ([]DepositEvent, error) {
	rows, err := s.db.Query(
		`SELECT `+eventColumns+` FROM deposit_events ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []DepositEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// #endregion get-event

// #region material-totals
// MaterialTotals aggregates stored events per material and action.
func (s *Store) MaterialTotals() ([]MaterialTotal, error) {
	rows, err := s.db.Query(
		`SELECT material, action, COUNT(*), AVG(confidence)
		 FROM deposit_events GROUP BY material, action ORDER BY material, action`,
	)
	if err != nil {
		return nil, fmt.Errorf("material totals: %w", err)
	}
	defer rows.Close()

	var totals []MaterialTotal
	for rows.Next() {
		var t MaterialTotal
		var material int
		if err := rows.Scan(&material, &t.Action, &t.Count, &t.AvgConfidence); err != nil {
			return nil, fmt.Errorf("scan total: %w", err)
		}
		t.Material = classifier.Material(material)
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// #endregion material-totals

// #region helpers

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (DepositEvent, error) {
	var ev DepositEvent
	var material int
	var reason sql.NullString
	var createdStr string
	err := row.Scan(&ev.EventID, &material, &ev.Confidence, &ev.Valid, &ev.Action, &reason,
		&ev.Light, &ev.Sound, &ev.Inductive, &ev.Capacitive, &createdStr)
	if err != nil {
		return DepositEvent{}, err
	}
	ev.Material = classifier.Material(material)
	ev.Reason = reason.String
	ev.CreatedAt, _ = time.Parse(timeLayout, createdStr)
	return ev, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
