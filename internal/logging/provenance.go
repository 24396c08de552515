package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #region log-decision
// LogDecision writes a decision entry to the decision_log table.
func LogDecision(db *sql.DB, entry DecisionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO decision_log (event_id, trigger_type, record_json, decision, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.EventID,
		entry.TriggerType,
		nullIfEmpty(entry.RecordJSON),
		entry.Decision,
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// LogRecord marshals rec and logs it under its event id.
func LogRecord(db *sql.DB, trigger string, rec DecisionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal decision record: %w", err)
	}
	return LogDecision(db, DecisionEntry{
		EventID:     rec.EventID,
		TriggerType: trigger,
		RecordJSON:  string(data),
		Decision:    rec.GateAction,
		Reason:      rec.GateReason,
	})
}

// #endregion log-decision

// #region list-decisions
// ListDecisions returns the last n rows for trigger in chronological order.
// Rows without a decodable record are skipped.
func ListDecisions(db *sql.DB, trigger string, n int) ([]DecisionRow, error) {
	rows, err := db.Query(
		`SELECT record_json, decision, reason, created_at FROM (
			SELECT id, record_json, decision, reason, created_at FROM decision_log
			WHERE trigger_type = ?
			ORDER BY created_at DESC, id DESC LIMIT ?
		) sub ORDER BY created_at ASC, id ASC`, trigger, n,
	)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []DecisionRow
	for rows.Next() {
		var recJSON, reason sql.NullString
		var decision, createdStr string
		if err := rows.Scan(&recJSON, &decision, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		if !recJSON.Valid || recJSON.String == "" {
			continue
		}
		var rec DecisionRecord
		if err := json.Unmarshal([]byte(recJSON.String), &rec); err != nil {
			log.Printf("Logging: skipping undecodable record: %v", err)
			continue
		}
		created, _ := time.Parse(timeLayout, createdStr)
		out = append(out, DecisionRow{
			Record:    rec,
			Decision:  decision,
			Reason:    reason.String,
			CreatedAt: created,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return out, nil
}

// #endregion list-decisions

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
