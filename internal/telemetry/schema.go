package telemetry

// SQL schemas for the ClickHouse tables

const (
	// DepositEventsTableSQL creates the deposit_events table
	DepositEventsTableSQL = `
		CREATE TABLE IF NOT EXISTS deposit_events (
			timestamp DateTime64(3),
			bin_id String,
			event_id String,
			material LowCardinality(String),
			confidence Float64,
			valid Bool,
			action LowCardinality(String),
			reason String,
			light UInt16,
			sound UInt16,
			inductive Bool,
			capacitive Bool
		) ENGINE = MergeTree()
		ORDER BY (bin_id, timestamp)
		PARTITION BY toYYYYMM(timestamp)
	`

	// BinStatsTableSQL creates the bin_stats table
	BinStatsTableSQL = `
		CREATE TABLE IF NOT EXISTS bin_stats (
			timestamp DateTime64(3),
			bin_id String,
			total UInt32,
			metal UInt32,
			paper UInt32,
			plastic UInt32,
			glass UInt32,
			errors UInt32,
			avg_confidence Float64,
			operating_hours Float64,
			valid UInt32
		) ENGINE = ReplacingMergeTree(timestamp)
		ORDER BY bin_id
	`
)

// AllTables returns the table DDL in creation order.
func AllTables() []string {
	return []string{
		DepositEventsTableSQL,
		BinStatsTableSQL,
	}
}
