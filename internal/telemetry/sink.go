package telemetry

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/smartwaste/go-controller/internal/events"
)

// Config holds the ClickHouse connection settings. An empty Addr disables
// the sink.
type Config struct {
	Addr     string
	Database string
	Username string
	Password string
}

// Sink writes deposit events and counter snapshots to ClickHouse for
// fleet-wide analysis.
type Sink struct {
	conn driver.Conn
}

// NewSink connects, pings and creates the tables.
func NewSink(config Config) (*Sink, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{config.Addr},
		Auth: clickhouse.Auth{
			Database: config.Database,
			Username: config.Username,
			Password: config.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect to ClickHouse: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping ClickHouse: %w", err)
	}

	log.Printf("Telemetry: Connected to ClickHouse at %s", config.Addr)

	s := newSink(conn)
	if err := s.InitSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func newSink(conn driver.Conn) *Sink {
	return &Sink{conn: conn}
}

// InitSchema creates the tables if they don't exist.
func (s *Sink) InitSchema(ctx context.Context) error {
	for _, tableSQL := range AllTables() {
		if err := s.conn.Exec(ctx, tableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	log.Println("Telemetry: schema initialized")
	return nil
}

// SaveDeposit inserts one deposit event.
func (s *Sink) SaveDeposit(ctx context.Context, ev *events.DepositEvent) error {
	query := `
		INSERT INTO deposit_events (timestamp, bin_id, event_id, material, confidence, valid, action, reason, light, sound, inductive, capacitive)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	err := s.conn.Exec(ctx, query,
		ev.Timestamp,
		ev.BinID,
		ev.EventID,
		ev.Material.String(),
		ev.Confidence,
		ev.Valid,
		ev.Action,
		ev.Reason,
		ev.Light,
		ev.Sound,
		ev.Inductive,
		ev.Capacitive,
	)
	if err != nil {
		return fmt.Errorf("insert deposit event: %w", err)
	}
	return nil
}

// SaveStats inserts one counters snapshot.
func (s *Sink) SaveStats(ctx context.Context, ev *events.StatsEvent) error {
	query := `
		INSERT INTO bin_stats (timestamp, bin_id, total, metal, paper, plastic, glass, errors, avg_confidence, operating_hours, valid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	c := ev.Counters
	err := s.conn.Exec(ctx, query,
		ev.Timestamp,
		ev.BinID,
		c.Total,
		c.Metal,
		c.Paper,
		c.Plastic,
		c.Glass,
		c.Errors,
		c.AvgConfidence,
		c.OperatingHours,
		c.Valid,
	)
	if err != nil {
		return fmt.Errorf("insert bin stats: %w", err)
	}
	return nil
}

// Close closes the ClickHouse connection.
func (s *Sink) Close() error {
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			return fmt.Errorf("close ClickHouse connection: %w", err)
		}
		log.Println("Telemetry: ClickHouse connection closed")
	}
	return nil
}
