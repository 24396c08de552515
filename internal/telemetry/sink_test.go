package telemetry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/smartwaste/go-controller/internal/classifier"
	"github.com/smartwaste/go-controller/internal/events"
	"github.com/smartwaste/go-controller/internal/stats"
)

type execCall struct {
	query string
	args  []interface{}
}

// fakeConn embeds driver.Conn so only Exec and Close need implementations.
type fakeConn struct {
	driver.Conn

	calls  []execCall
	err    error
	closed bool
}

func (c *fakeConn) Exec(ctx context.Context, query string, args ...interface{}) error {
	c.calls = append(c.calls, execCall{query: query, args: args})
	return c.err
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func TestInitSchema(t *testing.T) {
	conn := &fakeConn{}
	s := newSink(conn)

	if err := s.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}
	if len(conn.calls) != len(AllTables()) {
		t.Fatalf("expected %d statements, got %d", len(AllTables()), len(conn.calls))
	}
	if !strings.Contains(conn.calls[0].query, "deposit_events") {
		t.Errorf("expected deposit_events first, got %q", conn.calls[0].query)
	}
}

func TestInitSchema_Error(t *testing.T) {
	s := newSink(&fakeConn{err: errors.New("readonly")})
	if err := s.InitSchema(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSaveDeposit(t *testing.T) {
	conn := &fakeConn{}
	s := newSink(conn)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := s.SaveDeposit(context.Background(), &events.DepositEvent{
		EventID: "e1", BinID: "bin-7", Timestamp: at, Material: classifier.MaterialGlass,
		Confidence: 100, Valid: true, Action: "deposit", Light: 3800, Sound: 3200, Capacitive: true,
	})
	if err != nil {
		t.Fatalf("SaveDeposit: %v", err)
	}

	args := conn.calls[0].args
	if len(args) != 12 {
		t.Fatalf("expected 12 args, got %d", len(args))
	}
	if args[1] != "bin-7" || args[3] != "glass" || args[8] != uint16(3800) {
		t.Errorf("unexpected args %v", args)
	}
}

func TestSaveStats(t *testing.T) {
	conn := &fakeConn{}
	s := newSink(conn)

	err := s.SaveStats(context.Background(), &events.StatsEvent{
		BinID: "bin-7", Counters: stats.Counters{Total: 5, Metal: 2, Errors: 1, Valid: 4, AvgConfidence: 99},
	})
	if err != nil {
		t.Fatalf("SaveStats: %v", err)
	}
	args := conn.calls[0].args
	if args[2] != uint32(5) || args[3] != uint32(2) || args[7] != uint32(1) || args[8] != 99.0 || args[10] != uint32(4) {
		t.Errorf("unexpected args %v", args)
	}
}

func TestSaveDeposit_Error(t *testing.T) {
	s := newSink(&fakeConn{err: errors.New("down")})
	if err := s.SaveDeposit(context.Background(), &events.DepositEvent{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestClose(t *testing.T) {
	conn := &fakeConn{}
	if err := newSink(conn).Close(); err != nil || !conn.closed {
		t.Fatalf("expected close, got err=%v closed=%v", err, conn.closed)
	}
}
