package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/smartwaste/go-controller/internal/actuator"
	"github.com/smartwaste/go-controller/internal/classifier"
	"github.com/smartwaste/go-controller/internal/config"
	"github.com/smartwaste/go-controller/internal/controller"
	"github.com/smartwaste/go-controller/internal/display"
	"github.com/smartwaste/go-controller/internal/events"
	"github.com/smartwaste/go-controller/internal/gate"
	"github.com/smartwaste/go-controller/internal/rpc"
	"github.com/smartwaste/go-controller/internal/sensor"
	"github.com/smartwaste/go-controller/internal/stats"
	"github.com/smartwaste/go-controller/internal/telemetry"
)

// #region main
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("controller: %v", err)
	}
	log.Println("Controller stopped.")
}

// #endregion main

// #region run
func run(parent context.Context, cfg *config.Config) error {
	// Local storage
	store, err := stats.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	tracker := stats.NewTracker(stats.MultiPersister{store, stats.NewSnapshotFile(cfg.SnapshotPath)}, cfg.SaveEvery)
	if err := tracker.Load(); err != nil {
		log.Printf("Controller: starting with empty counters: %v", err)
	}

	// Sensor input and servo output
	src, servoOut, closeInput, err := openInput(cfg)
	if err != nil {
		return err
	}
	defer closeInput()

	var driver actuator.Driver = actuator.LogDriver{}
	if cfg.ActuatorDriver == "serial" {
		driver = actuator.NewSerialDriver(servoOut)
	}
	act := actuator.NewController(driver, cfg.Tuning.Timings)
	if err := act.Rest(parent); err != nil {
		return fmt.Errorf("move servos to rest: %w", err)
	}

	cls := classifier.NewClassifier(cfg.Tuning.Classifier)
	console := display.NewConsole(os.Stdout, cfg.PlainConsole)
	console.Welcome()

	deps := controller.Deps{
		Source:     src,
		Classifier: cls,
		Gate:       gate.NewGate(cfg.Tuning.Gate),
		Actuator:   act,
		Tracker:    tracker,
		Store:      store,
		Display:    console,
	}

	// Telemetry
	var sink *telemetry.Sink
	if cfg.ClickHouseAddr != "" {
		sink, err = telemetry.NewSink(telemetry.Config{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDB,
			Username: cfg.ClickHouseUser,
			Password: cfg.ClickHousePass,
		})
		if err != nil {
			log.Printf("Controller: telemetry disabled: %v", err)
			sink = nil
		} else {
			defer sink.Close()
			deps.Sink = sink
		}
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	// MQTT
	if cfg.MQTTBroker != "" {
		client, err := events.NewClient(events.ClientConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		})
		if err != nil {
			log.Printf("Controller: MQTT disabled: %v", err)
		} else {
			defer client.Close()
			deposits := make(chan *events.DepositEvent, 64)
			statsCh := make(chan *events.StatsEvent, 8)
			deps.Deposits = deposits
			deps.Stats = statsCh
			pub := events.NewPublisher(client.Native(), events.DefaultPublisherConfig(), deposits, statsCh)
			g.Go(func() error {
				pub.Start(ctx)
				return nil
			})
		}
	}

	// gRPC
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
		}
		server := grpc.NewServer()
		rpc.Register(server, cls, tracker)
		g.Go(func() error {
			log.Printf("Controller: gRPC listening on %s", lis.Addr())
			return server.Serve(lis)
		})
		g.Go(func() error {
			<-ctx.Done()
			server.GracefulStop()
			return nil
		})
	}

	// Periodic counters
	g.Go(func() error {
		reportStats(ctx, cfg, tracker, sink)
		return nil
	})

	ctrlConfig := controller.DefaultConfig()
	ctrlConfig.BinID = cfg.BinID
	ctrlConfig.PollInterval = cfg.PollInterval
	ctrl := controller.NewController(ctrlConfig, deps)

	g.Go(func() error {
		// End of a recorded input stops the other workers too.
		defer cancel()
		err := ctrl.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	log.Printf("Controller: bin %s ready (db=%s actuator=%s)", cfg.BinID, cfg.DBPath, cfg.ActuatorDriver)
	err = g.Wait()

	rest, restCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer restCancel()
	if rerr := act.Rest(rest); rerr != nil {
		log.Printf("Controller: rest on shutdown: %v", rerr)
	}
	console.Statistics(tracker.Snapshot())
	return err
}

// #endregion run

// #region input
// openInput picks the sensor source: the serial board, a recorded frame
// file, or stdin. The writer receives servo commands when the serial
// actuator driver is selected.
func openInput(cfg *config.Config) (sensor.Source, io.Writer, func(), error) {
	if cfg.SerialPort != "" {
		port, err := sensor.OpenSerial(cfg.SerialPort, cfg.Port)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Printf("Controller: reading frames from %s", cfg.SerialPort)
		return port, port, func() { port.Close() }, nil
	}
	if cfg.InputPath != "" {
		f, err := os.Open(cfg.InputPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open input: %w", err)
		}
		log.Printf("Controller: replaying frames from %s", cfg.InputPath)
		src := sensor.NewLineSource(f)
		return src, io.Discard, func() { src.Close(); f.Close() }, nil
	}
	log.Println("Controller: reading frames from stdin")
	src := sensor.NewLineSource(os.Stdin)
	return src, io.Discard, func() { src.Close() }, nil
}

// #endregion input

// #region stats
// reportStats flushes the counters and pushes a snapshot to telemetry every
// StatsInterval.
func reportStats(ctx context.Context, cfg *config.Config, tracker *stats.Tracker, sink *telemetry.Sink) {
	if cfg.StatsInterval <= 0 {
		return
	}
	ticker := time.NewTicker(cfg.StatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := tracker.Flush(); err != nil {
			log.Printf("Controller: %v", err)
		}
		if sink == nil {
			continue
		}
		ev := &events.StatsEvent{BinID: cfg.BinID, Timestamp: time.Now().UTC(), Counters: tracker.Snapshot()}
		if err := sink.SaveStats(ctx, ev); err != nil {
			log.Printf("Controller: telemetry stats: %v", err)
		}
	}
}

// #endregion stats
