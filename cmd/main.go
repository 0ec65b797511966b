package main

import (
	"context"
	"fake-fetch/contract"
	fetchgrpc "fake-fetch/grpc"
	"fake-fetch/internal"
	"fake-fetch/observability"
	"fake-fetch/repositories"
	"fake-fetch/runtime/workers"
	"fake-fetch/source"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until a signal arrives.
// Returning instead of exiting lets the deferred cleanups run.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Fetch journal
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()
	repository := repositories.NewFetchRepository(db, log, config.LimitFetches)

	// 3. Data source
	stats := observability.NewFetchStats(log)
	dataSource := source.NewDelayedDataSource(log, clockwork.NewRealClock(), repository, stats)

	// 4. gRPC
	server := grpc.NewServer()
	fetchgrpc.RegisterFetchServiceServer(server, fetchgrpc.NewFetchServer(
		log, dataSource, repository, stats, config.DefaultDelay, config.MaxDelay,
	))

	// 5. Listen once, a busy port is fatal rather than restarted forever
	listener, err := net.Listen("tcp", config.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", config.Address(), err)
	}

	// 6. Supervision
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	allWorkers := []contract.Worker{workers.NewServerWorker(log, server, listener)}
	if config.DemoInterval != nil {
		allWorkers = append(allWorkers, workers.NewPollerWorker(log, dataSource, *config.DemoInterval, config.DefaultDelay))
	}
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(allWorkers...)

	log.Info("Starting supervisor", "workers", len(allWorkers), "address", config.Address())
	sup.Run(ctx)

	snapshot := stats.Snapshot()
	log.Info("Program stopped cleanly",
		"started", snapshot.Started,
		"resolved", snapshot.Resolved,
		"rejected", snapshot.Rejected,
		"cancelled", snapshot.Cancelled,
	)
	return nil
}
