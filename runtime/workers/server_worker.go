package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
)

// ServerWorker serves gRPC until its context is done.
// The first run uses the listener opened at startup, so a busy port fails the
// program before supervision begins. Serve closes the listener when it fails,
// a restart then listens again on the same address.
type ServerWorker struct {
	log      *slog.Logger
	server   *grpc.Server
	listener net.Listener
	address  string
	listen   func(network, address string) (net.Listener, error)
}

func NewServerWorker(log *slog.Logger, server *grpc.Server, listener net.Listener) *ServerWorker {
	return &ServerWorker{
		log:      log,
		server:   server,
		listener: listener,
		address:  listener.Addr().String(),
		listen:   net.Listen,
	}
}

func (w *ServerWorker) Run(ctx context.Context) error {
	listener := w.listener
	w.listener = nil
	if listener == nil {
		var err error
		if listener, err = w.listen("tcp", w.address); err != nil {
			return fmt.Errorf("failed to listen on %s: %w", w.address, err)
		}
	}

	errChan := make(chan error, 1)
	go func() {
		w.log.Info("Starting gRPC server", "address", listener.Addr().String())
		errChan <- w.server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		w.log.Info("Stopping gRPC server gracefully")
		w.server.GracefulStop()
		return ctx.Err()
	case err := <-errChan:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("gRPC server error: %w", err)
	}
}
