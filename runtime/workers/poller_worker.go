package workers

import (
	"context"
	"fake-fetch/contract"
	"log/slog"
	"time"
)

// PollerWorker is a built-in consumer: it fetches on every tick and logs what came back.
type PollerWorker struct {
	log      *slog.Logger
	source   contract.DataSource
	interval time.Duration
	delay    time.Duration
}

func NewPollerWorker(log *slog.Logger, source contract.DataSource, interval, delay time.Duration) *PollerWorker {
	return &PollerWorker{log: log, source: source, interval: interval, delay: delay}
}

func (w *PollerWorker) Run(ctx context.Context) error {
	w.log.Info("Starting demo poller", "interval", w.interval, "delay", w.delay)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.poll(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *PollerWorker) poll(ctx context.Context) error {
	future, err := w.source.Fetch(ctx, w.delay)
	if err != nil {
		return err
	}
	items, err := future.Await(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.log.Warn("Demo fetch failed", "id", future.ID(), "error", err)
		return nil
	}
	w.log.Info("Demo fetch resolved", "id", future.ID(), "items", items)
	return nil
}
