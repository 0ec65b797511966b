package workers

import (
	"context"
	"fake-fetch/contract"
	"fake-fetch/errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Supervisor Own a context and a Cancel function
// Run each worker in a goroutine
// Turn panics into ErrWorkerPanic and count every failure per worker
// Restart failed workers after restartInterval
// Never restart a worker that returned nil
// Shutdown once the parent context is canceled
type Supervisor struct {
	Cancel          context.CancelFunc // Stops the supervised workers only
	wg              *sync.WaitGroup    // One entry per supervised worker
	log             *slog.Logger
	restartInterval time.Duration
	workers         []contract.Worker

	mu       sync.Mutex
	failures map[string]int // Keyed by worker name
}

func NewSupervisor(log *slog.Logger, restartInterval time.Duration) *Supervisor {
	return &Supervisor{
		wg:              &sync.WaitGroup{},
		log:             log,
		restartInterval: restartInterval,
		failures:        make(map[string]int),
	}
}

// Run blocks until every worker is finished.
func (s *Supervisor) Run(ctx context.Context) {
	// Stop() cancels this context, the parent stays alive
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.Cancel = cancel
	defer s.Cancel()

	for _, worker := range s.workers {
		s.Start(supervisedCtx, worker)
	}
	s.wg.Wait()
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Failures returns how many times the named worker crashed so far.
func (s *Supervisor) Failures(workerName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[workerName]
}

func (s *Supervisor) recordFailure(workerName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[workerName]++
	return s.failures[workerName]
}

// Start runs a single worker in its own goroutine until it returns nil
// or the context is canceled. A crash of one worker never stops the others.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	workerName := contract.GetWorkerName(worker)

	go func() {
		defer s.wg.Done()

		for {
			if ctx.Err() != nil {
				s.log.Info(fmt.Sprintf("Stopping : %s", workerName))
				return
			}

			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
					}
				}()
				return worker.Run(ctx)
			}()

			if err == nil {
				// Done for good
				s.log.Info(fmt.Sprintf("Worker finished : %s", workerName))
				return
			}

			if ctx.Err() != nil {
				s.log.Info("Worker stopped (context canceled)", "name", workerName)
				return
			}

			failures := s.recordFailure(workerName)
			s.log.Warn("Worker crashed, restarting",
				"name", workerName,
				"error", err,
				"failures", failures,
				"in", s.restartInterval)
			select {
			case <-ctx.Done():
				// Canceled while waiting: no restart
				return
			case <-time.After(s.restartInterval):
			}
		}
	}()
}

// Stop cancels every supervised worker, Run returns once they all exit.
func (s *Supervisor) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
}
