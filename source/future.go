package source

import (
	"context"
	"fake-fetch/domain"
	"sync"

	"github.com/google/uuid"
)

// Future is the handle returned by a fetch. It settles exactly once.
type Future struct {
	id    uuid.UUID
	done  chan struct{}
	mu    sync.RWMutex
	state domain.FetchState
	items domain.FetchResult
	err   error
}

func newFuture(id uuid.UUID) *Future {
	return &Future{id: id, done: make(chan struct{}), state: domain.PENDING}
}

func (f *Future) ID() uuid.UUID { return f.id }

// Done is closed once the future is settled.
func (f *Future) Done() <-chan struct{} { return f.done }

func (f *Future) State() domain.FetchState {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

// Await blocks until the future settles or ctx is done.
// Giving up on the wait does not cancel the fetch itself.
func (f *Future) Await(ctx context.Context) (domain.FetchResult, error) {
	select {
	case <-f.done:
		f.mu.RLock()
		defer f.mu.RUnlock()
		return f.items, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Future) settle(state domain.FetchState, items domain.FetchResult, cause error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := domain.Transition(f.state, state); err != nil {
		return err
	}
	f.state = state
	f.items = items
	f.err = cause
	close(f.done)
	return nil
}
