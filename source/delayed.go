package source

import (
	"context"
	"fake-fetch/domain"
	"fake-fetch/errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var validate = validator.New()

type fetchRequest struct {
	Delay time.Duration `validate:"gte=0s"`
}

// Journal keeps a trace of every settled fetch.
type Journal interface {
	StoreFetch(record domain.FetchRecord) error
}

type Tracker interface {
	FetchStarted()
	FetchSettled(state domain.FetchState)
}

type Option func(*fetchCall)

type fetchCall struct {
	onComplete func(domain.FetchResult)
	data       domain.FetchResult
}

// WithOnComplete registers an observer invoked with the result right before the future resolves.
func WithOnComplete(fn func(domain.FetchResult)) Option {
	return func(c *fetchCall) {
		c.onComplete = fn
	}
}

// WithData replaces the default fruits. A nil slice keeps the default.
func WithData(items ...string) Option {
	return func(c *fetchCall) {
		c.data = slices.Clone(items)
	}
}

// DelayedDataSource emulates a network call: data comes back after a fixed delay.
type DelayedDataSource struct {
	log     *slog.Logger
	clock   clockwork.Clock
	journal Journal
	tracker Tracker
}

// NewDelayedDataSource builds a source. journal and tracker are optional,
// clock defaults to the wall clock. A clockwork.FakeClock simulates the latency.
func NewDelayedDataSource(log *slog.Logger, clock clockwork.Clock, journal Journal, tracker Tracker) *DelayedDataSource {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &DelayedDataSource{log: log, clock: clock, journal: journal, tracker: tracker}
}

// Fetch schedules a fetch settling after exactly delay.
// A negative delay fails fast and schedules nothing.
// Cancelling ctx before the delay elapses stops the timer and settles the future as cancelled.
// The observer and the settlement never run on the calling goroutine.
func (s *DelayedDataSource) Fetch(ctx context.Context, delay time.Duration, opts ...Option) (*Future, error) {
	if err := validate.Struct(fetchRequest{Delay: delay}); err != nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrInvalidDelay, delay)
	}
	call := fetchCall{}
	for _, opt := range opts {
		opt(&call)
	}
	if call.data == nil {
		call.data = domain.DefaultFruits()
	}

	p := &pendingFetch{
		source:      s,
		ctx:         ctx,
		future:      newFuture(uuid.New()),
		call:        call,
		delay:       delay,
		requestedAt: s.clock.Now(),
	}
	if s.tracker != nil {
		s.tracker.FetchStarted()
	}
	s.log.Debug("Fetch scheduled", "id", p.future.ID(), "delay", delay)

	p.mu.Lock()
	p.timer = s.clock.AfterFunc(delay, p.fire)
	p.stopCancel = context.AfterFunc(ctx, p.cancel)
	p.mu.Unlock()

	return p.future, nil
}

// pendingFetch is claimed exactly once, either by its timer or by its context.
type pendingFetch struct {
	source      *DelayedDataSource
	ctx         context.Context
	future      *Future
	call        fetchCall
	delay       time.Duration
	requestedAt time.Time

	claimed    atomic.Bool
	mu         sync.Mutex
	timer      clockwork.Timer
	stopCancel func() bool
}

func (p *pendingFetch) fire() {
	if !p.claimed.CompareAndSwap(false, true) {
		return
	}
	p.mu.Lock()
	stop := p.stopCancel
	p.mu.Unlock()
	stop()

	if err := p.notify(); err != nil {
		p.finish(domain.REJECTED, nil, err)
		return
	}
	p.finish(domain.RESOLVED, p.call.data, nil)
}

func (p *pendingFetch) cancel() {
	if !p.claimed.CompareAndSwap(false, true) {
		return
	}
	p.mu.Lock()
	timer := p.timer
	p.mu.Unlock()
	timer.Stop()

	p.finish(domain.CANCELLED, nil, fmt.Errorf("%w: %w", errors.ErrFetchCanceled, context.Cause(p.ctx)))
}

func (p *pendingFetch) notify() (err error) {
	if p.call.onComplete == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrCallbackFailure, r)
		}
	}()
	p.call.onComplete(p.call.data)
	return nil
}

// finish journals the outcome then settles the future,
// so the record exists once a caller observes the result.
func (p *pendingFetch) finish(state domain.FetchState, items domain.FetchResult, cause error) {
	s := p.source
	record := domain.FetchRecord{
		ID:          p.future.ID(),
		Delay:       p.delay,
		Items:       items,
		State:       state,
		RequestedAt: p.requestedAt,
		SettledAt:   s.clock.Now(),
	}
	if cause != nil {
		record.Error = cause.Error()
	}
	if s.journal != nil {
		if err := s.journal.StoreFetch(record); err != nil {
			s.log.Warn("Failed to journal fetch", "id", record.ID, "error", err)
		}
	}
	if s.tracker != nil {
		s.tracker.FetchSettled(state)
	}
	if err := p.future.settle(state, items, cause); err != nil {
		s.log.Error("Fetch settled twice", "id", record.ID, "error", err)
		return
	}
	s.log.Debug("Fetch settled", "id", record.ID, "state", state)
}
