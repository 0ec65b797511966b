package source_test

import (
	"context"
	"fake-fetch/domain"
	"fake-fetch/errors"
	"fake-fetch/mocks"
	"fake-fetch/observability"
	"fake-fetch/source"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var epoch = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func newSource(clock clockwork.Clock) *source.DelayedDataSource {
	return source.NewDelayedDataSource(logs.GetLoggerFromLevel(slog.LevelDebug), clock, nil, nil)
}

func awaitSettled(t *testing.T, future *source.Future) {
	t.Helper()
	select {
	case <-future.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("future never settled")
	}
}

// requirePendingTimers waits until exactly n timers are scheduled on the fake clock.
func requirePendingTimers(t *testing.T, clock *clockwork.FakeClock, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, n))
}

func TestFetch_ResolvesDefaultFruitsAfterDelay(t *testing.T) {
	req := require.New(t)
	src := newSource(nil)
	delay := 30 * time.Millisecond

	start := time.Now()
	future, err := src.Fetch(context.Background(), delay)
	req.NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	items, err := future.Await(ctx)
	req.NoError(err)
	req.GreaterOrEqual(time.Since(start), delay)
	req.Equal(domain.FetchResult{"apple", "banana", "cherry"}, items)
	req.Equal(domain.RESOLVED, future.State())
}

func TestFetch_NeverSettlesBeforeDelay(t *testing.T) {
	req := require.New(t)
	clock := clockwork.NewFakeClockAt(epoch)
	src := newSource(clock)

	future, err := src.Fetch(context.Background(), 50*time.Millisecond)
	req.NoError(err)

	clock.Advance(49 * time.Millisecond)
	requirePendingTimers(t, clock, 1)
	req.Equal(domain.PENDING, future.State())

	clock.Advance(time.Millisecond)
	awaitSettled(t, future)
	req.Equal(domain.RESOLVED, future.State())
}

func TestFetch_ZeroDelayWithData(t *testing.T) {
	req := require.New(t)
	clock := clockwork.NewFakeClockAt(epoch)
	src := newSource(clock)

	caller := make(chan struct{})
	var observed domain.FetchResult
	future, err := src.Fetch(context.Background(), 0, source.WithData("x", "y"), source.WithOnComplete(func(items domain.FetchResult) {
		// Blocks until the caller has returned from Fetch
		<-caller
		observed = items
	}))
	req.NoError(err)
	close(caller)
	awaitSettled(t, future)

	items, err := future.Await(context.Background())
	req.NoError(err)
	req.Equal(domain.FetchResult{"x", "y"}, items)
	req.Equal(items, observed)
}

func TestFetch_ZeroDelayOnWallClock(t *testing.T) {
	req := require.New(t)
	src := newSource(nil)

	future, err := src.Fetch(context.Background(), 0, source.WithData("x", "y"))
	req.NoError(err)
	awaitSettled(t, future)

	items, err := future.Await(context.Background())
	req.NoError(err)
	req.Equal(domain.FetchResult{"x", "y"}, items)
}

func TestFetch_ObserverCalledOnceBeforeResolution(t *testing.T) {
	req := require.New(t)
	clock := clockwork.NewFakeClockAt(epoch)
	src := newSource(clock)

	var future *source.Future
	var recorded []domain.FetchResult
	var stateSeen domain.FetchState
	recorder := func(items domain.FetchResult) {
		recorded = append(recorded, items)
		stateSeen = future.State()
	}

	future, err := src.Fetch(context.Background(), 50*time.Millisecond, source.WithOnComplete(recorder))
	req.NoError(err)
	req.Empty(recorded)

	clock.Advance(50 * time.Millisecond)

	items, err := future.Await(context.Background())
	req.NoError(err)
	req.Len(recorded, 1)
	req.Equal(domain.FetchResult{"apple", "banana", "cherry"}, recorded[0])
	req.Equal(items, recorded[0])
	// Then the observer ran while the future was still pending
	req.Equal(domain.PENDING, stateSeen)
}

func TestFetch_WithoutObserver(t *testing.T) {
	req := require.New(t)
	clock := clockwork.NewFakeClockAt(epoch)
	src := newSource(clock)

	future, err := src.Fetch(context.Background(), 10*time.Millisecond, source.WithOnComplete(nil))
	req.NoError(err)
	clock.Advance(10 * time.Millisecond)

	items, err := future.Await(context.Background())
	req.NoError(err)
	req.Equal(domain.DefaultFruits(), items)
}

func TestFetch_IndependentResults(t *testing.T) {
	req := require.New(t)
	clock := clockwork.NewFakeClockAt(epoch)
	src := newSource(clock)

	first, err := src.Fetch(context.Background(), time.Millisecond)
	req.NoError(err)
	second, err := src.Fetch(context.Background(), time.Millisecond)
	req.NoError(err)
	req.NotEqual(first.ID(), second.ID())
	clock.Advance(time.Millisecond)

	firstItems, err := first.Await(context.Background())
	req.NoError(err)
	secondItems, err := second.Await(context.Background())
	req.NoError(err)
	req.Equal(firstItems, secondItems)

	// When the first caller mutates its result
	firstItems[0] = "durian"

	// Then neither the other result nor the next fetch see it
	req.Equal("apple", secondItems[0])
	third, err := src.Fetch(context.Background(), 0)
	req.NoError(err)
	thirdItems, err := third.Await(context.Background())
	req.NoError(err)
	req.Equal(domain.FetchResult{"apple", "banana", "cherry"}, thirdItems)
}

func TestFetch_CallerDataIsCopied(t *testing.T) {
	req := require.New(t)
	clock := clockwork.NewFakeClockAt(epoch)
	src := newSource(clock)

	data := []string{"x", "y"}
	future, err := src.Fetch(context.Background(), time.Millisecond, source.WithData(data...))
	req.NoError(err)
	data[0] = "z"

	clock.Advance(time.Millisecond)
	items, err := future.Await(context.Background())
	req.NoError(err)
	req.Equal(domain.FetchResult{"x", "y"}, items)
}

func TestFetch_NegativeDelayFailsFast(t *testing.T) {
	req := require.New(t)
	clock := clockwork.NewFakeClockAt(epoch)
	src := newSource(clock)

	called := false
	future, err := src.Fetch(context.Background(), -time.Millisecond, source.WithOnComplete(func(domain.FetchResult) {
		called = true
	}))
	req.ErrorIs(err, errors.ErrInvalidDelay)
	req.Nil(future)
	requirePendingTimers(t, clock, 0)

	clock.Advance(time.Hour)
	requirePendingTimers(t, clock, 0)
	req.False(called)
}

func TestFetch_CancelBeforeDelay(t *testing.T) {
	req := require.New(t)
	clock := clockwork.NewFakeClockAt(epoch)
	src := newSource(clock)

	ctx, cancel := context.WithCancel(context.Background())
	called := false
	future, err := src.Fetch(ctx, time.Second, source.WithOnComplete(func(domain.FetchResult) {
		called = true
	}))
	req.NoError(err)
	requirePendingTimers(t, clock, 1)

	cancel()
	awaitSettled(t, future)

	items, err := future.Await(context.Background())
	req.Nil(items)
	req.ErrorIs(err, errors.ErrFetchCanceled)
	req.ErrorIs(err, context.Canceled)
	req.Equal(domain.CANCELLED, future.State())

	// Then the timer is gone and the observer never runs
	requirePendingTimers(t, clock, 0)
	clock.Advance(time.Hour)
	req.False(called)
}

func TestFetch_CancelAfterResolutionIsNoop(t *testing.T) {
	req := require.New(t)
	clock := clockwork.NewFakeClockAt(epoch)
	src := newSource(clock)

	ctx, cancel := context.WithCancel(context.Background())
	future, err := src.Fetch(ctx, time.Millisecond)
	req.NoError(err)
	clock.Advance(time.Millisecond)
	awaitSettled(t, future)
	req.Equal(domain.RESOLVED, future.State())

	cancel()
	items, err := future.Await(context.Background())
	req.NoError(err)
	req.Equal(domain.DefaultFruits(), items)
	req.Equal(domain.RESOLVED, future.State())
}

func TestFetch_ObserverPanicRejects(t *testing.T) {
	req := require.New(t)
	clock := clockwork.NewFakeClockAt(epoch)
	src := newSource(clock)

	future, err := src.Fetch(context.Background(), time.Millisecond, source.WithOnComplete(func(domain.FetchResult) {
		panic("boom")
	}))
	req.NoError(err)
	clock.Advance(time.Millisecond)

	items, err := future.Await(context.Background())
	req.Nil(items)
	req.ErrorIs(err, errors.ErrCallbackFailure)
	req.ErrorContains(err, "boom")
	req.Equal(domain.REJECTED, future.State())
}

func TestFuture_AwaitGivesUpWithoutCancelling(t *testing.T) {
	req := require.New(t)
	clock := clockwork.NewFakeClockAt(epoch)
	src := newSource(clock)

	future, err := src.Fetch(context.Background(), time.Second)
	req.NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = future.Await(ctx)
	req.ErrorIs(err, context.DeadlineExceeded)
	req.Equal(domain.PENDING, future.State())

	clock.Advance(time.Second)
	items, err := future.Await(context.Background())
	req.NoError(err)
	req.Equal(domain.DefaultFruits(), items)
}

func TestFetch_JournalsEverySettledFetch(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	journal := mocks.NewMockIFetchRepository(ctrl)
	clock := clockwork.NewFakeClockAt(epoch)
	stats := observability.NewFetchStats(slog.Default())
	src := source.NewDelayedDataSource(slog.Default(), clock, journal, stats)

	var records []domain.FetchRecord
	journal.EXPECT().
		StoreFetch(gomock.Any()).
		DoAndReturn(func(record domain.FetchRecord) error {
			records = append(records, record)
			return nil
		}).
		Times(2)

	resolved, err := src.Fetch(context.Background(), 20*time.Millisecond, source.WithData("x"))
	req.NoError(err)
	ctx, cancel := context.WithCancel(context.Background())
	cancelled, err := src.Fetch(ctx, time.Minute)
	req.NoError(err)

	clock.Advance(20 * time.Millisecond)
	awaitSettled(t, resolved)
	cancel()
	awaitSettled(t, cancelled)

	req.Len(records, 2)
	req.Equal(resolved.ID(), records[0].ID)
	req.Equal(domain.RESOLVED, records[0].State)
	req.Equal(domain.FetchResult{"x"}, records[0].Items)
	req.Equal(20*time.Millisecond, records[0].Delay)
	req.Equal(epoch, records[0].RequestedAt)
	req.Equal(epoch.Add(20*time.Millisecond), records[0].SettledAt)
	req.Empty(records[0].Error)

	req.Equal(cancelled.ID(), records[1].ID)
	req.Equal(domain.CANCELLED, records[1].State)
	req.Nil(records[1].Items)
	req.Contains(records[1].Error, "fetch canceled")

	snapshot := stats.Snapshot()
	req.Equal(uint64(2), snapshot.Started)
	req.Equal(uint64(1), snapshot.Resolved)
	req.Equal(uint64(1), snapshot.Cancelled)
	req.Zero(snapshot.InFlight)
}

func TestFetch_JournalFailureDoesNotFailFetch(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	journal := mocks.NewMockIFetchRepository(ctrl)
	clock := clockwork.NewFakeClockAt(epoch)
	src := source.NewDelayedDataSource(slog.Default(), clock, journal, nil)

	journal.EXPECT().StoreFetch(gomock.Any()).Return(fmt.Errorf("disk full")).Times(1)

	future, err := src.Fetch(context.Background(), time.Millisecond)
	req.NoError(err)
	clock.Advance(time.Millisecond)

	items, err := future.Await(context.Background())
	req.NoError(err)
	req.Equal(domain.DefaultFruits(), items)
}

func TestFetch_ConcurrentCallers(t *testing.T) {
	req := require.New(t)
	src := newSource(nil)

	var wg sync.WaitGroup
	results := make([]domain.FetchResult, 20)
	errs := make([]error, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			future, err := src.Fetch(context.Background(), time.Duration(i)*time.Millisecond, source.WithData(fmt.Sprint(i)))
			if err != nil {
				errs[i] = err
				return
			}
			results[i], errs[i] = future.Await(context.Background())
		}(i)
	}
	wg.Wait()

	for i := range results {
		req.NoError(errs[i])
		req.Equal(domain.FetchResult{fmt.Sprint(i)}, results[i])
	}
}
