package observability

import (
	"fake-fetch/domain"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/shirou/gopsutil/process"
)

// FetchStats counts fetches by outcome. Safe for concurrent use.
type FetchStats struct {
	log       *slog.Logger
	started   uint64
	resolved  uint64
	rejected  uint64
	cancelled uint64
}

func NewFetchStats(log *slog.Logger) *FetchStats {
	return &FetchStats{log: log}
}

func (fs *FetchStats) FetchStarted() {
	atomic.AddUint64(&fs.started, 1)
}

func (fs *FetchStats) FetchSettled(state domain.FetchState) {
	switch state {
	case domain.RESOLVED:
		atomic.AddUint64(&fs.resolved, 1)
	case domain.REJECTED:
		atomic.AddUint64(&fs.rejected, 1)
	case domain.CANCELLED:
		atomic.AddUint64(&fs.cancelled, 1)
	}
}

// Snapshot reads the counters and the resident memory of the current process.
// RSS stays at zero when the OS refuses to report it.
func (fs *FetchStats) Snapshot() domain.StatsSnapshot {
	snapshot := domain.StatsSnapshot{
		Started:   atomic.LoadUint64(&fs.started),
		Resolved:  atomic.LoadUint64(&fs.resolved),
		Rejected:  atomic.LoadUint64(&fs.rejected),
		Cancelled: atomic.LoadUint64(&fs.cancelled),
	}
	settled := snapshot.Resolved + snapshot.Rejected + snapshot.Cancelled
	if snapshot.Started > settled {
		snapshot.InFlight = snapshot.Started - settled
	}

	rss, err := selfRSS()
	if err != nil {
		fs.log.Debug("Failed to read process memory", "error", err)
		return snapshot
	}
	snapshot.RSSBytes = rss
	return snapshot
}

func selfRSS() (uint64, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return memInfo.RSS, nil
}
