package obs

import (
	"sync/atomic"
	"time"
)

// LatencyStats aggregates duration samples without locks. Min uses zero as
// its unset sentinel, which conflates with a true zero-length sample; at
// nanosecond resolution no pipeline run is ever that fast.
type LatencyStats struct {
	count atomic.Uint64
	sum   atomic.Uint64
	min   atomic.Uint64
	max   atomic.Uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Observe records one duration sample. Negative samples come from clock
// adjustments and are discarded.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	n := uint64(d)
	l.count.Add(1)
	l.sum.Add(n)

	for {
		cur := l.min.Load()
		if cur != 0 && n >= cur {
			break
		}
		if l.min.CompareAndSwap(cur, n) {
			break
		}
	}
	for {
		cur := l.max.Load()
		if n <= cur {
			break
		}
		if l.max.CompareAndSwap(cur, n) {
			break
		}
	}
}

// Snapshot returns the aggregated stats so far.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := l.count.Load()
	if count == 0 {
		return LatencySnapshot{}
	}
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(l.min.Load()),
		Max:   time.Duration(l.max.Load()),
		Avg:   time.Duration(l.sum.Load() / count),
	}
}
