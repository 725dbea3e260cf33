package obs

import (
	"sync/atomic"
	"time"

	"main/internal/schema"
)

// Metrics collects lightweight counters and latency stats for the core loop.
// All methods are nil-safe so wiring stays optional.
type Metrics struct {
	eventCounts  [schema.EventKindCount]uint64
	actionCounts [schema.ActionKindCount]uint64
	queueDrops   uint64
	cycleAborts  uint64
	riskBlocks   uint64
	staleBlocks  uint64

	cycleLatency LatencyStats
}

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	EventCounts  map[schema.EventKind]uint64
	ActionCounts map[schema.ActionKind]uint64
	QueueDrops   uint64
	CycleAborts  uint64
	RiskBlocks   uint64
	StaleBlocks  uint64
	CycleLatency LatencySnapshot
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveEvent counts a processed event.
func (m *Metrics) ObserveEvent(kind schema.EventKind) {
	if m == nil {
		return
	}
	if idx := int(kind); idx >= 0 && idx < len(m.eventCounts) {
		atomic.AddUint64(&m.eventCounts[idx], 1)
	}
}

// ObserveAction counts an emitted action.
func (m *Metrics) ObserveAction(kind schema.ActionKind) {
	if m == nil {
		return
	}
	if idx := int(kind); idx >= 0 && idx < len(m.actionCounts) {
		atomic.AddUint64(&m.actionCounts[idx], 1)
	}
}

// IncQueueDrop records a shed telemetry event.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// IncCycleAbort records a cycle abandoned on an invariant violation.
func (m *Metrics) IncCycleAbort() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.cycleAborts, 1)
}

// IncRiskBlock records an action suppressed by a risk gate.
func (m *Metrics) IncRiskBlock() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.riskBlocks, 1)
}

// IncStaleBlock records a Place/Take suppressed by book staleness.
func (m *Metrics) IncStaleBlock() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.staleBlocks, 1)
}

// ObserveCycle measures one full pipeline run.
func (m *Metrics) ObserveCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.cycleLatency.Observe(d)
}

// Snapshot returns a copy of the current values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	events := make(map[schema.EventKind]uint64)
	for i := range m.eventCounts {
		if v := atomic.LoadUint64(&m.eventCounts[i]); v > 0 {
			events[schema.EventKind(i)] = v
		}
	}
	actions := make(map[schema.ActionKind]uint64)
	for i := range m.actionCounts {
		if v := atomic.LoadUint64(&m.actionCounts[i]); v > 0 {
			actions[schema.ActionKind(i)] = v
		}
	}
	return Snapshot{
		EventCounts:  events,
		ActionCounts: actions,
		QueueDrops:   atomic.LoadUint64(&m.queueDrops),
		CycleAborts:  atomic.LoadUint64(&m.cycleAborts),
		RiskBlocks:   atomic.LoadUint64(&m.riskBlocks),
		StaleBlocks:  atomic.LoadUint64(&m.staleBlocks),
		CycleLatency: m.cycleLatency.Snapshot(),
	}
}
