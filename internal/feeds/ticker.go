package feeds

import (
	"context"
	"time"

	"main/internal/bus"
	"main/internal/obs"
	"main/internal/schema"
)

// Ticker drives time-based transitions (market expiry, refill delays) even
// when the feeds are quiet. Ticks are droppable: the next one carries the
// same information.
type Ticker struct {
	interval time.Duration
	queue    *bus.Queue
	metrics  *obs.Metrics
}

func NewTicker(interval time.Duration, queue *bus.Queue, metrics *obs.Metrics) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{interval: interval, queue: queue, metrics: metrics}
}

// Run blocks until the context ends.
func (t *Ticker) Run(ctx context.Context) {
	tick := time.NewTicker(t.interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tick.C:
			enqueue(ctx, t.queue, t.metrics, schema.Event{Kind: schema.EventTick, At: now})
		}
	}
}
