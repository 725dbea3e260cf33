package gamma

import (
	"context"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/schema"
)

// Switcher watches the current market's expiry and publishes a MarketSwitch
// once the next window's market is discoverable. The event blocks rather than
// sheds; missing a switch would leave the loop quoting a dead market.
type Switcher struct {
	client *Client
	queue  *bus.Queue

	// OnSwitch runs before the event is enqueued, e.g. to rebind feeds.
	OnSwitch func(schema.Market)
}

func NewSwitcher(client *Client, queue *bus.Queue) *Switcher {
	return &Switcher{client: client, queue: queue}
}

// Run blocks, rolling from market to market, until the context ends.
// current is the market the loop started on.
func (s *Switcher) Run(ctx context.Context, current schema.Market) {
	for ctx.Err() == nil {
		next, ok := s.awaitNext(ctx, current)
		if !ok {
			return
		}
		if s.OnSwitch != nil {
			s.OnSwitch(next)
		}
		if err := s.queue.Publish(ctx, schema.Event{
			Kind:   schema.EventMarketSwitch,
			At:     time.Now(),
			Market: next,
		}); err != nil {
			return
		}
		logs.Infof("market switch published: %s", next.Slug)
		current = next
	}
}

// awaitNext sleeps until the current market expires, then polls discovery
// until the next window's market exists. Listings can lag the boundary by a
// few seconds, so not-found is retried, not fatal.
func (s *Switcher) awaitNext(ctx context.Context, current schema.Market) (schema.Market, bool) {
	if wait := time.Until(current.EndAt); wait > 0 {
		select {
		case <-ctx.Done():
			return schema.Market{}, false
		case <-time.After(wait):
		}
	}

	for ctx.Err() == nil {
		next, err := s.client.Current(ctx, time.Now())
		if err == nil && next.ID != current.ID {
			return next, true
		}
		if err != nil {
			logs.Warnf("discover next market: %+v", err)
		}
		select {
		case <-ctx.Done():
			return schema.Market{}, false
		case <-time.After(2 * time.Second):
		}
	}
	return schema.Market{}, false
}
