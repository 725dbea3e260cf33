package executor

import (
	"context"
	"sync"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/schema"
)

type simOrder struct {
	id        string
	side      schema.Side
	price     schema.Ticks
	remaining schema.Shares
}

// Simulator is an in-process venue for paper trading. Orders rest against
// the ask it is told about; confirmations flow back through the intake queue
// exactly like a live venue, so the loop cannot tell the difference.
type Simulator struct {
	queue *bus.Queue

	// OnEvent, when set, sees every confirmation before it is enqueued. The
	// executor taps this to keep its order lifecycle tracker current.
	OnEvent func(ev schema.Event)

	mu      sync.Mutex
	asks    [2]schema.OptTicks
	resting map[string]simOrder
}

func NewSimulator(queue *bus.Queue) *Simulator {
	return &Simulator{
		queue:   queue,
		resting: make(map[string]simOrder),
	}
}

// SetQuote updates one side's best ask and fills any resting bid the new ask
// crosses. A maker order fills at its own price.
func (s *Simulator) SetQuote(ctx context.Context, side schema.Side, ask schema.OptTicks) {
	s.mu.Lock()
	s.asks[side] = ask

	var filled []simOrder
	if ask.Set {
		for id, o := range s.resting {
			if o.side == side && o.price >= ask.Ticks {
				filled = append(filled, o)
				delete(s.resting, id)
			}
		}
	}
	s.mu.Unlock()

	for _, o := range filled {
		s.emitFill(ctx, o.id, o.side, o.price, o.remaining, true)
	}
}

// Place rests the order, or fills it immediately when it already crosses.
func (s *Simulator) Place(ctx context.Context, a schema.Action) error {
	s.mu.Lock()
	ask := s.asks[a.Side]
	if ask.Set && a.PriceTicks >= ask.Ticks {
		s.mu.Unlock()
		// Crossed on arrival: taker fill at the ask.
		s.emitFill(ctx, a.OrderID, a.Side, ask.Ticks, a.Size, false)
		return nil
	}
	s.resting[a.OrderID] = simOrder{
		id:        a.OrderID,
		side:      a.Side,
		price:     a.PriceTicks,
		remaining: a.Size,
	}
	s.mu.Unlock()
	return nil
}

// Cancel removes a resting order and confirms it. Unknown IDs still confirm;
// the venue treats a cancel of a gone order as already done.
func (s *Simulator) Cancel(ctx context.Context, orderID string) error {
	s.mu.Lock()
	delete(s.resting, orderID)
	s.mu.Unlock()
	return s.publish(ctx, schema.Event{
		Kind:    schema.EventOrderCancelled,
		At:      time.Now(),
		OrderID: orderID,
	})
}

// CancelAll removes and confirms every resting order.
func (s *Simulator) CancelAll(ctx context.Context) error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.resting))
	for id := range s.resting {
		ids = append(ids, id)
	}
	s.resting = make(map[string]simOrder)
	s.mu.Unlock()

	for _, id := range ids {
		if err := s.publish(ctx, schema.Event{
			Kind:    schema.EventOrderCancelled,
			At:      time.Now(),
			OrderID: id,
		}); err != nil {
			return err
		}
	}
	return nil
}

// Take fills at the current ask when it is within the price cap, otherwise
// the liquidity is gone and the request expires without effect.
func (s *Simulator) Take(ctx context.Context, a schema.Action) error {
	s.mu.Lock()
	ask := s.asks[a.Side]
	s.mu.Unlock()

	if !ask.Set || ask.Ticks > a.MaxPriceTicks {
		logs.Warnf("take %s %d missed, ask moved", a.Side, a.Size)
		return nil
	}
	s.emitFill(ctx, "", a.Side, ask.Ticks, a.Size, false)
	return nil
}

func (s *Simulator) emitFill(ctx context.Context, orderID string, side schema.Side, price schema.Ticks, size schema.Shares, maker bool) {
	if err := s.publish(ctx, schema.Event{
		Kind:       schema.EventOrderFill,
		At:         time.Now(),
		OrderID:    orderID,
		FillSide:   side,
		PriceTicks: price,
		FillSize:   size,
		IsMaker:    maker,
	}); err != nil {
		logs.Errorf("emit fill for %s: %+v", orderID, err)
	}
}

func (s *Simulator) publish(ctx context.Context, ev schema.Event) error {
	if s.OnEvent != nil {
		s.OnEvent(ev)
	}
	return s.queue.Enqueue(ctx, ev)
}
