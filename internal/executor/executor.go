package executor

import (
	"context"
	"sync"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/schema"
)

// Exchange is the venue surface the executor drives. Implementations confirm
// outcomes asynchronously through the intake queue, never via return values;
// the return error only means the submission itself failed.
type Exchange interface {
	Place(ctx context.Context, a schema.Action) error
	Cancel(ctx context.Context, orderID string) error
	CancelAll(ctx context.Context) error
	Take(ctx context.Context, a schema.Action) error
}

// Config tunes submission retries.
type Config struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

// Executor drains the action channel and submits each action to the
// exchange. It is the only component that talks to the venue, so ordering of
// submissions matches the loop's emission order exactly.
type Executor struct {
	cfg      Config
	exchange Exchange
	actions  <-chan schema.Action

	// mu guards sm: submissions come from Run's goroutine, confirmations
	// arrive through Observe on the venue's.
	mu sync.Mutex
	sm *StateMachine
}

func New(cfg Config, exchange Exchange, actions <-chan schema.Action) *Executor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 250 * time.Millisecond
	}
	return &Executor{
		cfg:      cfg,
		exchange: exchange,
		actions:  actions,
		sm:       NewStateMachine(),
	}
}

// Run blocks until the action channel closes or the context ends.
func (e *Executor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case a, ok := <-e.actions:
			if !ok {
				return
			}
			e.submit(ctx, a)
		}
	}
}

// Observe applies venue confirmations to the lifecycle tracker and prunes
// orders that reached a terminal state. Fills without an order ID (takes)
// and IDs this executor never submitted are ignored.
func (e *Executor) Observe(ev schema.Event) {
	if ev.OrderID == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		o   *Order
		err error
	)
	switch ev.Kind {
	case schema.EventOrderFill:
		o, err = e.sm.ApplyFill(ev.OrderID, ev.FillSize)
	case schema.EventOrderCancelled:
		o, err = e.sm.ApplyCancel(ev.OrderID)
	default:
		return
	}
	if err != nil {
		if !errors.Is(err, ErrUnknownOrder) {
			logs.Warnf("confirm order %s: %+v", ev.OrderID, err)
		}
		return
	}
	if isTerminal(o.State) {
		e.sm.Forget(o.ID)
	}
}

func (e *Executor) submit(ctx context.Context, a schema.Action) {
	if a.Kind == schema.ActionPlace {
		e.mu.Lock()
		_, err := e.sm.ApplySubmit(a)
		e.mu.Unlock()
		if err != nil {
			logs.Errorf("track order %s: %+v", a.OrderID, err)
			return
		}
	}

	err := e.withRetry(ctx, func(ctx context.Context) error {
		switch a.Kind {
		case schema.ActionPlace:
			return e.exchange.Place(ctx, a)
		case schema.ActionCancel:
			return e.exchange.Cancel(ctx, a.OrderID)
		case schema.ActionCancelAll:
			return e.exchange.CancelAll(ctx)
		case schema.ActionTake:
			return e.exchange.Take(ctx, a)
		default:
			return errors.New("executor: unknown action kind")
		}
	})
	if err != nil {
		logs.Errorf("submit %s failed: %+v", a.Kind, err)
		if a.Kind == schema.ActionPlace {
			e.mu.Lock()
			_, _ = e.sm.ApplyReject(a.OrderID)
			e.sm.Forget(a.OrderID)
			e.mu.Unlock()
		}
		return
	}
	if a.Kind == schema.ActionPlace {
		e.mu.Lock()
		_, _ = e.sm.ApplyAck(a.OrderID)
		e.mu.Unlock()
	}
}

func (e *Executor) withRetry(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if attempt < e.cfg.MaxAttempts {
			logs.Warnf("submission attempt %d failed, retrying: %+v", attempt, err)
			select {
			case <-ctx.Done():
				return err
			case <-time.After(e.cfg.RetryDelay):
			}
		}
	}
	return err
}
