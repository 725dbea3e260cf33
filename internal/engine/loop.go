package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/obs"
	"main/internal/reconcile"
	"main/internal/risk"
	"main/internal/schema"
	"main/internal/state"
	"main/internal/strategy"
)

// Phase is the loop lifecycle.
type Phase uint8

const (
	PhaseInitializing Phase = iota
	PhaseActive
	PhaseSwitching
	PhaseShuttingDown
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseActive:
		return "active"
	case PhaseSwitching:
		return "switching"
	case PhaseShuttingDown:
		return "shutting_down"
	case PhaseTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Journal receives durable records of fills and risk transitions. A nil
// journal is valid and records nothing.
type Journal interface {
	RecordFill(market schema.Market, ev schema.Event)
	RecordRiskTransition(market schema.Market, tr risk.Transition, at time.Time)
}

// Config tunes the loop.
type Config struct {
	// StaleBookAfter suppresses exposure-increasing actions once the book has
	// not updated for this long.
	StaleBookAfter time.Duration
	// ShutdownGrace bounds the drain of in-flight events after Shutdown.
	ShutdownGrace time.Duration
}

// Loop is the single-threaded core. It consumes the intake queue one event at
// a time, runs the full pipeline and emits actions; nothing else touches the
// Store, so no stage ever sees a half-applied update.
type Loop struct {
	cfg     Config
	store   *state.Store
	strat   *strategy.Engine
	risk    *risk.Engine
	recon   *reconcile.Engine
	queue   *bus.Queue
	actions chan<- schema.Action
	metrics *obs.Metrics
	journal Journal

	phase       Phase
	nextOrderID uint64
	bookFeedUp  bool
}

func NewLoop(
	cfg Config,
	store *state.Store,
	strat *strategy.Engine,
	riskEng *risk.Engine,
	recon *reconcile.Engine,
	queue *bus.Queue,
	actions chan<- schema.Action,
	metrics *obs.Metrics,
	journal Journal,
) *Loop {
	if cfg.StaleBookAfter <= 0 {
		cfg.StaleBookAfter = 5 * time.Second
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 3 * time.Second
	}
	return &Loop{
		cfg:        cfg,
		store:      store,
		strat:      strat,
		risk:       riskEng,
		recon:      recon,
		queue:      queue,
		actions:    actions,
		metrics:    metrics,
		journal:    journal,
		phase:      PhaseInitializing,
		bookFeedUp: true,
	}
}

// Phase reports the current lifecycle phase.
func (l *Loop) Phase() Phase {
	return l.phase
}

// Run processes events until a Shutdown event arrives or the context ends.
// Identical event sequences drive identical decisions: every time-dependent
// check uses the event's own timestamp, never the wall clock.
func (l *Loop) Run(ctx context.Context) error {
	l.phase = PhaseActive
	logs.Infof("loop active, market %s", l.store.Market().Slug)

	for {
		ev, ok := l.queue.Next(ctx)
		if !ok {
			l.shutdown()
			return ctx.Err()
		}
		l.metrics.ObserveEvent(ev.Kind)
		if ev.Kind == schema.EventShutdown {
			l.shutdown()
			return nil
		}
		started := time.Now()
		l.handle(ev)
		l.metrics.ObserveCycle(time.Since(started))
	}
}

// handle routes one event. The switch is exhaustive over the defined kinds;
// anything else is a construction bug upstream and aborts the cycle.
func (l *Loop) handle(ev schema.Event) {
	switch ev.Kind {
	case schema.EventBtcPrice:
		// Reference price only. It never feeds a decision, so no pipeline run.

	case schema.EventBookUpdate:
		l.store.Book().Apply(ev.Quote, ev.At)
		l.pipeline(ev.At)

	case schema.EventOrderFill:
		l.store.Position().ApplyFill(ev.FillSide, ev.PriceTicks, ev.FillSize)
		l.store.Orders().ApplyFill(ev.OrderID, ev.FillSize, ev.At)
		if l.journal != nil {
			l.journal.RecordFill(l.store.Market(), ev)
		}
		logs.Infof("fill %s %d@%d maker=%t order=%s", ev.FillSide, ev.FillSize, ev.PriceTicks, ev.IsMaker, ev.OrderID)
		l.pipeline(ev.At)

	case schema.EventOrderCancelled:
		l.store.Orders().Remove(ev.OrderID)
		l.pipeline(ev.At)

	case schema.EventTick:
		l.pipeline(ev.At)

	case schema.EventFeedDisconnected:
		logs.Warnf("feed %s disconnected", ev.Feed)
		if ev.Feed == schema.FeedPolymarket {
			l.bookFeedUp = false
		}

	case schema.EventFeedReconnected:
		logs.Infof("feed %s reconnected", ev.Feed)
		if ev.Feed == schema.FeedPolymarket {
			l.bookFeedUp = true
			l.pipeline(ev.At)
		}

	case schema.EventMarketSwitch:
		l.switchMarket(ev.Market)

	default:
		logs.Errorf("unhandled event kind %d, cycle aborted", ev.Kind)
		l.metrics.IncCycleAbort()
	}
}

// switchMarket flattens the old market and rebinds all state to the new one.
// Ordering matters: the CancelAll goes out against the old market before any
// state resets, so no order survives under a market we no longer track.
func (l *Loop) switchMarket(m schema.Market) {
	l.phase = PhaseSwitching
	logs.Infof("switching market %s -> %s", l.store.Market().Slug, m.Slug)

	l.emit(schema.CancelAll())
	l.store.Switch(m)
	l.risk.OnMarketSwitch()

	l.phase = PhaseActive
	logs.Infof("loop active, market %s", m.Slug)
}

// shutdown flattens everything, drains stragglers for the grace window and
// terminates. Late fill confirmations inside the window still update the
// position so the final journal state is honest.
func (l *Loop) shutdown() {
	l.phase = PhaseShuttingDown
	logs.Info("shutting down, cancelling all orders")
	l.emit(schema.CancelAll())
	l.store.Orders().Reset()

	ctx, cancel := context.WithTimeout(context.Background(), l.cfg.ShutdownGrace)
	defer cancel()
	for {
		ev, ok := l.queue.Next(ctx)
		if !ok {
			break
		}
		switch ev.Kind {
		case schema.EventOrderFill:
			l.store.Position().ApplyFill(ev.FillSide, ev.PriceTicks, ev.FillSize)
			if l.journal != nil {
				l.journal.RecordFill(l.store.Market(), ev)
			}
		case schema.EventOrderCancelled:
			// Already forgotten by the reset above.
		}
	}

	close(l.actions)
	l.phase = PhaseTerminated
	snap := l.metrics.Snapshot()
	logs.Infof("terminated: events=%v actions=%v drops=%d aborts=%d",
		snap.EventCounts, snap.ActionCounts, snap.QueueDrops, snap.CycleAborts)
}

// pipeline runs one full decision cycle against the current state snapshot.
func (l *Loop) pipeline(now time.Time) {
	view := l.store.View()

	target := l.strat.Target(view, now)
	res := l.risk.Apply(target, view)

	if res.Transition != nil {
		logs.Warnf("risk transition %s -> %s at pnl %d mUSD", res.Transition.From, res.Transition.To, res.Transition.PnL)
		if l.journal != nil {
			l.journal.RecordRiskTransition(l.store.Market(), *res.Transition, now)
		}
	}
	if suppressed := len(target.Entries) - len(res.Target.Entries); suppressed > 0 {
		for i := 0; i < suppressed; i++ {
			l.metrics.IncRiskBlock()
		}
	}
	if res.CancelAll {
		l.emit(schema.CancelAll())
		l.store.Orders().Reset()
		return
	}

	actions, err := l.recon.Diff(res.Target, view.Orders)
	if err != nil {
		logs.Errorf("reconcile rejected target, cycle aborted: %+v", err)
		l.metrics.IncCycleAbort()
		return
	}

	stale := !l.bookFeedUp || view.Book.Age(now) > l.cfg.StaleBookAfter
	for _, a := range actions {
		if stale && (a.Kind == schema.ActionPlace || a.Kind == schema.ActionTake) {
			l.metrics.IncStaleBlock()
			continue
		}
		if a.Kind == schema.ActionPlace {
			a.OrderID = l.assignOrderID()
			l.store.Orders().Add(state.RestingOrder{
				ID:         a.OrderID,
				Side:       a.Side,
				PriceTicks: a.PriceTicks,
				Remaining:  a.Size,
				PlacedAt:   now,
				Maker:      true,
			})
		}
		l.emit(a)
	}
}

// assignOrderID mints a client order ID. The loop names orders at emission so
// the tracker and the executor agree on the name before the exchange replies.
func (l *Loop) assignOrderID() string {
	l.nextOrderID++
	return fmt.Sprintf("mm-%d", l.nextOrderID)
}

func (l *Loop) emit(a schema.Action) {
	l.metrics.ObserveAction(a.Kind)
	l.actions <- a
}
