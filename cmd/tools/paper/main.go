package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"sync"
	"time"

	"main/internal/bus"
	"main/internal/engine"
	"main/internal/executor"
	"main/internal/obs"
	"main/internal/reconcile"
	"main/internal/risk"
	"main/internal/schema"
	"main/internal/state"
	"main/internal/strategy"
)

// walker produces a bounded random walk of the YES mid price, quoting a
// symmetric spread on both assets. Complement pricing keeps the two books
// consistent: the NO ask mirrors the YES bid across par.
type walker struct {
	rng    *rand.Rand
	mid    schema.Ticks
	spread schema.Ticks
}

func newWalker(seed int64, spread schema.Ticks) *walker {
	return &walker{
		rng:    rand.New(rand.NewSource(seed)),
		mid:    schema.ParTicks / 2,
		spread: spread,
	}
}

func (w *walker) next() schema.BookQuote {
	w.mid += schema.Ticks(w.rng.Intn(11) - 5)
	if w.mid < 100 {
		w.mid = 100
	}
	if w.mid > 900 {
		w.mid = 900
	}
	yesBid := w.mid - w.spread
	yesAsk := w.mid + w.spread
	return schema.BookQuote{
		YesBid: schema.SomeTicks(yesBid),
		YesAsk: schema.SomeTicks(yesAsk),
		NoBid:  schema.SomeTicks(schema.ParTicks - yesAsk),
		NoAsk:  schema.SomeTicks(schema.ParTicks - yesBid),
	}
}

func main() {
	run := flag.Duration("run", 30*time.Second, "Synthetic market lifetime")
	step := flag.Duration("step", 20*time.Millisecond, "Delay between book updates")
	seed := flag.Int64("seed", 1, "Walk seed")
	spread := flag.Int64("spread", 15, "Half-spread in ticks")
	maxPos := flag.Int64("max-position", 120, "Per-side position limit in shares")
	flag.Parse()

	start := time.Now()
	market := schema.Market{
		ID:       "paper",
		Slug:     "paper-btc-updown",
		YesAsset: "paper-yes",
		NoAsset:  "paper-no",
		EndAt:    start.Add(*run),
		Duration: *run,
	}

	queue := bus.NewQueue(1024)
	actions := make(chan schema.Action, 256)
	metrics := obs.NewMetrics()
	store := state.NewStore(market)

	stratCfg := strategy.DefaultConfig()
	riskCfg := risk.Config{
		MaxPosition:    schema.Shares(*maxPos),
		MinOrderSize:   stratCfg.MinOrderSize,
		ProfitLock:     50_000,
		CircuitBreaker: 25_000,
	}

	sim := executor.NewSimulator(queue)
	exec := executor.New(executor.Config{}, sim, actions)
	sim.OnEvent = exec.Observe
	loop := engine.NewLoop(
		engine.Config{StaleBookAfter: 5 * time.Second, ShutdownGrace: time.Second},
		store,
		strategy.NewEngine(stratCfg),
		risk.NewEngine(riskCfg),
		reconcile.NewEngine(reconcile.Config{}),
		queue,
		actions,
		metrics,
		nil,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		exec.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		drive(ctx, queue, sim, newWalker(*seed, schema.Ticks(*spread)), market.EndAt, *step)
	}()

	if err := loop.Run(ctx); err != nil {
		log.Fatalf("loop failed: %v", err)
	}
	cancel()
	wg.Wait()

	report(store, metrics)
}

// drive feeds the walk into both the simulator and the intake queue until the
// market expires, then requests shutdown.
func drive(ctx context.Context, queue *bus.Queue, sim *executor.Simulator, w *walker, endAt time.Time, step time.Duration) {
	tick := time.NewTicker(step)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tick.C:
			if !now.Before(endAt) {
				_ = queue.Publish(ctx, schema.Event{Kind: schema.EventShutdown, At: now})
				return
			}
			quote := w.next()
			sim.SetQuote(ctx, schema.SideYes, quote.YesAsk)
			sim.SetQuote(ctx, schema.SideNo, quote.NoAsk)
			_ = queue.Enqueue(ctx, schema.Event{Kind: schema.EventBookUpdate, At: now, Quote: quote})
		}
	}
}

func report(store *state.Store, metrics *obs.Metrics) {
	pos := store.Position()
	snap := metrics.Snapshot()
	log.Printf("events=%v actions=%v drops=%d aborts=%d stale_blocks=%d",
		snap.EventCounts, snap.ActionCounts, snap.QueueDrops, snap.CycleAborts, snap.StaleBlocks)
	log.Printf("position yes=%d no=%d imbalance=%d min_pnl=%d mUSD",
		pos.Qty(schema.SideYes), pos.Qty(schema.SideNo), pos.Imbalance(), pos.MinPnL())
}
