package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"

	"main/internal/bus"
	"main/internal/engine"
	"main/internal/executor"
	"main/internal/feeds"
	"main/internal/gamma"
	"main/internal/journal"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/reconcile"
	"main/internal/risk"
	"main/internal/schema"
	"main/internal/state"
	"main/internal/strategy"
)

// Live submission needs an order-signing collaborator that is deployed
// separately; until it is wired in, only paper mode runs end to end.
var errLiveVenue = errors.New("live venue requires an order signer, run with -paper")

func main() {
	configPath := flag.String("config", "config.json", "Path to JSON config")
	paper := flag.Bool("paper", false, "Run against the in-process simulator instead of a live venue")
	flag.Parse()

	loaded, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if addr := loaded.Engine.PyroscopeServerURL; addr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "mmbot",
			ServerAddress:   addr,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer profiler.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, loaded, *paper); err != nil {
		log.Fatalf("run failed: %v", err)
	}
}

func run(ctx context.Context, loaded ops.Loaded, paper bool) error {
	duration := time.Duration(loaded.Market.DurationMinutes) * time.Minute
	discovery := gamma.NewClient(loaded.Market.GammaBaseURL, duration)
	market, err := discovery.Current(ctx, time.Now())
	if err != nil {
		return err
	}
	log.Printf("discovered market %s, ends %s", market.Slug, market.EndAt.Format(time.RFC3339))

	jnl, err := journal.Open(loaded.Journal.PostgresDSN)
	if err != nil {
		return err
	}
	defer jnl.Close()

	queue := bus.NewQueue(loaded.Engine.QueueCapacity)
	actions := make(chan schema.Action, 256)
	metrics := obs.NewMetrics()
	store := state.NewStore(market)

	loop := engine.NewLoop(
		engine.Config{
			StaleBookAfter: time.Duration(loaded.Engine.StaleBookSeconds) * time.Second,
			ShutdownGrace:  time.Duration(loaded.Engine.ShutdownGraceSecs) * time.Second,
		},
		store,
		strategy.NewEngine(loaded.Strategy),
		risk.NewEngine(loaded.Risk),
		reconcile.NewEngine(loaded.Reconcile),
		queue,
		actions,
		metrics,
		jnl,
	)

	polymarket := feeds.NewPolymarket(loaded.Feeds.PolymarketURL, queue, metrics)
	polymarket.SetMarket(market)

	var sim *executor.Simulator
	if paper {
		sim = executor.NewSimulator(queue)
		polymarket.OnQuote = func(ctx context.Context, side schema.Side, _, ask schema.OptTicks) {
			sim.SetQuote(ctx, side, ask)
		}
		log.Printf("paper mode: simulator venue")
	} else {
		return errLiveVenue
	}
	exec := executor.New(executor.Config{}, sim, actions)
	sim.OnEvent = exec.Observe

	binance := feeds.NewBinance(loaded.Feeds.BinanceURL, queue, metrics)
	ticker := feeds.NewTicker(time.Second, queue, metrics)

	switcher := gamma.NewSwitcher(discovery, queue)
	switcher.OnSwitch = polymarket.SetMarket

	feedCtx, stopFeeds := context.WithCancel(context.Background())
	defer stopFeeds()

	var wg sync.WaitGroup
	for _, f := range []func(context.Context){
		polymarket.Run,
		binance.Run,
		ticker.Run,
		func(ctx context.Context) { switcher.Run(ctx, market) },
		exec.Run,
	} {
		wg.Add(1)
		go func(run func(context.Context)) {
			defer wg.Done()
			run(feedCtx)
		}(f)
	}

	// Signal cancellation turns into an ordered Shutdown event; the loop owns
	// the drain and the final CancelAll.
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		_ = queue.Publish(context.Background(), schema.Event{Kind: schema.EventShutdown, At: time.Now()})
	}()

	err = loop.Run(context.Background())
	stopFeeds()
	wg.Wait()
	queue.Close()
	return err
}
