package feeds

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/yanun0323/errors"

	"main/internal/bus"
	"main/internal/obs"
	"main/internal/schema"
)

const DefaultPolymarketURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

type subscribeMsg struct {
	AssetsIDs            []string `json:"assets_ids"`
	Operation            string   `json:"operation"`
	CustomFeatureEnabled bool     `json:"custom_feature_enabled"`
}

type bestBidAsk struct {
	EventType string `json:"event_type"`
	AssetID   string `json:"asset_id"`
	BestBid   string `json:"best_bid"`
	BestAsk   string `json:"best_ask"`
}

// Polymarket streams best bid/ask for both outcome tokens of the current
// market. Book events are never shed; the loop depends on seeing every one.
type Polymarket struct {
	url     string
	queue   *bus.Queue
	metrics *obs.Metrics

	// OnQuote, when set, sees every forwarded quote before it is enqueued.
	// The paper venue taps this to fill resting orders against the real book.
	OnQuote func(ctx context.Context, side schema.Side, bid, ask schema.OptTicks)

	mu     sync.Mutex
	market schema.Market
	conn   *websocket.Conn
}

func NewPolymarket(url string, queue *bus.Queue, metrics *obs.Metrics) *Polymarket {
	if url == "" {
		url = DefaultPolymarketURL
	}
	return &Polymarket{url: url, queue: queue, metrics: metrics}
}

// SetMarket rebinds the feed to a new market's tokens. The live connection is
// torn down so the next session subscribes to the new assets.
func (p *Polymarket) SetMarket(m schema.Market) {
	p.mu.Lock()
	p.market = m
	conn := p.conn
	p.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// Run blocks, reconnecting forever, until the context ends.
func (p *Polymarket) Run(ctx context.Context) {
	runSessions(ctx, schema.FeedPolymarket, p.queue, p.metrics, p.session)
}

func (p *Polymarket) session(ctx context.Context, connected func()) error {
	p.mu.Lock()
	market := p.market
	p.mu.Unlock()
	if market.YesAsset == "" || market.NoAsset == "" {
		return errors.New("no market bound")
	}

	conn, err := dial(ctx, p.url)
	if err != nil {
		return errors.Wrap(err, "dial polymarket")
	}
	p.mu.Lock()
	p.conn = conn
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.conn = nil
		p.mu.Unlock()
		conn.Close()
	}()

	sub, err := sonic.Marshal(subscribeMsg{
		AssetsIDs:            []string{market.YesAsset, market.NoAsset},
		Operation:            "subscribe",
		CustomFeatureEnabled: true,
	})
	if err != nil {
		return errors.Wrap(err, "marshal subscribe")
	}
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		return errors.Wrap(err, "subscribe polymarket")
	}
	connected()

	// Dedupe per session; a fresh session always forwards its first frame so
	// the loop resyncs after a gap.
	var last [2]schema.BookQuote
	var seen [2]bool

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(err, "read polymarket")
		}
		var frame bestBidAsk
		if err := sonic.Unmarshal(data, &frame); err != nil || frame.EventType != "best_bid_ask" {
			continue
		}

		side, ok := market.AssetSide(frame.AssetID)
		if !ok {
			continue
		}

		quote := quoteFor(side, frame)
		if seen[side] && quote == last[side] {
			continue
		}
		last[side], seen[side] = quote, true

		if p.OnQuote != nil {
			bid, ask := quote.YesBid, quote.YesAsk
			if side == schema.SideNo {
				bid, ask = quote.NoBid, quote.NoAsk
			}
			p.OnQuote(ctx, side, bid, ask)
		}
		enqueue(ctx, p.queue, p.metrics, schema.Event{
			Kind:  schema.EventBookUpdate,
			At:    time.Now(),
			Quote: quote,
		})
	}
}

// quoteFor maps one asset's frame onto the merged quote. Unparseable or
// missing prices stay unset; the book keeps its previous belief for them.
func quoteFor(side schema.Side, frame bestBidAsk) schema.BookQuote {
	var bid, ask schema.OptTicks
	if t, err := schema.ParseTicks(frame.BestBid); err == nil {
		bid = schema.SomeTicks(t)
	}
	if t, err := schema.ParseTicks(frame.BestAsk); err == nil {
		ask = schema.SomeTicks(t)
	}

	var q schema.BookQuote
	if side == schema.SideYes {
		q.YesBid, q.YesAsk = bid, ask
	} else {
		q.NoBid, q.NoAsk = bid, ask
	}
	return q
}
