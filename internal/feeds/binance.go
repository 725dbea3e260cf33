package feeds

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/decimal"
	"github.com/yanun0323/errors"

	"main/internal/bus"
	"main/internal/obs"
	"main/internal/schema"
)

const DefaultBinanceURL = "wss://stream.binance.com:9443/ws/btcusdt@trade"

type binanceTrade struct {
	Price decimal.Decimal `json:"p"`
}

// Binance streams the BTC spot reference price. Its events are droppable;
// nothing decision-bearing is lost if one is shed.
type Binance struct {
	url     string
	queue   *bus.Queue
	metrics *obs.Metrics
}

func NewBinance(url string, queue *bus.Queue, metrics *obs.Metrics) *Binance {
	if url == "" {
		url = DefaultBinanceURL
	}
	return &Binance{url: url, queue: queue, metrics: metrics}
}

// Run blocks, reconnecting forever, until the context ends.
func (b *Binance) Run(ctx context.Context) {
	runSessions(ctx, schema.FeedBinance, b.queue, b.metrics, b.session)
}

func (b *Binance) session(ctx context.Context, connected func()) error {
	conn, err := dial(ctx, b.url)
	if err != nil {
		return errors.Wrap(err, "dial binance")
	}
	defer conn.Close()
	connected()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(err, "read binance")
		}
		var trade binanceTrade
		if err := sonic.Unmarshal(data, &trade); err != nil {
			continue
		}
		enqueue(ctx, b.queue, b.metrics, schema.Event{
			Kind: schema.EventBtcPrice,
			At:   time.Now(),
			Spot: trade.Price,
		})
	}
}
