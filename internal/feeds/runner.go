package feeds

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/obs"
	"main/internal/schema"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// sessionFunc runs one connection until it dies. It calls connected once the
// link is established, before the first message.
type sessionFunc func(ctx context.Context, connected func()) error

// runSessions dials and runs session repeatedly until the context ends,
// backing off exponentially between failures. Connectivity events go through
// the queue like everything else so the core loop learns about gaps in order.
func runSessions(ctx context.Context, feed schema.Feed, q *bus.Queue, m *obs.Metrics, session sessionFunc) {
	backoff := initialBackoff
	sessions := 0

	for ctx.Err() == nil {
		sawConn := false
		err := session(ctx, func() {
			sawConn = true
			sessions++
			backoff = initialBackoff
			logs.Infof("feed %s connected", feed)
			if sessions > 1 {
				enqueue(ctx, q, m, schema.Event{Kind: schema.EventFeedReconnected, At: time.Now(), Feed: feed})
			}
		})
		if ctx.Err() != nil {
			return
		}
		logs.Warnf("feed %s session ended: %+v", feed, err)
		if sawConn {
			enqueue(ctx, q, m, schema.Event{Kind: schema.EventFeedDisconnected, At: time.Now(), Feed: feed})
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// enqueue routes an event into the intake queue and counts shed telemetry,
// so the drop counter reflects what the loop never saw.
func enqueue(ctx context.Context, q *bus.Queue, m *obs.Metrics, ev schema.Event) {
	if err := q.Enqueue(ctx, ev); errors.Is(err, bus.ErrQueueFull) {
		m.IncQueueDrop()
	}
}

// dial opens a websocket and arranges for context cancellation to unblock the
// read loop.
func dial(ctx context.Context, url string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	return conn, nil
}
