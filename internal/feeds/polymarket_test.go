package feeds

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

func TestQuoteForMapsAssetToSide(t *testing.T) {
	frame := bestBidAsk{EventType: "best_bid_ask", BestBid: "0.475", BestAsk: "0.490"}

	q := quoteFor(schema.SideYes, frame)
	assert.Equal(t, schema.SomeTicks(475), q.YesBid)
	assert.Equal(t, schema.SomeTicks(490), q.YesAsk)
	assert.False(t, q.NoBid.Set)
	assert.False(t, q.NoAsk.Set)

	q = quoteFor(schema.SideNo, frame)
	assert.Equal(t, schema.SomeTicks(475), q.NoBid)
	assert.Equal(t, schema.SomeTicks(490), q.NoAsk)
	assert.False(t, q.YesBid.Set)
}

func TestQuoteForKeepsUnparseableUnset(t *testing.T) {
	q := quoteFor(schema.SideYes, bestBidAsk{BestBid: "", BestAsk: "0.52"})
	assert.False(t, q.YesBid.Set, "an empty price means no liquidity, not zero")
	assert.Equal(t, schema.SomeTicks(520), q.YesAsk)

	q = quoteFor(schema.SideYes, bestBidAsk{BestBid: "0.12345", BestAsk: "1.2"})
	assert.False(t, q.YesBid.Set)
	assert.False(t, q.YesAsk.Set)
}

func TestBestBidAskFrameDecode(t *testing.T) {
	raw := []byte(`{"event_type":"best_bid_ask","asset_id":"tok-yes","best_bid":"0.47","best_ask":"0.49"}`)
	var frame bestBidAsk
	require.NoError(t, sonic.Unmarshal(raw, &frame))
	assert.Equal(t, "best_bid_ask", frame.EventType)
	assert.Equal(t, "tok-yes", frame.AssetID)
	assert.Equal(t, "0.47", frame.BestBid)
	assert.Equal(t, "0.49", frame.BestAsk)
}

func TestSubscribeMessageShape(t *testing.T) {
	data, err := sonic.Marshal(subscribeMsg{
		AssetsIDs:            []string{"a", "b"},
		Operation:            "subscribe",
		CustomFeatureEnabled: true,
	})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, sonic.Unmarshal(data, &decoded))
	assert.Equal(t, "subscribe", decoded["operation"])
	assert.Contains(t, decoded, "assets_ids")
	assert.Equal(t, true, decoded["custom_feature_enabled"])
}

func TestBinanceTradeDecode(t *testing.T) {
	raw := []byte(`{"e":"trade","p":"64123.45","q":"0.001"}`)
	var trade binanceTrade
	require.NoError(t, sonic.Unmarshal(raw, &trade))
	assert.Equal(t, "64123.45", trade.Price.String())
}
