package gamma

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"

	"main/internal/schema"
)

const DefaultBaseURL = "https://gamma-api.polymarket.com"

var (
	ErrMarketNotFound = errors.New("gamma: market not found")
	ErrBadMarket      = errors.New("gamma: malformed market record")
)

type marketResponse struct {
	ConditionID  string `json:"conditionId"`
	Slug         string `json:"slug"`
	ClobTokenIDs string `json:"clobTokenIds"`
	EndDate      string `json:"endDate"`
}

// Client discovers the current BTC up/down market by its deterministic slug.
type Client struct {
	baseURL  string
	duration time.Duration
	http     *http.Client
}

// NewClient builds a discovery client for one series cadence (5m or 15m).
func NewClient(baseURL string, duration time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:  baseURL,
		duration: duration,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Slug returns the series slug for the window containing now. Windows open on
// boundaries of the cadence, so the slug is the epoch floored to it.
func (c *Client) Slug(now time.Time) string {
	secs := int64(c.duration / time.Second)
	epoch := now.Unix() - now.Unix()%secs
	return fmt.Sprintf("btc-updown-%dm-%d", int(c.duration/time.Minute), epoch)
}

// Current fetches the market for the window containing now.
func (c *Client) Current(ctx context.Context, now time.Time) (schema.Market, error) {
	return c.BySlug(ctx, c.Slug(now))
}

// BySlug fetches one market record.
func (c *Client) BySlug(ctx context.Context, slug string) (schema.Market, error) {
	url := fmt.Sprintf("%s/markets/slug/%s", c.baseURL, slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return schema.Market{}, errors.Wrap(err, "build request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return schema.Market{}, errors.Wrapf(err, "get %s", slug)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return schema.Market{}, errors.Wrapf(ErrMarketNotFound, "slug %s", slug)
	}
	if resp.StatusCode != http.StatusOK {
		return schema.Market{}, errors.Wrapf(ErrBadMarket, "unexpected status %d for %s", resp.StatusCode, slug)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return schema.Market{}, errors.Wrap(err, "read body")
	}
	var mr marketResponse
	if err := sonic.Unmarshal(body, &mr); err != nil {
		return schema.Market{}, errors.Wrapf(err, "decode market %s", slug)
	}
	return resolve(mr, slug, c.duration)
}

// resolve unpacks the record. clobTokenIds is a JSON array embedded in a
// string; the first element is the YES token, the second the NO token.
func resolve(mr marketResponse, slug string, duration time.Duration) (schema.Market, error) {
	var tokens []string
	if err := sonic.Unmarshal([]byte(mr.ClobTokenIDs), &tokens); err != nil {
		return schema.Market{}, errors.Wrapf(err, "decode clobTokenIds for %s", slug)
	}
	if len(tokens) < 2 {
		return schema.Market{}, errors.Wrapf(ErrBadMarket, "market %s has %d tokens, need 2", slug, len(tokens))
	}
	endAt, err := time.Parse(time.RFC3339, mr.EndDate)
	if err != nil {
		return schema.Market{}, errors.Wrapf(err, "parse endDate %q for %s", mr.EndDate, slug)
	}
	return schema.Market{
		ID:       mr.ConditionID,
		Slug:     slug,
		YesAsset: tokens[0],
		NoAsset:  tokens[1],
		EndAt:    endAt,
		Duration: duration,
	}, nil
}
