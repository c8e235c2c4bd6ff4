package coingecko

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"LiqPull/internal/domain/models"
	drepo "LiqPull/internal/domain/repository"
	xhttp "LiqPull/pkg/http"
)

const (
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	DefaultAssetID = "bitcoin"
	DefaultTimeout = 10 * time.Second
)

// Client implements PriceSource using the CoinGecko simple price endpoint.
type Client struct {
	baseURL string
	apiKey  string
	assetID string
	timeout time.Duration
	http    *xhttp.Client
	now     func() time.Time
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithAPIKey sets the demo API key header.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

func WithAssetID(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.assetID = id
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithHTTPClient(h *xhttp.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		assetID: DefaultAssetID,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient(xhttp.WithTimeout(c.timeout), xhttp.WithRateLimit(1, 2))
	}
	return c
}

// SpotPrice returns the USD price and 24h change of the configured asset.
func (c *Client) SpotPrice(ctx context.Context) (models.SpotPrice, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	headers := map[string]string{"Accept": "application/json"}
	if c.apiKey != "" {
		headers["x-cg-demo-api-key"] = c.apiKey
	}

	var resp map[string]struct {
		USD       *float64 `json:"usd"`
		Change24h float64  `json:"usd_24h_change"`
	}
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  http.MethodGet,
		URL:     c.baseURL + "/simple/price",
		Headers: headers,
		QueryParams: map[string][]string{
			"ids":                 {c.assetID},
			"vs_currencies":       {"usd"},
			"include_24hr_change": {"true"},
		},
	}, &resp)
	if err != nil {
		return models.SpotPrice{}, fmt.Errorf("coingecko %s: %w", c.assetID, err)
	}

	q, ok := resp[c.assetID]
	if !ok || q.USD == nil {
		return models.SpotPrice{}, fmt.Errorf("coingecko %s: price missing from response", c.assetID)
	}
	if *q.USD <= 0 {
		return models.SpotPrice{}, fmt.Errorf("coingecko %s: non-positive price %v", c.assetID, *q.USD)
	}

	return models.SpotPrice{
		AssetID:          c.assetID,
		Price:            *q.USD,
		Change24hPercent: q.Change24h,
		FetchedAt:        c.now().UTC(),
	}, nil
}

var _ drepo.PriceSource = (*Client)(nil)
