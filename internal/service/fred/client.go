package fred

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"LiqPull/internal/domain/models"
	drepo "LiqPull/internal/domain/repository"
	xhttp "LiqPull/pkg/http"
	"LiqPull/pkg/util"
)

const (
	DefaultBaseURL = "https://api.stlouisfed.org/fred"
	DefaultTimeout = 15 * time.Second

	// FRED marks a missing observation with a lone dot.
	missingValue = "."
)

// ErrMissingAPIKey is returned when the client was built without a key.
var ErrMissingAPIKey = errors.New("fred: api key not configured")

// Client implements SeriesSource against the FRED observations endpoint.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *xhttp.Client
}

// Option configures the Client.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithTimeout bounds a single observations request.
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

// New creates a FRED client. Without WithHTTPClient a client limited to
// 10 requests per second is used.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient(
			xhttp.WithTimeout(c.timeout),
			xhttp.WithRateLimit(10, 13),
		)
	}
	return c
}

type observation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type observationsResponse struct {
	Observations []observation `json:"observations"`
}

// FetchObservations returns the series' observations newest first with
// missing values removed.
func (c *Client) FetchObservations(ctx context.Context, def models.SeriesDefinition) ([]models.RawObservation, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var resp observationsResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: http.MethodGet,
		URL:    c.baseURL + "/series/observations",
		QueryParams: map[string][]string{
			"series_id":  {def.ID},
			"api_key":    {c.apiKey},
			"file_type":  {"json"},
			"limit":      {strconv.Itoa(def.Frequency.ObservationLimit())},
			"sort_order": {"desc"},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fred %s: %w", def.ID, c.redact(err))
	}

	return parseObservations(resp.Observations), nil
}

// redact strips the api key from transport and status errors, which carry
// the request URL or the provider's echo of it. The chain stays intact so
// callers can still match context errors.
func (c *Client) redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if u, perr := url.Parse(uerr.URL); perr == nil {
			u.RawQuery = ""
			uerr.URL = u.String()
		} else {
			uerr.URL = strings.ReplaceAll(uerr.URL, c.apiKey, "REDACTED")
		}
	}
	var serr *xhttp.StatusError
	if errors.As(err, &serr) {
		serr.Body = strings.ReplaceAll(serr.Body, c.apiKey, "REDACTED")
	}
	return err
}

func parseObservations(in []observation) []models.RawObservation {
	out := make([]models.RawObservation, 0, len(in))
	for _, o := range in {
		if o.Value == missingValue || o.Value == "" {
			continue
		}
		d, ok := util.ParseDate(o.Date)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue
		}
		out = append(out, models.RawObservation{Date: d, Value: v})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

var _ drepo.SeriesSource = (*Client)(nil)
