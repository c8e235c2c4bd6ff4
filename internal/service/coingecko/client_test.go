package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpotPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		assert.Equal(t, "true", r.URL.Query().Get("include_24hr_change"))
		assert.Equal(t, "demo", r.Header.Get("x-cg-demo-api-key"))
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":64250.5,"usd_24h_change":-2.25}}`))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL), WithAPIKey("demo"))
	got, err := c.SpotPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", got.AssetID)
	assert.Equal(t, 64250.5, got.Price)
	assert.Equal(t, -2.25, got.Change24hPercent)
	assert.False(t, got.FetchedAt.IsZero())
}

func TestSpotPriceMissingAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL)).SpotPrice(context.Background())
	assert.Error(t, err)
}

func TestSpotPriceUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL)).SpotPrice(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
