package coingecko

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/clientdata"
)

func newTestCache(t *testing.T) *clientdata.Repository {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE coingecko_price (key TEXT PRIMARY KEY, data TEXT NOT NULL, fetched_at INTEGER NOT NULL, expires_at INTEGER NOT NULL);
		CREATE TABLE coingecko_chart (key TEXT PRIMARY KEY, data TEXT NOT NULL, fetched_at INTEGER NOT NULL, expires_at INTEGER NOT NULL);
		CREATE TABLE coingecko_coin  (key TEXT PRIMARY KEY, data TEXT NOT NULL, fetched_at INTEGER NOT NULL, expires_at INTEGER NOT NULL);
	`)
	require.NoError(t, err)

	return clientdata.NewRepository(db)
}

func TestGetSimplePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
		io.WriteString(w, `{"bitcoin":{"usd":64250.12}}`)
	}))
	defer srv.Close()

	c := NewClient("", nil, zerolog.Nop())
	c.SetBaseURL(srv.URL)

	price, err := c.GetSimplePrice(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, 64250.12, price)
}

func TestGetSimplePriceMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c := NewClient("", nil, zerolog.Nop())
	c.SetBaseURL(srv.URL)

	_, err := c.GetSimplePrice(context.Background(), "no-such-coin")
	assert.Error(t, err)
}

func TestGetSimplePriceUsesCache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		io.WriteString(w, `{"ethereum":{"usd":3120.5}}`)
	}))
	defer srv.Close()

	c := NewClient("", newTestCache(t), zerolog.Nop())
	c.SetBaseURL(srv.URL)

	_, err := c.GetSimplePrice(context.Background(), "ethereum")
	require.NoError(t, err)

	price, err := c.GetSimplePrice(context.Background(), "ethereum")
	require.NoError(t, err)
	assert.Equal(t, 3120.5, price)
	assert.Equal(t, 1, calls)
}

func TestGetMarketChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin/market_chart", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("days"))
		io.WriteString(w, `{"prices":[[1700000000000,64000.1],[1700003600000,64100.2]]}`)
	}))
	defer srv.Close()

	c := NewClient("", nil, zerolog.Nop())
	c.SetBaseURL(srv.URL)

	chart, err := c.GetMarketChart(context.Background(), "bitcoin", 7)
	require.NoError(t, err)
	require.Len(t, chart.Prices, 2)
	assert.Equal(t, 64100.2, chart.Prices[1][1])
}

func TestGetCoinDetailsStaleFallback(t *testing.T) {
	cache := newTestCache(t)

	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"market_data":{"market_cap":{"usd":1250000000000},"total_volume":{"usd":35000000000}}}`)
	}))
	c := NewClient("", cache, zerolog.Nop())
	c.SetBaseURL(okSrv.URL)

	details, err := c.GetCoinDetails(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, 1.25e12, details.MarketData.MarketCap["usd"])
	okSrv.Close()

	// Expire the cached entry so only the stale path can serve it
	require.NoError(t, cache.Store("coingecko_coin", "bitcoin", details, -1))

	failSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer failSrv.Close()
	c.SetBaseURL(failSrv.URL)

	stale, err := c.GetCoinDetails(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, 1.25e12, stale.MarketData.MarketCap["usd"])
}

func TestGetJSONErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient("", nil, zerolog.Nop())
	c.SetBaseURL(srv.URL)

	_, err := c.GetMarketChart(context.Background(), "bitcoin", 1)
	assert.Error(t, err)
}
