package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/market"
	"marketpulse/internal/modules/assets"
)

const testSchema = `
CREATE TABLE assets (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    symbol         TEXT NOT NULL UNIQUE,
    name           TEXT NOT NULL,
    asset_type     TEXT NOT NULL CHECK (asset_type IN ('CRYPTO', 'STOCK_GLOBAL', 'STOCK_DSE')),
    api_identifier TEXT,
    created_at     INTEGER NOT NULL DEFAULT (strftime('%s','now')),
    updated_at     INTEGER NOT NULL DEFAULT (strftime('%s','now'))
);
CREATE TABLE price_points (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    asset_id  INTEGER NOT NULL REFERENCES assets(id) ON DELETE CASCADE,
    price     TEXT NOT NULL,
    timestamp INTEGER NOT NULL DEFAULT (strftime('%s','now'))
);
`

// stubAdapter answers with fixed values or a fixed error.
type stubAdapter struct {
	price   decimal.Decimal
	err     error
	history []market.HistoryPoint
	details market.Details
}

func (a *stubAdapter) GetPrice(ctx context.Context, symbol, identifier string) (decimal.Decimal, error) {
	return a.price, a.err
}

func (a *stubAdapter) GetHistory(ctx context.Context, symbol, period, identifier string) ([]market.HistoryPoint, error) {
	if a.history == nil {
		return []market.HistoryPoint{}, nil
	}
	return a.history, nil
}

func (a *stubAdapter) GetDetails(ctx context.Context, symbol, identifier string) market.Details {
	if a.details == (market.Details{}) {
		return market.NoDetails
	}
	return a.details
}

type fixture struct {
	db      *sql.DB
	assets  *assets.Repository
	prices  *assets.PriceRepository
	adapter *stubAdapter
	router  *chi.Mux
}

func setup(t *testing.T) *fixture {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	log := zerolog.New(io.Discard)
	f := &fixture{
		db:      db,
		assets:  assets.NewRepository(db, log),
		prices:  assets.NewPriceRepository(db, log),
		adapter: &stubAdapter{},
	}

	registry := market.NewRegistry(f.adapter, f.adapter, f.adapter)
	h := NewAssetHandlers(f.assets, f.prices, registry, log)

	f.router = chi.NewRouter()
	f.router.Get("/api/assets", h.HandleList)
	f.router.Get("/api/assets/{symbol}", h.HandleDetail)
	f.router.Get("/api/assets/{symbol}/history", h.HandleHistory)
	f.router.Get("/api/assets/{symbol}/price", h.HandlePrice)
	f.router.Get("/api/prices/{symbol}/history", h.HandlePriceHistory)

	return f
}

func (f *fixture) seedAsset(t *testing.T, symbol string, assetType assets.AssetType, identifier string) int64 {
	_, err := f.assets.Upsert(assets.Asset{Symbol: symbol, Name: symbol, Type: assetType, APIIdentifier: identifier})
	require.NoError(t, err)
	asset, err := f.assets.GetBySymbol(symbol)
	require.NoError(t, err)
	return asset.ID
}

func (f *fixture) seedPrice(t *testing.T, assetID int64, price string, age time.Duration) {
	_, err := f.db.Exec(
		`INSERT INTO price_points (asset_id, price, timestamp) VALUES (?, ?, ?)`,
		assetID, price, time.Now().Add(-age).Unix())
	require.NoError(t, err)
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHandleList(t *testing.T) {
	f := setup(t)
	id := f.seedAsset(t, "AAPL", assets.TypeGlobalStock, "")
	f.seedPrice(t, id, "200.00", 25*time.Hour)
	f.seedPrice(t, id, "230.00", time.Minute)
	f.seedAsset(t, "GP", assets.TypeDSEStock, "GP.BD")

	rec := f.get(t, "/api/assets")

	require.Equal(t, http.StatusOK, rec.Code)
	var response []AssetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 2)

	// ordered by symbol
	aapl := response[0]
	assert.Equal(t, "AAPL", aapl.Symbol)
	require.NotNil(t, aapl.LatestPrice)
	assert.Equal(t, "230", *aapl.LatestPrice)
	assert.InDelta(t, 15.0, aapl.Change24h, 0.001)

	// no samples yet: null price, zero change
	gp := response[1]
	assert.Equal(t, "GP", gp.Symbol)
	assert.Nil(t, gp.LatestPrice)
	assert.Zero(t, gp.Change24h)
}

func TestHandleListNoBaseline(t *testing.T) {
	f := setup(t)
	id := f.seedAsset(t, "AAPL", assets.TypeGlobalStock, "")
	f.seedPrice(t, id, "230.00", time.Minute)

	rec := f.get(t, "/api/assets")

	var response []AssetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.NotNil(t, response[0].LatestPrice)
	assert.Zero(t, response[0].Change24h)
}

func TestHandleDetail(t *testing.T) {
	f := setup(t)
	f.seedAsset(t, "AAPL", assets.TypeGlobalStock, "")
	f.adapter.details = market.Details{MarketCap: "$2.30T", Volume: "$1.50B"}

	rec := f.get(t, "/api/assets/AAPL")

	require.Equal(t, http.StatusOK, rec.Code)
	var detail AssetDetailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "$2.30T", detail.MarketCap)
	assert.Equal(t, "$1.50B", detail.Volume)
}

func TestHandleDetailNotFound(t *testing.T) {
	f := setup(t)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/assets/NOPE").Code)
}

func TestHandlePrice(t *testing.T) {
	f := setup(t)
	f.seedAsset(t, "BTC-USD", assets.TypeCrypto, "bitcoin")
	f.adapter.price = decimal.NewFromFloat(64250.12)

	rec := f.get(t, "/api/assets/BTC-USD/price")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "64250.12", body["price"])
	assert.Equal(t, "BTC-USD", body["symbol"])
}

func TestHandlePriceErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid request", market.ErrInvalidRequest, http.StatusBadRequest},
		{"upstream unavailable", market.ErrUpstreamUnavailable, http.StatusBadGateway},
		{"unsupported class", market.ErrUnsupportedAssetClass, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := setup(t)
			f.seedAsset(t, "BTC-USD", assets.TypeCrypto, "bitcoin")
			f.adapter.err = tc.err

			assert.Equal(t, tc.want, f.get(t, "/api/assets/BTC-USD/price").Code)
		})
	}
}

func TestHandleHistory(t *testing.T) {
	f := setup(t)
	f.seedAsset(t, "AAPL", assets.TypeGlobalStock, "")
	f.adapter.history = []market.HistoryPoint{{TimeLabel: "09:30", Value: 230.5}}

	rec := f.get(t, "/api/assets/AAPL/history?period=1d")

	require.Equal(t, http.StatusOK, rec.Code)
	var points []market.HistoryPoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &points))
	require.Len(t, points, 1)
	assert.Equal(t, "09:30", points[0].TimeLabel)
}

func TestHandleHistoryEmpty(t *testing.T) {
	f := setup(t)
	f.seedAsset(t, "AAPL", assets.TypeGlobalStock, "")

	rec := f.get(t, "/api/assets/AAPL/history")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHandlePriceHistory(t *testing.T) {
	f := setup(t)
	id := f.seedAsset(t, "GP", assets.TypeDSEStock, "")
	f.seedPrice(t, id, "310.50", 3*24*time.Hour)
	f.seedPrice(t, id, "312.10", time.Hour)

	rec := f.get(t, "/api/prices/GP/history")
	require.Equal(t, http.StatusOK, rec.Code)
	var day []assets.PricePoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &day))
	assert.Len(t, day, 1)

	rec = f.get(t, "/api/prices/GP/history?period=7d")
	var week []assets.PricePoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &week))
	assert.Len(t, week, 2)
}

// The endpoint consults the shared period table, so every alias it knows
// works here too and unknown values fall back to the 24h window.
func TestHandlePriceHistoryPeriodAliases(t *testing.T) {
	f := setup(t)
	id := f.seedAsset(t, "GP", assets.TypeDSEStock, "")
	f.seedPrice(t, id, "310.50", 20*24*time.Hour)
	f.seedPrice(t, id, "311.20", 3*24*time.Hour)
	f.seedPrice(t, id, "312.10", time.Hour)

	cases := []struct {
		period string
		want   int
	}{
		{"24h", 1},
		{"1w", 2},
		{"30d", 3},
		{"bogus", 1},
	}
	for _, tc := range cases {
		rec := f.get(t, "/api/prices/GP/history?period="+tc.period)
		require.Equal(t, http.StatusOK, rec.Code)
		var points []assets.PricePoint
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &points))
		assert.Len(t, points, tc.want, "period %s", tc.period)
	}
}
