// Package handlers exposes the asset catalog and market data over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"marketpulse/internal/market"
	"marketpulse/internal/modules/assets"
)

// AssetHandlers contains HTTP handlers for the asset API
type AssetHandlers struct {
	log      zerolog.Logger
	assets   *assets.Repository
	prices   *assets.PriceRepository
	registry *market.Registry
}

// NewAssetHandlers creates a new asset handlers instance
func NewAssetHandlers(assetRepo *assets.Repository, priceRepo *assets.PriceRepository, registry *market.Registry, log zerolog.Logger) *AssetHandlers {
	return &AssetHandlers{
		log:      log.With().Str("component", "asset_handlers").Logger(),
		assets:   assetRepo,
		prices:   priceRepo,
		registry: registry,
	}
}

// AssetResponse is one catalog row with its latest sampled price.
type AssetResponse struct {
	ID            int64   `json:"id"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	AssetType     string  `json:"asset_type"`
	APIIdentifier string  `json:"api_identifier,omitempty"`
	LatestPrice   *string `json:"latest_price"`
	Change24h     float64 `json:"change_24h"`
}

// AssetDetailResponse adds provider statistics to the catalog row.
type AssetDetailResponse struct {
	AssetResponse
	MarketCap string `json:"market_cap"`
	Volume    string `json:"volume"`
}

// HandleList returns all cataloged assets with their latest sampled price
// and 24-hour change.
// GET /api/assets
func (h *AssetHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.assets.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load assets")
		http.Error(w, "failed to load assets", http.StatusInternalServerError)
		return
	}

	response := make([]AssetResponse, 0, len(catalog))
	for i := range catalog {
		response = append(response, h.assetResponse(&catalog[i]))
	}

	h.writeJSON(w, response)
}

// HandleDetail returns one asset with provider statistics.
// GET /api/assets/{symbol}
func (h *AssetHandlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	asset, ok := h.lookupAsset(w, r)
	if !ok {
		return
	}

	detail := AssetDetailResponse{
		AssetResponse: h.assetResponse(asset),
		MarketCap:     market.NoDetails.MarketCap,
		Volume:        market.NoDetails.Volume,
	}

	if adapter, err := h.registry.ForAsset(asset); err == nil {
		details := adapter.GetDetails(r.Context(), asset.Symbol, asset.APIIdentifier)
		detail.MarketCap = details.MarketCap
		detail.Volume = details.Volume
	}

	h.writeJSON(w, detail)
}

// HandleHistory returns the provider-backed history series for a period.
// Upstream failures surface as an empty array, not an error status.
// GET /api/assets/{symbol}/history?period=
func (h *AssetHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	asset, ok := h.lookupAsset(w, r)
	if !ok {
		return
	}

	adapter, err := h.registry.ForAsset(asset)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", asset.Symbol).Msg("No adapter for asset")
		http.Error(w, "unsupported asset class", http.StatusInternalServerError)
		return
	}

	period := r.URL.Query().Get("period")
	points, err := adapter.GetHistory(r.Context(), asset.Symbol, period, asset.APIIdentifier)
	if err != nil {
		h.respondMarketError(w, asset.Symbol, err)
		return
	}

	h.writeJSON(w, points)
}

// HandlePrice returns the current price from the asset's provider.
// GET /api/assets/{symbol}/price
func (h *AssetHandlers) HandlePrice(w http.ResponseWriter, r *http.Request) {
	asset, ok := h.lookupAsset(w, r)
	if !ok {
		return
	}

	adapter, err := h.registry.ForAsset(asset)
	if err != nil {
		h.respondMarketError(w, asset.Symbol, err)
		return
	}

	price, err := adapter.GetPrice(r.Context(), asset.Symbol, asset.APIIdentifier)
	if err != nil {
		h.respondMarketError(w, asset.Symbol, err)
		return
	}

	h.writeJSON(w, map[string]string{
		"symbol": asset.Symbol,
		"price":  price.String(),
	})
}

// HandlePriceHistory returns the locally sampled price points of an asset.
// GET /api/prices/{symbol}/history?period=24h|7d|30d|...
// The period goes through the shared normalization table, so the same
// aliases work here as on the provider-backed history endpoint.
func (h *AssetHandlers) HandlePriceHistory(w http.ResponseWriter, r *http.Request) {
	asset, ok := h.lookupAsset(w, r)
	if !ok {
		return
	}

	period := market.Normalize(r.URL.Query().Get("period"))
	cutoff := time.Now().Add(-period.Lookback())

	points, err := h.prices.Since(asset.ID, cutoff)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", asset.Symbol).Msg("Failed to load price history")
		http.Error(w, "failed to load price history", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, points)
}

// assetResponse builds a catalog row with latest price and 24h change.
// Both degrade independently when the store has no usable points.
func (h *AssetHandlers) assetResponse(asset *assets.Asset) AssetResponse {
	response := AssetResponse{
		ID:            asset.ID,
		Symbol:        asset.Symbol,
		Name:          asset.Name,
		AssetType:     string(asset.Type),
		APIIdentifier: asset.APIIdentifier,
	}

	latest, err := h.prices.Latest(asset.ID)
	if err != nil || latest == nil {
		return response
	}
	price := latest.Price.String()
	response.LatestPrice = &price
	response.Change24h = h.change24h(asset.ID, latest)

	return response
}

// change24h compares the latest sample against the newest one at least a
// day old. Missing baseline or a zero past price yields 0.
func (h *AssetHandlers) change24h(assetID int64, latest *assets.PricePoint) float64 {
	cutoff := time.Now().Add(-24 * time.Hour)
	past, err := h.prices.LatestBefore(assetID, cutoff)
	if err != nil || past == nil || past.Price.IsZero() {
		return 0
	}

	current := latest.Price.InexactFloat64()
	baseline := past.Price.InexactFloat64()
	return math.Round((current-baseline)/baseline*100*100) / 100
}

// lookupAsset resolves the symbol path parameter, answering 404 itself when
// the asset is unknown.
func (h *AssetHandlers) lookupAsset(w http.ResponseWriter, r *http.Request) (*assets.Asset, bool) {
	symbol := chi.URLParam(r, "symbol")

	asset, err := h.assets.GetBySymbol(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Asset lookup failed")
		http.Error(w, "failed to load asset", http.StatusInternalServerError)
		return nil, false
	}
	if asset == nil {
		http.Error(w, "asset not found", http.StatusNotFound)
		return nil, false
	}

	return asset, true
}

// respondMarketError maps the market error taxonomy onto HTTP statuses.
func (h *AssetHandlers) respondMarketError(w http.ResponseWriter, symbol string, err error) {
	h.log.Warn().Err(err).Str("symbol", symbol).Msg("Market data request failed")

	switch {
	case errors.Is(err, market.ErrInvalidRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, market.ErrUpstreamUnavailable):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response
func (h *AssetHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
