package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"marketpulse/internal/clients/dse"
	"marketpulse/internal/modules/assets"
)

// dseAPI is the slice of the DSE client the adapter needs.
type dseAPI interface {
	GetLatestTrade(ctx context.Context, symbol string) (*dse.Trade, error)
}

// assetLookup resolves symbols to asset records for the local history path.
type assetLookup interface {
	GetBySymbol(symbol string) (*assets.Asset, error)
}

// priceStore reads locally sampled price points.
type priceStore interface {
	Since(assetID int64, cutoff time.Time) ([]assets.PricePoint, error)
}

// DSEAdapter serves Dhaka Stock Exchange data. The live-quote provider
// exposes no history API, so this is the one adapter whose GetHistory reads
// the locally sampled price store instead of an external provider.
type DSEAdapter struct {
	client dseAPI
	assets assetLookup
	prices priceStore
	log    zerolog.Logger
}

// NewDSEAdapter creates a new DSE market adapter
func NewDSEAdapter(client dseAPI, assetRepo assetLookup, priceRepo priceStore, log zerolog.Logger) *DSEAdapter {
	return &DSEAdapter{
		client: client,
		assets: assetRepo,
		prices: priceRepo,
		log:    log.With().Str("adapter", "dse").Logger(),
	}
}

// GetPrice fetches the last traded price from the live DSE quote page.
// The exchange renders prices with thousands separators; those are stripped
// before decimal parsing so no float conversion ever happens.
func (a *DSEAdapter) GetPrice(ctx context.Context, symbol, identifier string) (decimal.Decimal, error) {
	trade, err := a.client.GetLatestTrade(ctx, symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: fetching DSE quote for %s: %v", ErrUpstreamUnavailable, symbol, err)
	}

	raw := strings.ReplaceAll(trade.LTP, ",", "")
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: unparseable DSE price %q for %s", ErrUpstreamUnavailable, trade.LTP, symbol)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive DSE price for %s", ErrUpstreamUnavailable, symbol)
	}

	return price, nil
}

// GetHistory serves the locally sampled series for a period, ascending by
// timestamp. An asset absent from storage yields an empty series, not an error.
func (a *DSEAdapter) GetHistory(ctx context.Context, symbol, period, identifier string) ([]HistoryPoint, error) {
	p := Normalize(period)

	asset, err := a.assets.GetBySymbol(symbol)
	if err != nil {
		a.log.Warn().Err(err).Str("symbol", symbol).Msg("Asset lookup failed")
		return []HistoryPoint{}, nil
	}
	if asset == nil {
		return []HistoryPoint{}, nil
	}

	cutoff := time.Now().Add(-p.Lookback())
	samples, err := a.prices.Since(asset.ID, cutoff)
	if err != nil {
		a.log.Warn().Err(err).Str("symbol", symbol).Msg("Price store read failed")
		return []HistoryPoint{}, nil
	}

	points := make([]HistoryPoint, 0, len(samples))
	for _, sample := range samples {
		points = append(points, HistoryPoint{
			TimeLabel: p.TimeLabel(time.Unix(sample.Timestamp, 0)),
			Value:     sample.Price.InexactFloat64(),
		})
	}

	return points, nil
}

// GetDetails always degrades: the DSE quote page publishes no market cap or
// volume figures usable here.
func (a *DSEAdapter) GetDetails(ctx context.Context, symbol, identifier string) Details {
	return NoDetails
}
