package market

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"marketpulse/internal/clients/coingecko"
)

// coinGeckoAPI is the slice of the CoinGecko client the adapter needs.
// Kept as an interface to enable testing with mocks.
type coinGeckoAPI interface {
	GetSimplePrice(ctx context.Context, id string) (float64, error)
	GetMarketChart(ctx context.Context, id string, days int) (*coingecko.MarketChart, error)
	GetCoinDetails(ctx context.Context, id string) (*coingecko.CoinDetails, error)
}

// CryptoAdapter serves cryptocurrency data from CoinGecko.
// The provider indexes by its own coin ids, so the identifier is mandatory:
// a missing identifier is a caller contract violation for price AND history,
// not an upstream failure.
type CryptoAdapter struct {
	client coinGeckoAPI
	log    zerolog.Logger
}

// NewCryptoAdapter creates a new crypto market adapter
func NewCryptoAdapter(client coinGeckoAPI, log zerolog.Logger) *CryptoAdapter {
	return &CryptoAdapter{
		client: client,
		log:    log.With().Str("adapter", "crypto").Logger(),
	}
}

// GetPrice fetches the current USD price for a coin.
func (a *CryptoAdapter) GetPrice(ctx context.Context, symbol, identifier string) (decimal.Decimal, error) {
	if identifier == "" {
		return decimal.Zero, fmt.Errorf("%w: crypto asset %s requires a provider identifier (e.g. \"bitcoin\")",
			ErrInvalidRequest, symbol)
	}

	price, err := a.client.GetSimplePrice(ctx, identifier)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: fetching crypto price for %s: %v", ErrUpstreamUnavailable, identifier, err)
	}
	if price <= 0 {
		return decimal.Zero, fmt.Errorf("%w: no usable price for %s", ErrUpstreamUnavailable, identifier)
	}

	return decimal.NewFromFloat(price), nil
}

// GetHistory fetches the normalized USD price series for a period.
func (a *CryptoAdapter) GetHistory(ctx context.Context, symbol, period, identifier string) ([]HistoryPoint, error) {
	if identifier == "" {
		// Hard precondition, deliberately not a soft failure like the
		// upstream error path below.
		return nil, fmt.Errorf("%w: crypto asset %s requires a provider identifier", ErrInvalidRequest, symbol)
	}

	p := Normalize(period)

	chart, err := a.client.GetMarketChart(ctx, identifier, p.CoinGeckoDays())
	if err != nil {
		a.log.Warn().Err(err).Str("id", identifier).Str("period", string(p)).Msg("History fetch failed")
		return []HistoryPoint{}, nil
	}

	points := make([]HistoryPoint, 0, len(chart.Prices))
	for _, pair := range chart.Prices {
		ts := time.UnixMilli(int64(pair[0]))
		points = append(points, HistoryPoint{
			TimeLabel: p.TimeLabel(ts),
			Value:     pair[1],
		})
	}

	return points, nil
}

// GetDetails fetches market cap and volume, formatted for display.
func (a *CryptoAdapter) GetDetails(ctx context.Context, symbol, identifier string) Details {
	if identifier == "" {
		return NoDetails
	}

	coin, err := a.client.GetCoinDetails(ctx, identifier)
	if err != nil {
		a.log.Warn().Err(err).Str("id", identifier).Msg("Details fetch failed")
		return NoDetails
	}

	details := NoDetails
	if mcap := coin.MarketData.MarketCap["usd"]; mcap > 0 {
		details.MarketCap = FormatUSDAmount(mcap)
	}
	if vol := coin.MarketData.TotalVolume["usd"]; vol > 0 {
		details.Volume = FormatUSDAmount(vol)
	}

	return details
}
