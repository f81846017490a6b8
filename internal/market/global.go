package market

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"marketpulse/internal/clients/yahoo"
)

// yahooAPI is the slice of the Yahoo client the adapter needs.
// Kept as an interface to enable testing with mocks.
type yahooAPI interface {
	GetChart(ctx context.Context, symbol, rng, interval string) (*yahoo.Chart, error)
	GetQuote(ctx context.Context, symbol string) (*yahoo.Quote, error)
}

// GlobalStockAdapter serves global equity data from Yahoo Finance.
// The identifier is optional and defaults to the symbol.
type GlobalStockAdapter struct {
	client yahooAPI
	log    zerolog.Logger
}

// NewGlobalStockAdapter creates a new global equity market adapter
func NewGlobalStockAdapter(client yahooAPI, log zerolog.Logger) *GlobalStockAdapter {
	return &GlobalStockAdapter{
		client: client,
		log:    log.With().Str("adapter", "global_stock").Logger(),
	}
}

// GetPrice fetches the latest close for a symbol from a 1-day chart.
func (a *GlobalStockAdapter) GetPrice(ctx context.Context, symbol, identifier string) (decimal.Decimal, error) {
	ticker := identifierOrSymbol(symbol, identifier)

	chart, err := a.client.GetChart(ctx, ticker, "1d", "5m")
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: fetching chart for %s: %v", ErrUpstreamUnavailable, ticker, err)
	}

	last, ok := lastClose(chart)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no usable close data for %s", ErrUpstreamUnavailable, ticker)
	}
	if last <= 0 {
		return decimal.Zero, fmt.Errorf("%w: non-positive close for %s", ErrUpstreamUnavailable, ticker)
	}

	return decimal.NewFromFloat(last), nil
}

// GetHistory fetches the normalized close series for a period.
// An intraday request against a closed market comes back empty or as a
// single sample; in that case a wider 5-day window is fetched and sliced
// down to the most recent complete trading day.
func (a *GlobalStockAdapter) GetHistory(ctx context.Context, symbol, period, identifier string) ([]HistoryPoint, error) {
	ticker := identifierOrSymbol(symbol, identifier)
	p := Normalize(period)

	rng, interval := p.YahooRange()
	chart, err := a.client.GetChart(ctx, ticker, rng, interval)
	if err != nil {
		a.log.Warn().Err(err).Str("symbol", ticker).Str("period", string(p)).Msg("History fetch failed")
		return []HistoryPoint{}, nil
	}

	points := chartPoints(chart, p)

	if p == Period1D && len(points) <= 1 {
		wide, err := a.client.GetChart(ctx, ticker, "5d", "15m")
		if err != nil {
			a.log.Warn().Err(err).Str("symbol", ticker).Msg("Closed-market fallback fetch failed")
			return points, nil
		}
		if sliced := lastTradingDayPoints(wide, p); len(sliced) > len(points) {
			points = sliced
		}
	}

	return points, nil
}

// GetDetails fetches market cap and volume statistics, formatted for display.
func (a *GlobalStockAdapter) GetDetails(ctx context.Context, symbol, identifier string) Details {
	ticker := identifierOrSymbol(symbol, identifier)

	quote, err := a.client.GetQuote(ctx, ticker)
	if err != nil {
		a.log.Warn().Err(err).Str("symbol", ticker).Msg("Details fetch failed")
		return NoDetails
	}

	details := NoDetails
	if quote.MarketCap > 0 {
		details.MarketCap = FormatUSDAmount(quote.MarketCap)
	}
	if quote.RegularMarketVolume > 0 {
		details.Volume = FormatUSDAmount(quote.RegularMarketVolume)
	}

	return details
}

func identifierOrSymbol(symbol, identifier string) string {
	if identifier != "" {
		return identifier
	}
	return symbol
}

// lastClose returns the most recent non-null close of a chart.
func lastClose(chart *yahoo.Chart) (float64, bool) {
	if len(chart.Indicators.Quote) == 0 {
		return 0, false
	}
	closes := chart.Indicators.Quote[0].Close
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i] != nil {
			return *closes[i], true
		}
	}
	return 0, false
}

// chartPoints converts chart candles into normalized history points,
// skipping null closes.
func chartPoints(chart *yahoo.Chart, p Period) []HistoryPoint {
	if len(chart.Indicators.Quote) == 0 {
		return []HistoryPoint{}
	}
	closes := chart.Indicators.Quote[0].Close

	points := make([]HistoryPoint, 0, len(chart.Timestamps))
	for i, ts := range chart.Timestamps {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		points = append(points, HistoryPoint{
			TimeLabel: p.TimeLabel(time.Unix(ts, 0)),
			Value:     *closes[i],
		})
	}
	return points
}

// lastTradingDayPoints slices a multi-day chart down to the candles of its
// most recent trading day, labeled with the requested (intraday) period.
func lastTradingDayPoints(chart *yahoo.Chart, p Period) []HistoryPoint {
	if len(chart.Indicators.Quote) == 0 || len(chart.Timestamps) == 0 {
		return []HistoryPoint{}
	}
	closes := chart.Indicators.Quote[0].Close

	lastDay := time.Unix(chart.Timestamps[len(chart.Timestamps)-1], 0).Format("2006-01-02")

	points := make([]HistoryPoint, 0, len(chart.Timestamps))
	for i, ts := range chart.Timestamps {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		t := time.Unix(ts, 0)
		if t.Format("2006-01-02") != lastDay {
			continue
		}
		points = append(points, HistoryPoint{
			TimeLabel: p.TimeLabel(t),
			Value:     *closes[i],
		})
	}
	return points
}
