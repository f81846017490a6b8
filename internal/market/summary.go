package market

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
)

// tickerSymbols is the fixed index/crypto strip shown on the dashboard.
var tickerSymbols = []string{"^GSPC", "BTC-USD", "^FTSE", "^N225"}

// tickerNames maps strip symbols to display names.
var tickerNames = map[string]string{
	"^GSPC":   "S&P 500",
	"BTC-USD": "Bitcoin",
	"^FTSE":   "FTSE 100",
	"^N225":   "Nikkei 225",
}

// gainerSymbols is the fixed high-volatility pool scanned for top gainers.
var gainerSymbols = []string{"NVDA", "TSLA", "AAPL", "MSFT", "GOOGL", "META", "AMZN", "AMD", "NFLX", "COIN"}

// SummaryEntry is one row of the ticker strip or the gainers board.
type SummaryEntry struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Change float64 `json:"change"` // percent vs previous close
}

// Summary is the dashboard market overview.
type Summary struct {
	Tickers []SummaryEntry `json:"tickers"`
	Gainers []SummaryEntry `json:"gainers"`
}

// SummaryService builds the market overview from Yahoo quote data.
// Every symbol is fetched independently and failures are skipped, so a
// partial overview is always better than none.
type SummaryService struct {
	client yahooAPI
	log    zerolog.Logger
}

// NewSummaryService creates a new market summary service
func NewSummaryService(client yahooAPI, log zerolog.Logger) *SummaryService {
	return &SummaryService{
		client: client,
		log:    log.With().Str("service", "market_summary").Logger(),
	}
}

// GetSummary fetches the ticker strip and the top five gainers.
func (s *SummaryService) GetSummary(ctx context.Context) Summary {
	summary := Summary{
		Tickers: make([]SummaryEntry, 0, len(tickerSymbols)),
		Gainers: make([]SummaryEntry, 0, 5),
	}

	for _, symbol := range tickerSymbols {
		chart, err := s.client.GetChart(ctx, symbol, "1d", "5m")
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Ticker fetch failed")
			continue
		}
		price := chart.Meta.RegularMarketPrice
		prev := chart.Meta.ChartPreviousClose
		if prev == 0 {
			continue
		}
		name := tickerNames[symbol]
		if name == "" {
			name = symbol
		}
		summary.Tickers = append(summary.Tickers, SummaryEntry{
			Symbol: symbol,
			Name:   name,
			Price:  price,
			Change: (price - prev) / prev * 100,
		})
	}

	gainers := make([]SummaryEntry, 0, len(gainerSymbols))
	for _, symbol := range gainerSymbols {
		quote, err := s.client.GetQuote(ctx, symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Gainer fetch failed")
			continue
		}
		if quote.PreviousClose == 0 {
			continue
		}
		name := quote.ShortName
		if name == "" {
			name = symbol
		}
		gainers = append(gainers, SummaryEntry{
			Symbol: symbol,
			Name:   name,
			Price:  quote.RegularMarketPrice,
			Change: (quote.RegularMarketPrice - quote.PreviousClose) / quote.PreviousClose * 100,
		})
	}

	sort.SliceStable(gainers, func(i, j int) bool {
		return gainers[i].Change > gainers[j].Change
	})
	if len(gainers) > 5 {
		gainers = gainers[:5]
	}
	summary.Gainers = gainers

	return summary
}
