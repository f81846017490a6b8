package market

import "time"

// Period is a canonical lookback window token. Callers may send aliases
// ("24h", "7d", "30d"); Normalize collapses them onto these canonical values
// so the HTTP layer and the adapters never drift apart on remapping.
type Period string

const (
	Period1D  Period = "1d"
	Period5D  Period = "5d"
	Period1Mo Period = "1mo"
	Period6Mo Period = "6mo"
	Period1Y  Period = "1y"
	PeriodYTD Period = "ytd"
	Period5Y  Period = "5y"
	PeriodMax Period = "max"
)

// DefaultPeriod is the fallback for unknown or malformed period strings.
var DefaultPeriod = Period1D

// periodAliases maps caller-supplied tokens onto canonical periods.
var periodAliases = map[string]Period{
	"1d":   Period1D,
	"24h":  Period1D,
	"1day": Period1D,
	"5d":   Period5D,
	"7d":   Period5D,
	"1w":   Period5D,
	"1mo":  Period1Mo,
	"1m":   Period1Mo,
	"30d":  Period1Mo,
	"6mo":  Period6Mo,
	"6m":   Period6Mo,
	"1y":   Period1Y,
	"12m":  Period1Y,
	"ytd":  PeriodYTD,
	"5y":   Period5Y,
	"max":  PeriodMax,
}

// Normalize maps any caller-supplied period string onto a canonical Period.
// Unknown or empty values collapse to the default (shortest) period.
func Normalize(period string) Period {
	if p, ok := periodAliases[period]; ok {
		return p
	}
	return DefaultPeriod
}

// PeriodClass drives timestamp label formatting for a history series.
type PeriodClass int

const (
	ClassIntraday PeriodClass = iota // single trading day: HH:MM
	ClassMultiday                    // a few days: weekday + HH:MM
	ClassDaily                       // everything longer: YYYY-MM-DD
)

// Class returns the formatting class for a canonical period.
func (p Period) Class() PeriodClass {
	switch p {
	case Period1D:
		return ClassIntraday
	case Period5D:
		return ClassMultiday
	default:
		return ClassDaily
	}
}

// TimeLabel formats a timestamp according to the period's class.
func (p Period) TimeLabel(t time.Time) string {
	switch p.Class() {
	case ClassIntraday:
		return t.Format("15:04")
	case ClassMultiday:
		return t.Format("Mon 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

// coinGeckoDays maps canonical periods to CoinGecko market_chart lookbacks.
// The free tier caps historical range at one year, so ytd, 5y and max all
// collapse to the same 365-day bucket.
var coinGeckoDays = map[Period]int{
	Period1D:  1,
	Period5D:  7,
	Period1Mo: 30,
	Period6Mo: 180,
	Period1Y:  365,
	PeriodYTD: 365,
	Period5Y:  365,
	PeriodMax: 365,
}

// CoinGeckoDays returns the market_chart lookback in days for a period.
func (p Period) CoinGeckoDays() int {
	if days, ok := coinGeckoDays[p]; ok {
		return days
	}
	return coinGeckoDays[DefaultPeriod]
}

// yahooRanges maps canonical periods to Yahoo chart (range, interval) pairs.
var yahooRanges = map[Period][2]string{
	Period1D:  {"1d", "5m"},
	Period5D:  {"5d", "15m"},
	Period1Mo: {"1mo", "1d"},
	Period6Mo: {"6mo", "1d"},
	Period1Y:  {"1y", "1d"},
	PeriodYTD: {"ytd", "1d"},
	Period5Y:  {"5y", "1wk"},
	PeriodMax: {"max", "1mo"},
}

// YahooRange returns the chart range and candle interval for a period.
func (p Period) YahooRange() (rng, interval string) {
	pair, ok := yahooRanges[p]
	if !ok {
		pair = yahooRanges[DefaultPeriod]
	}
	return pair[0], pair[1]
}

// lookbacks maps canonical periods to wall-clock cutoffs for locally stored
// series. ytd and 5y share the one-year bucket to stay consistent with the
// provider-backed adapters.
var lookbacks = map[Period]time.Duration{
	Period1D:  24 * time.Hour,
	Period5D:  7 * 24 * time.Hour,
	Period1Mo: 30 * 24 * time.Hour,
	Period6Mo: 180 * 24 * time.Hour,
	Period1Y:  365 * 24 * time.Hour,
	PeriodYTD: 365 * 24 * time.Hour,
	Period5Y:  365 * 24 * time.Hour,
	PeriodMax: 10 * 365 * 24 * time.Hour,
}

// Lookback returns the wall-clock lookback window for a period.
func (p Period) Lookback() time.Duration {
	if d, ok := lookbacks[p]; ok {
		return d
	}
	return lookbacks[DefaultPeriod]
}
