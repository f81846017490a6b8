package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Static-ish descriptive data
	TTLCoinDetails = 24 * time.Hour // Market cap / volume move, but a day is fine for display
	TTLQuoteStats  = 24 * time.Hour // Yahoo marketCap / volume stats

	// Historical series (a closed candle never changes, today's bar does)
	TTLChart = time.Hour

	// Live-ish quotes (short cache so batch operations don't hammer providers)
	TTLCurrentPrice = 2 * time.Minute
)
