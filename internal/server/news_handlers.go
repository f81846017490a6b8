package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"marketpulse/internal/market"
	"marketpulse/internal/news"
)

// newsFeed is the slice of the news aggregator the handlers need.
type newsFeed interface {
	TopHeadlines(ctx context.Context, limit int) []news.Item
	CountryNews(ctx context.Context, countryCode string) []news.Item
}

// summaryFeed serves the market overview.
type summaryFeed interface {
	GetSummary(ctx context.Context) market.Summary
}

// NewsHandlers serves the aggregated news feed and the market overview.
// Both are best-effort surfaces: they answer 200 with whatever survived.
type NewsHandlers struct {
	log     zerolog.Logger
	feed    newsFeed
	summary summaryFeed
}

// NewNewsHandlers creates a new news handlers instance
func NewNewsHandlers(feed newsFeed, summary summaryFeed, log zerolog.Logger) *NewsHandlers {
	return &NewsHandlers{
		log:     log.With().Str("component", "news_handlers").Logger(),
		feed:    feed,
		summary: summary,
	}
}

// HandleTopHeadlines returns the merged headline feed.
// GET /api/news/top-headlines?limit=
func (h *NewsHandlers) HandleTopHeadlines(w http.ResponseWriter, r *http.Request) {
	limit := news.DefaultHeadlineLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	h.writeJSON(w, h.feed.TopHeadlines(r.Context(), limit))
}

// HandleCountryNews returns headlines for a country code.
// GET /api/news?country=
func (h *NewsHandlers) HandleCountryNews(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")
	if country == "" {
		country = "us"
	}

	h.writeJSON(w, h.feed.CountryNews(r.Context(), country))
}

// HandleMarketSummary returns the ticker strip and top gainers.
// GET /api/market/summary
func (h *NewsHandlers) HandleMarketSummary(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.summary.GetSummary(r.Context()))
}

// writeJSON writes a JSON response
func (h *NewsHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
