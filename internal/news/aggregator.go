package news

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultHeadlineLimit caps the merged feed when the caller does not say.
const DefaultHeadlineLimit = 10

// minHeadlines is the floor below which synthetic filler kicks in so the
// landing carousel never renders empty.
const minHeadlines = 3

// countryQueries maps country codes to Google News search queries.
var countryQueries = map[string]string{
	"us": "US Financial Markets",
	"uk": "UK Business News",
	"jp": "Japan Economy",
	"bd": "Bangladesh Economy",
}

// queryFetcher runs an arbitrary search against a headline provider.
type queryFetcher interface {
	FetchQuery(ctx context.Context, query string) ([]Item, error)
}

// Aggregator merges all configured sources into one feed.
type Aggregator struct {
	sources []Source
	search  queryFetcher
	log     zerolog.Logger
}

// NewAggregator creates a news aggregator. search serves the per-country
// feed and may be one of the sources.
func NewAggregator(sources []Source, search queryFetcher, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		sources: sources,
		search:  search,
		log:     log.With().Str("component", "news_aggregator").Logger(),
	}
}

// TopHeadlines fetches every source concurrently, merges the results newest
// first, and truncates to limit. A failing source contributes an empty
// list. When fewer than three real headlines survive, fixed synthetic items
// pad the feed before the final truncation.
func (a *Aggregator) TopHeadlines(ctx context.Context, limit int) []Item {
	if limit <= 0 {
		limit = DefaultHeadlineLimit
	}

	results := make([][]Item, len(a.sources))
	var wg sync.WaitGroup
	for i, source := range a.sources {
		wg.Add(1)
		go func(i int, source Source) {
			defer wg.Done()
			items, err := source.Fetch(ctx)
			if err != nil {
				a.log.Warn().Err(err).Str("source", source.Name()).Msg("News fetch failed")
				return
			}
			results[i] = items
		}(i, source)
	}
	wg.Wait()

	merged := make([]Item, 0)
	for _, items := range results {
		merged = append(merged, items...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt > merged[j].PublishedAt
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}

	if len(merged) < minHeadlines {
		merged = append(merged, syntheticHeadlines()...)
		if len(merged) > limit {
			merged = merged[:limit]
		}
	}

	return merged
}

// CountryNews fetches headlines for a country code via the search provider,
// in provider-native order. Unknown codes get a broad finance query.
func (a *Aggregator) CountryNews(ctx context.Context, countryCode string) []Item {
	query, ok := countryQueries[strings.ToLower(countryCode)]
	if !ok {
		query = "Global Finance News"
	}

	items, err := a.search.FetchQuery(ctx, query)
	if err != nil {
		a.log.Warn().Err(err).Str("country", countryCode).Msg("Country news fetch failed")
		return []Item{}
	}
	return items
}

// syntheticHeadlines are the fixed filler items used when live sources run
// dry. Origin marks them so clients can tell them apart from real news.
func syntheticHeadlines() []Item {
	now := time.Now().Unix()
	return []Item{
		{
			Headline:    "Global Markets Rally as Tech Sector Surges",
			Source:      "Market Watch",
			Link:        "#",
			PublishedAt: now,
			Origin:      "synthetic",
		},
		{
			Headline:    "Crypto Markets See Green Across the Board",
			Source:      "Crypto Daily",
			Link:        "#",
			PublishedAt: now,
			Origin:      "synthetic",
		},
		{
			Headline:    "New Economic Policies Announced by Central Bank",
			Source:      "Financial Times",
			Link:        "#",
			PublishedAt: now,
			Origin:      "synthetic",
		},
	}
}
