// Package yahoo provides a client for the public Yahoo Finance endpoints:
// chart data, quote statistics, and the news search feed.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"marketpulse/internal/clientdata"
)

const (
	defaultChartBaseURL = "https://query1.finance.yahoo.com"
	// Yahoo rejects requests without a browser-like User-Agent
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
)

// Client for Yahoo Finance
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
	cacheRepo  *clientdata.Repository
}

// NewClient creates a new Yahoo Finance client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    defaultChartBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.With().Str("client", "yahoo").Logger(),
		cacheRepo:  cacheRepo,
	}
}

// Chart is a single symbol's chart result.
// Close values may be null for halted/missing candles, hence *float64.
type Chart struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		Currency           string  `json:"currency"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		ChartPreviousClose float64 `json:"chartPreviousClose"`
	} `json:"meta"`
	Timestamps []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// chartResponse mirrors the /v8/finance/chart envelope.
type chartResponse struct {
	Chart struct {
		Result []Chart `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Quote carries the descriptive statistics of /v7/finance/quote.
type Quote struct {
	Symbol              string  `json:"symbol"`
	ShortName           string  `json:"shortName"`
	MarketCap           float64 `json:"marketCap"`
	RegularMarketVolume float64 `json:"regularMarketVolume"`
	RegularMarketPrice  float64 `json:"regularMarketPrice"`
	PreviousClose       float64 `json:"regularMarketPreviousClose"`
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []Quote `json:"result"`
	} `json:"quoteResponse"`
}

// NewsItem is one article from the news search feed.
type NewsItem struct {
	Title              string `json:"title"`
	Publisher          string `json:"publisher"`
	Link               string `json:"link"`
	ProviderPublishTime int64 `json:"providerPublishTime"`
	Thumbnail          *struct {
		Resolutions []Thumbnail `json:"resolutions"`
	} `json:"thumbnail"`
}

// Thumbnail is one entry of a news item's resolution array.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type searchResponse struct {
	News []NewsItem `json:"news"`
}

// GetChart fetches candles for a symbol over the given range and interval
// (e.g. rng "1d" interval "5m", rng "5d" interval "15m", rng "1y" interval "1d").
func (c *Client) GetChart(ctx context.Context, symbol, rng, interval string) (*Chart, error) {
	cacheKey := fmt.Sprintf("%s:%s:%s", symbol, rng, interval)

	if c.cacheRepo != nil {
		if fresh, err := c.cacheRepo.GetIfFresh("yahoo_chart", cacheKey); err == nil && fresh != nil {
			var cached Chart
			if err := json.Unmarshal(fresh, &cached); err == nil {
				c.log.Debug().Str("symbol", symbol).Str("range", rng).Msg("Cache hit")
				return &cached, nil
			}
		}
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(rng), url.QueryEscape(interval))

	var resp chartResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s", symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no chart data for %s", symbol)
	}

	chart := resp.Chart.Result[0]

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("yahoo_chart", cacheKey, chart, clientdata.TTLChart); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache chart")
		}
	}

	return &chart, nil
}

// GetQuote fetches quote statistics for a symbol.
// If the API fails, returns stale cached data if available (stale data > no data).
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	if c.cacheRepo != nil {
		if fresh, err := c.cacheRepo.GetIfFresh("yahoo_quote", symbol); err == nil && fresh != nil {
			var cached Quote
			if err := json.Unmarshal(fresh, &cached); err == nil {
				c.log.Debug().Str("symbol", symbol).Msg("Cache hit")
				return &cached, nil
			}
		}
	}

	endpoint := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", c.baseURL, url.QueryEscape(symbol))

	var resp quoteResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		if stale, age, ok := c.getStaleQuote(symbol); ok {
			c.log.Warn().
				Err(err).
				Str("symbol", symbol).
				Dur("age", age).
				Msg("API failed, serving stale cached quote")
			return stale, nil
		}
		return nil, err
	}

	if len(resp.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("no quote data for %s", symbol)
	}

	quote := resp.QuoteResponse.Result[0]

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("yahoo_quote", symbol, quote, clientdata.TTLQuoteStats); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
		}
	}

	return &quote, nil
}

// SearchNews fetches news articles matching a query (ticker or free text).
// Not cached: headlines churn fast and the aggregator already soft-fails.
func (c *Client) SearchNews(ctx context.Context, query string) ([]NewsItem, error) {
	endpoint := fmt.Sprintf("%s/v1/finance/search?q=%s&newsCount=20", c.baseURL, url.QueryEscape(query))

	var resp searchResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	return resp.News, nil
}

func (c *Client) getStaleQuote(symbol string) (*Quote, time.Duration, bool) {
	if c.cacheRepo == nil {
		return nil, 0, false
	}
	data, age, err := c.cacheRepo.GetWithAge("yahoo_quote", symbol)
	if err != nil || data == nil {
		return nil, 0, false
	}
	var cached Quote
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, 0, false
	}
	return &cached, age, true
}

// getJSON performs a GET request and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// SetBaseURL overrides the API base URL. Used by tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}
