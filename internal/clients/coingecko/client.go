// Package coingecko provides a client for the CoinGecko API.
// CoinGecko indexes coins by its own ids (e.g. "bitcoin", "avalanche-2"),
// not by ticker symbols, so every call takes a coin id.
package coingecko

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

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// Client for the CoinGecko API
type Client struct {
	baseURL    string
	apiKey     string // Optional - raises rate limits on the demo tier
	httpClient *http.Client
	log        zerolog.Logger
	cacheRepo  *clientdata.Repository
}

// NewClient creates a new CoinGecko client.
// apiKey is optional. cacheRepo is optional - if nil, caching is disabled.
func NewClient(apiKey string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.With().Str("client", "coingecko").Logger(),
		cacheRepo:  cacheRepo,
	}
}

// SimplePrice is the per-coin payload of /simple/price.
type SimplePrice struct {
	USD float64 `json:"usd"`
}

// MarketChart is the response of /coins/{id}/market_chart.
// Prices holds [unix_ms, price] pairs.
type MarketChart struct {
	Prices [][2]float64 `json:"prices"`
}

// CoinDetails carries the descriptive market data of /coins/{id}.
type CoinDetails struct {
	MarketData struct {
		MarketCap   map[string]float64 `json:"market_cap"`
		TotalVolume map[string]float64 `json:"total_volume"`
	} `json:"market_data"`
}

// GetSimplePrice fetches the current USD price for a coin id.
func (c *Client) GetSimplePrice(ctx context.Context, id string) (float64, error) {
	if fresh, err := c.cacheGetFresh("coingecko_price", id); err == nil && fresh != nil {
		var cached SimplePrice
		if err := json.Unmarshal(fresh, &cached); err == nil {
			c.log.Debug().Str("id", id).Msg("Cache hit")
			return cached.USD, nil
		}
	}

	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.baseURL, url.QueryEscape(id))

	var result map[string]SimplePrice
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return 0, err
	}

	price, ok := result[id]
	if !ok {
		return 0, fmt.Errorf("price data not found for %s", id)
	}

	c.cacheStore("coingecko_price", id, price, clientdata.TTLCurrentPrice)

	return price.USD, nil
}

// GetMarketChart fetches the USD price series for a coin id over the last
// `days` days. CoinGecko picks the candle granularity itself: minutely for
// 1 day, hourly up to 90 days, daily beyond.
func (c *Client) GetMarketChart(ctx context.Context, id string, days int) (*MarketChart, error) {
	cacheKey := fmt.Sprintf("%s:%d", id, days)

	if fresh, err := c.cacheGetFresh("coingecko_chart", cacheKey); err == nil && fresh != nil {
		var cached MarketChart
		if err := json.Unmarshal(fresh, &cached); err == nil {
			c.log.Debug().Str("id", id).Int("days", days).Msg("Cache hit")
			return &cached, nil
		}
	}

	endpoint := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d",
		c.baseURL, url.PathEscape(id), days)

	var chart MarketChart
	if err := c.getJSON(ctx, endpoint, &chart); err != nil {
		return nil, err
	}

	c.cacheStore("coingecko_chart", cacheKey, chart, clientdata.TTLChart)

	return &chart, nil
}

// GetCoinDetails fetches descriptive market data (market cap, volume) for a coin id.
// If the API fails, returns stale cached data if available (stale data > no data).
func (c *Client) GetCoinDetails(ctx context.Context, id string) (*CoinDetails, error) {
	if fresh, err := c.cacheGetFresh("coingecko_coin", id); err == nil && fresh != nil {
		var cached CoinDetails
		if err := json.Unmarshal(fresh, &cached); err == nil {
			c.log.Debug().Str("id", id).Msg("Cache hit")
			return &cached, nil
		}
	}

	endpoint := fmt.Sprintf(
		"%s/coins/%s?localization=false&tickers=false&market_data=true&community_data=false&developer_data=false",
		c.baseURL, url.PathEscape(id))

	var details CoinDetails
	if err := c.getJSON(ctx, endpoint, &details); err != nil {
		// Details are display-only, so a stale answer beats none
		if stale, cacheErr := c.cacheGetStale("coingecko_coin", id); cacheErr == nil && stale != nil {
			var cached CoinDetails
			if jsonErr := json.Unmarshal(stale, &cached); jsonErr == nil {
				c.log.Warn().Err(err).Str("id", id).Msg("API failed, using stale cached coin details")
				return &cached, nil
			}
		}
		return nil, err
	}

	c.cacheStore("coingecko_coin", id, details, clientdata.TTLCoinDetails)

	return &details, nil
}

// getJSON performs a GET request and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

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

func (c *Client) cacheGetFresh(table, key string) (json.RawMessage, error) {
	if c.cacheRepo == nil {
		return nil, nil
	}
	return c.cacheRepo.GetIfFresh(table, key)
}

func (c *Client) cacheGetStale(table, key string) (json.RawMessage, error) {
	if c.cacheRepo == nil {
		return nil, nil
	}
	return c.cacheRepo.Get(table, key)
}

func (c *Client) cacheStore(table, key string, data interface{}, ttl time.Duration) {
	if c.cacheRepo == nil {
		return
	}
	if err := c.cacheRepo.Store(table, key, data, ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Failed to cache response")
	}
}

// SetBaseURL overrides the API base URL. Used by tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}
