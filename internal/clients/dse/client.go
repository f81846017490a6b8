// Package dse provides a client for Dhaka Stock Exchange quotes.
// DSE publishes no API; the latest-share-price page is scraped the same way
// the usual DSE libraries do it. Only live quotes are available - the
// exchange exposes no historical endpoint.
package dse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"marketpulse/internal/clientdata"
)

const defaultBaseURL = "https://www.dsebd.org"

// Client scrapes dsebd.org for live trade data
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
	cacheRepo  *clientdata.Repository
}

// NewClient creates a new DSE client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log.With().Str("client", "dse").Logger(),
		cacheRepo:  cacheRepo,
	}
}

// Trade is the live quote row for one trading code.
// LTP is kept as the exchange's string (it may carry thousands separators);
// callers parse it into a decimal.
type Trade struct {
	Symbol string `json:"symbol"`
	LTP    string `json:"ltp"`
	High   string `json:"high"`
	Low    string `json:"low"`
}

var (
	rowRe = regexp.MustCompile(`(?s)<tr[^>]*>(.*?)</tr>`)
	colRe = regexp.MustCompile(`(?s)<td[^>]*>(.*?)</td>`)
	tagRe = regexp.MustCompile(`<[^>]*>`)
)

// GetLatestTrade fetches the latest trade data for a DSE trading code.
// If the page fails to load, returns stale cached data if available.
func (c *Client) GetLatestTrade(ctx context.Context, symbol string) (*Trade, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	if c.cacheRepo != nil {
		if fresh, err := c.cacheRepo.GetIfFresh("dse_quote", symbol); err == nil && fresh != nil {
			var cached Trade
			if err := json.Unmarshal(fresh, &cached); err == nil {
				c.log.Debug().Str("symbol", symbol).Msg("Cache hit")
				return &cached, nil
			}
		}
	}

	page, err := c.fetchLatestSharePrices(ctx)
	if err != nil {
		if stale, age, ok := c.getStale(symbol); ok {
			c.log.Warn().
				Err(err).
				Str("symbol", symbol).
				Dur("age", age).
				Msg("Scrape failed, serving stale cached quote")
			return stale, nil
		}
		return nil, err
	}

	trade, err := parseTradeRow(page, symbol)
	if err != nil {
		return nil, err
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("dse_quote", symbol, trade, clientdata.TTLCurrentPrice); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
		}
	}

	return trade, nil
}

// fetchLatestSharePrices downloads the latest-share-price page HTML.
func (c *Client) fetchLatestSharePrices(ctx context.Context) (string, error) {
	endpoint := c.baseURL + "/latest_share_price_scroll_l.php"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("DSE returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	return string(body), nil
}

// parseTradeRow finds the table row for a trading code and extracts its cells.
// Row layout on the page: #, TRADING CODE, LTP, HIGH, LOW, CLOSEP, ...
func parseTradeRow(page, symbol string) (*Trade, error) {
	for _, row := range rowRe.FindAllStringSubmatch(page, -1) {
		cols := colRe.FindAllStringSubmatch(row[1], -1)
		if len(cols) < 5 {
			continue
		}

		code := cellText(cols[1][1])
		if !strings.EqualFold(code, symbol) {
			continue
		}

		trade := &Trade{
			Symbol: strings.ToUpper(code),
			LTP:    cellText(cols[2][1]),
			High:   cellText(cols[3][1]),
			Low:    cellText(cols[4][1]),
		}
		if trade.LTP == "" || trade.LTP == "--" {
			return nil, fmt.Errorf("no trade price listed for %s", symbol)
		}
		return trade, nil
	}

	return nil, fmt.Errorf("trading code %s not found on DSE price page", symbol)
}

// cellText strips tags and whitespace from a table cell.
func cellText(cell string) string {
	return strings.TrimSpace(tagRe.ReplaceAllString(cell, ""))
}

func (c *Client) getStale(symbol string) (*Trade, time.Duration, bool) {
	if c.cacheRepo == nil {
		return nil, 0, false
	}
	data, age, err := c.cacheRepo.GetWithAge("dse_quote", symbol)
	if err != nil || data == nil {
		return nil, 0, false
	}
	var cached Trade
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, 0, false
	}
	return &cached, age, true
}

// SetBaseURL overrides the scrape base URL. Used by tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}
