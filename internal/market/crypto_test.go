package market

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/clients/coingecko"
)

type fakeCoinGecko struct {
	price   func(id string) (float64, error)
	chart   func(id string, days int) (*coingecko.MarketChart, error)
	details func(id string) (*coingecko.CoinDetails, error)
}

func (f *fakeCoinGecko) GetSimplePrice(ctx context.Context, id string) (float64, error) {
	return f.price(id)
}

func (f *fakeCoinGecko) GetMarketChart(ctx context.Context, id string, days int) (*coingecko.MarketChart, error) {
	return f.chart(id, days)
}

func (f *fakeCoinGecko) GetCoinDetails(ctx context.Context, id string) (*coingecko.CoinDetails, error) {
	return f.details(id)
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestCryptoGetPrice(t *testing.T) {
	client := &fakeCoinGecko{
		price: func(id string) (float64, error) {
			assert.Equal(t, "bitcoin", id)
			return 64250.12, nil
		},
	}
	adapter := NewCryptoAdapter(client, testLogger())

	price, err := adapter.GetPrice(context.Background(), "BTC-USD", "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "64250.12", price.String())
}

func TestCryptoGetPriceMissingIdentifier(t *testing.T) {
	adapter := NewCryptoAdapter(&fakeCoinGecko{}, testLogger())

	_, err := adapter.GetPrice(context.Background(), "BTC-USD", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestCryptoGetPriceUpstreamFailure(t *testing.T) {
	client := &fakeCoinGecko{
		price: func(id string) (float64, error) {
			return 0, errors.New("rate limited")
		},
	}
	adapter := NewCryptoAdapter(client, testLogger())

	_, err := adapter.GetPrice(context.Background(), "BTC-USD", "bitcoin")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestCryptoGetPriceZeroValue(t *testing.T) {
	client := &fakeCoinGecko{
		price: func(id string) (float64, error) { return 0, nil },
	}
	adapter := NewCryptoAdapter(client, testLogger())

	_, err := adapter.GetPrice(context.Background(), "BTC-USD", "bitcoin")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestCryptoGetHistory(t *testing.T) {
	ms := float64(time.Date(2024, 8, 28, 12, 0, 0, 0, time.UTC).UnixMilli())
	client := &fakeCoinGecko{
		chart: func(id string, days int) (*coingecko.MarketChart, error) {
			assert.Equal(t, "bitcoin", id)
			assert.Equal(t, 30, days)
			return &coingecko.MarketChart{
				Prices: [][2]float64{{ms, 64000.5}, {ms + 3600_000, 64100.25}},
			}, nil
		},
	}
	adapter := NewCryptoAdapter(client, testLogger())

	points, err := adapter.GetHistory(context.Background(), "BTC-USD", "30d", "bitcoin")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 64000.5, points[0].Value)
	assert.Equal(t, Period1Mo.TimeLabel(time.UnixMilli(int64(ms))), points[0].TimeLabel)
}

func TestCryptoGetHistoryMissingIdentifier(t *testing.T) {
	// Unlike an upstream failure, a missing identifier is a hard error
	// rather than an empty series.
	adapter := NewCryptoAdapter(&fakeCoinGecko{}, testLogger())

	points, err := adapter.GetHistory(context.Background(), "BTC-USD", "1d", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Nil(t, points)
}

func TestCryptoGetHistoryUpstreamFailure(t *testing.T) {
	client := &fakeCoinGecko{
		chart: func(id string, days int) (*coingecko.MarketChart, error) {
			return nil, errors.New("rate limited")
		},
	}
	adapter := NewCryptoAdapter(client, testLogger())

	points, err := adapter.GetHistory(context.Background(), "BTC-USD", "1d", "bitcoin")
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestCryptoGetDetails(t *testing.T) {
	details := &coingecko.CoinDetails{}
	details.MarketData.MarketCap = map[string]float64{"usd": 1.5e9}
	details.MarketData.TotalVolume = map[string]float64{"usd": 2.3e12}

	client := &fakeCoinGecko{
		details: func(id string) (*coingecko.CoinDetails, error) { return details, nil },
	}
	adapter := NewCryptoAdapter(client, testLogger())

	got := adapter.GetDetails(context.Background(), "BTC-USD", "bitcoin")
	assert.Equal(t, "$1.50B", got.MarketCap)
	assert.Equal(t, "$2.30T", got.Volume)
}

func TestCryptoGetDetailsDegrades(t *testing.T) {
	client := &fakeCoinGecko{
		details: func(id string) (*coingecko.CoinDetails, error) {
			return nil, errors.New("rate limited")
		},
	}
	adapter := NewCryptoAdapter(client, testLogger())

	assert.Equal(t, NoDetails, adapter.GetDetails(context.Background(), "BTC-USD", "bitcoin"))
	assert.Equal(t, NoDetails, adapter.GetDetails(context.Background(), "BTC-USD", ""))
}
