package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"marketpulse/internal/market"
	"marketpulse/internal/modules/assets"
)

// priceFetchTimeout bounds each provider call so one slow upstream cannot
// stall the whole sampling cycle.
const priceFetchTimeout = 15 * time.Second

// assetSource lists the assets to sample.
type assetSource interface {
	GetAll() ([]assets.Asset, error)
}

// priceSink persists sampled prices.
type priceSink interface {
	Create(assetID int64, price decimal.Decimal) error
}

// adapterResolver maps an asset to its market data adapter.
type adapterResolver interface {
	ForAsset(a *assets.Asset) (market.Adapter, error)
}

// PriceUpdateJob samples the current price of every cataloged asset and
// appends it to the price store. This is the only write path for price
// points. Failures are isolated per asset: one bad provider or record
// never blocks the rest of the sweep.
type PriceUpdateJob struct {
	assets   assetSource
	prices   priceSink
	registry adapterResolver
	log      zerolog.Logger
}

// NewPriceUpdateJob creates a new price sampling job
func NewPriceUpdateJob(assetRepo assetSource, priceRepo priceSink, registry adapterResolver, log zerolog.Logger) *PriceUpdateJob {
	return &PriceUpdateJob{
		assets:   assetRepo,
		prices:   priceRepo,
		registry: registry,
		log:      log.With().Str("job", "price_update").Logger(),
	}
}

// Name returns the job name
func (j *PriceUpdateJob) Name() string {
	return "price_update"
}

// Run executes one sampling sweep over the whole catalog.
func (j *PriceUpdateJob) Run() error {
	startTime := time.Now()

	catalog, err := j.assets.GetAll()
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to load asset catalog")
		return err
	}

	updated := 0
	failed := 0
	for i := range catalog {
		asset := &catalog[i]
		if err := j.sampleOne(asset); err != nil {
			failed++
			j.log.Warn().
				Err(err).
				Str("symbol", asset.Symbol).
				Str("type", string(asset.Type)).
				Msg("Price sample failed")
			continue
		}
		updated++
	}

	j.log.Info().
		Int("attempted", len(catalog)).
		Int("updated", updated).
		Int("failed", failed).
		Dur("duration", time.Since(startTime)).
		Msg("Price sweep completed")

	return nil
}

func (j *PriceUpdateJob) sampleOne(asset *assets.Asset) error {
	adapter, err := j.registry.ForAsset(asset)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), priceFetchTimeout)
	defer cancel()

	price, err := adapter.GetPrice(ctx, asset.Symbol, asset.APIIdentifier)
	if err != nil {
		return err
	}

	return j.prices.Create(asset.ID, price)
}
