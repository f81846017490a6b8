// Package market unifies heterogeneous market-data providers behind one
// adapter contract, keyed by asset class. Price failures propagate; history
// and details degrade gracefully because they are display-only.
package market

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"marketpulse/internal/modules/assets"
)

// HistoryPoint is one normalized observation of a historical series.
// TimeLabel formatting depends on the requested period (see Period.TimeLabel).
type HistoryPoint struct {
	TimeLabel string  `json:"time_label"`
	Value     float64 `json:"value"`
}

// Details carries supplementary descriptive data. Fields fall back to "N/A"
// individually when a provider has nothing usable.
type Details struct {
	MarketCap string `json:"market_cap"`
	Volume    string `json:"volume"`
}

// NoDetails is the fully degraded Details value.
var NoDetails = Details{MarketCap: "N/A", Volume: "N/A"}

// Adapter is the uniform per-asset-class market data contract.
//
// GetPrice returns the current/last-traded price or an error - it never
// silently returns a zero or partial value.
//
// GetHistory returns the normalized series for a period. Upstream failures
// yield an empty slice and nil error; the one exception is a crypto asset
// with a missing identifier, which is ErrInvalidRequest (hard precondition,
// not a soft failure).
//
// GetDetails never fails; unavailable fields come back as "N/A".
type Adapter interface {
	GetPrice(ctx context.Context, symbol, identifier string) (decimal.Decimal, error)
	GetHistory(ctx context.Context, symbol, period, identifier string) ([]HistoryPoint, error)
	GetDetails(ctx context.Context, symbol, identifier string) Details
}

// Registry resolves asset classes to adapter instances. The mapping is
// closed: exactly one adapter per known class, no plugin extensibility.
type Registry struct {
	adapters map[assets.AssetType]Adapter
}

// NewRegistry builds the exhaustive class-to-adapter mapping.
func NewRegistry(crypto, global, dse Adapter) *Registry {
	return &Registry{
		adapters: map[assets.AssetType]Adapter{
			assets.TypeCrypto:      crypto,
			assets.TypeGlobalStock: global,
			assets.TypeDSEStock:    dse,
		},
	}
}

// ForType returns the adapter registered for an asset class.
func (r *Registry) ForType(t assets.AssetType) (Adapter, error) {
	adapter, ok := r.adapters[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAssetClass, t)
	}
	return adapter, nil
}

// ForAsset resolves the adapter for an asset record.
func (r *Registry) ForAsset(a *assets.Asset) (Adapter, error) {
	return r.ForType(a.Type)
}
