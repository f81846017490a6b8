// Package assets holds the tracked-asset catalog and its sampled price history.
package assets

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// AssetType classifies which market adapter and provider set apply to an asset.
type AssetType string

const (
	TypeCrypto      AssetType = "CRYPTO"
	TypeGlobalStock AssetType = "STOCK_GLOBAL"
	TypeDSEStock    AssetType = "STOCK_DSE"
)

// Valid reports whether the asset type is one of the known classes.
func (t AssetType) Valid() bool {
	switch t {
	case TypeCrypto, TypeGlobalStock, TypeDSEStock:
		return true
	}
	return false
}

// Asset is one tradable instrument in the catalog.
// APIIdentifier is the provider-specific lookup key; CoinGecko indexes coins
// by its own ids, so it is required for CRYPTO assets.
type Asset struct {
	ID            int64     `json:"id"`
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Type          AssetType `json:"asset_type"`
	APIIdentifier string    `json:"api_identifier,omitempty"`
	CreatedAt     int64     `json:"-"`
	UpdatedAt     int64     `json:"-"`
}

// PricePoint is one sampled price observation for an asset.
// Price is a fixed-point decimal; the sampler is the only writer.
type PricePoint struct {
	ID        int64           `json:"-"`
	AssetID   int64           `json:"-"`
	Price     decimal.Decimal `json:"price"`
	Timestamp int64           `json:"-"` // Unix seconds, server-assigned at insert
}

// MarshalJSON serializes a price point as {price: decimal-string, timestamp: RFC3339}.
func (p PricePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Price     string `json:"price"`
		Timestamp string `json:"timestamp"`
	}{
		Price:     p.Price.String(),
		Timestamp: time.Unix(p.Timestamp, 0).UTC().Format(time.RFC3339),
	})
}
