package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/modules/assets"
)

func testRegistry() *Registry {
	crypto := NewCryptoAdapter(&fakeCoinGecko{}, testLogger())
	global := NewGlobalStockAdapter(&fakeYahoo{}, testLogger())
	dseAdapter := NewDSEAdapter(&fakeDSE{}, &fakeAssetLookup{}, &fakePriceStore{}, testLogger())
	return NewRegistry(crypto, global, dseAdapter)
}

func TestRegistryForType(t *testing.T) {
	registry := testRegistry()

	for _, at := range []assets.AssetType{assets.TypeCrypto, assets.TypeGlobalStock, assets.TypeDSEStock} {
		adapter, err := registry.ForType(at)
		require.NoError(t, err, "type %s", at)
		assert.NotNil(t, adapter)
	}
}

func TestRegistryUnknownType(t *testing.T) {
	registry := testRegistry()

	_, err := registry.ForType(assets.AssetType("BOND"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedAssetClass)
}

func TestRegistryForAsset(t *testing.T) {
	registry := testRegistry()

	adapter, err := registry.ForAsset(&assets.Asset{Symbol: "BTC-USD", Type: assets.TypeCrypto})
	require.NoError(t, err)
	assert.IsType(t, &CryptoAdapter{}, adapter)
}
