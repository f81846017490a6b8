package assets

import (
	"github.com/rs/zerolog"
)

// SeedCatalog is the initial asset catalog: large-cap global equities,
// major cryptocurrencies, and a handful of DSE blue chips.
var SeedCatalog = []Asset{
	// Global stocks
	{Symbol: "AAPL", Name: "Apple Inc.", Type: TypeGlobalStock, APIIdentifier: "AAPL"},
	{Symbol: "MSFT", Name: "Microsoft Corporation", Type: TypeGlobalStock, APIIdentifier: "MSFT"},
	{Symbol: "GOOGL", Name: "Alphabet Inc.", Type: TypeGlobalStock, APIIdentifier: "GOOGL"},
	{Symbol: "AMZN", Name: "Amazon.com, Inc.", Type: TypeGlobalStock, APIIdentifier: "AMZN"},
	{Symbol: "NVDA", Name: "NVIDIA Corporation", Type: TypeGlobalStock, APIIdentifier: "NVDA"},
	{Symbol: "META", Name: "Meta Platforms, Inc.", Type: TypeGlobalStock, APIIdentifier: "META"},
	{Symbol: "TSLA", Name: "Tesla, Inc.", Type: TypeGlobalStock, APIIdentifier: "TSLA"},
	{Symbol: "AMD", Name: "Advanced Micro Devices, Inc.", Type: TypeGlobalStock, APIIdentifier: "AMD"},
	{Symbol: "NFLX", Name: "Netflix, Inc.", Type: TypeGlobalStock, APIIdentifier: "NFLX"},
	{Symbol: "COIN", Name: "Coinbase Global, Inc.", Type: TypeGlobalStock, APIIdentifier: "COIN"},
	{Symbol: "JPM", Name: "JPMorgan Chase & Co.", Type: TypeGlobalStock, APIIdentifier: "JPM"},
	{Symbol: "V", Name: "Visa Inc.", Type: TypeGlobalStock, APIIdentifier: "V"},

	// Cryptocurrencies (api_identifier is the CoinGecko id)
	{Symbol: "BTC-USD", Name: "Bitcoin", Type: TypeCrypto, APIIdentifier: "bitcoin"},
	{Symbol: "ETH-USD", Name: "Ethereum", Type: TypeCrypto, APIIdentifier: "ethereum"},
	{Symbol: "SOL-USD", Name: "Solana", Type: TypeCrypto, APIIdentifier: "solana"},
	{Symbol: "XRP-USD", Name: "XRP", Type: TypeCrypto, APIIdentifier: "ripple"},
	{Symbol: "DOGE-USD", Name: "Dogecoin", Type: TypeCrypto, APIIdentifier: "dogecoin"},
	{Symbol: "ADA-USD", Name: "Cardano", Type: TypeCrypto, APIIdentifier: "cardano"},
	{Symbol: "AVAX-USD", Name: "Avalanche", Type: TypeCrypto, APIIdentifier: "avalanche-2"},
	{Symbol: "DOT-USD", Name: "Polkadot", Type: TypeCrypto, APIIdentifier: "polkadot"},
	{Symbol: "LINK-USD", Name: "Chainlink", Type: TypeCrypto, APIIdentifier: "chainlink"},
	{Symbol: "MATIC-USD", Name: "Polygon", Type: TypeCrypto, APIIdentifier: "matic-network"},

	// Dhaka Stock Exchange
	{Symbol: "GP", Name: "Grameenphone Ltd.", Type: TypeDSEStock, APIIdentifier: "GP.BD"},
	{Symbol: "BATBC", Name: "British American Tobacco Bangladesh", Type: TypeDSEStock, APIIdentifier: "BATBC.BD"},
	{Symbol: "WALTONHIL", Name: "Walton Hi-Tech Industries Ltd.", Type: TypeDSEStock, APIIdentifier: "WALTONHIL.BD"},
	{Symbol: "SQURPHARMA", Name: "Square Pharmaceuticals Ltd.", Type: TypeDSEStock, APIIdentifier: "SQURPHARMA.BD"},
	{Symbol: "RENATA", Name: "Renata Ltd.", Type: TypeDSEStock, APIIdentifier: "RENATA.BD"},
}

// Seed upserts the seed catalog. Existing symbols are updated in place, so
// running it repeatedly is safe. Returns (created, updated).
func Seed(repo *Repository, log zerolog.Logger) (int, int, error) {
	var created, updated int

	for _, asset := range SeedCatalog {
		wasCreated, err := repo.Upsert(asset)
		if err != nil {
			return created, updated, err
		}
		if wasCreated {
			created++
		} else {
			updated++
		}
	}

	log.Info().Int("created", created).Int("updated", updated).Msg("Asset seed complete")
	return created, updated, nil
}

// SeedIfEmpty seeds the catalog only when the assets table has no rows.
// Called at startup so a fresh deployment has something to sample.
func SeedIfEmpty(repo *Repository, log zerolog.Logger) error {
	count, err := repo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, _, err = Seed(repo, log)
	return err
}
