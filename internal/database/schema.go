package database

// Embedded schemas, keyed by database name. Single source of truth for each
// database's tables; applied by Migrate on every startup.
var schemas = map[string]string{
	"marketpulse": MainSchema,
	"client_data": ClientDataSchema,
}

// MainSchema holds the asset catalog, sampled price history and watchlists.
const MainSchema = `
CREATE TABLE IF NOT EXISTS assets (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    symbol         TEXT NOT NULL UNIQUE,
    name           TEXT NOT NULL,
    asset_type     TEXT NOT NULL CHECK (asset_type IN ('CRYPTO', 'STOCK_GLOBAL', 'STOCK_DSE')),
    api_identifier TEXT,
    created_at     INTEGER NOT NULL DEFAULT (unixepoch()),
    updated_at     INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS price_points (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    asset_id  INTEGER NOT NULL REFERENCES assets(id) ON DELETE CASCADE,
    price     TEXT NOT NULL,
    timestamp INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_price_points_asset_ts ON price_points(asset_id, timestamp);

CREATE TABLE IF NOT EXISTS watchlist_entries (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    asset_id   INTEGER NOT NULL REFERENCES assets(id) ON DELETE CASCADE,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    UNIQUE(user_id, asset_id)
);

CREATE INDEX IF NOT EXISTS idx_watchlist_user ON watchlist_entries(user_id);
`

// ClientDataSchema caches external provider responses as JSON blobs with
// expiration timestamps for cache-first behavior.
const ClientDataSchema = `
CREATE TABLE IF NOT EXISTS coingecko_price (key TEXT PRIMARY KEY, data TEXT NOT NULL, fetched_at INTEGER NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS coingecko_chart (key TEXT PRIMARY KEY, data TEXT NOT NULL, fetched_at INTEGER NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS coingecko_coin  (key TEXT PRIMARY KEY, data TEXT NOT NULL, fetched_at INTEGER NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS yahoo_quote     (key TEXT PRIMARY KEY, data TEXT NOT NULL, fetched_at INTEGER NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS yahoo_chart     (key TEXT PRIMARY KEY, data TEXT NOT NULL, fetched_at INTEGER NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS dse_quote       (key TEXT PRIMARY KEY, data TEXT NOT NULL, fetched_at INTEGER NOT NULL, expires_at INTEGER NOT NULL);

CREATE INDEX IF NOT EXISTS idx_coingecko_price_expires ON coingecko_price(expires_at);
CREATE INDEX IF NOT EXISTS idx_coingecko_chart_expires ON coingecko_chart(expires_at);
CREATE INDEX IF NOT EXISTS idx_coingecko_coin_expires  ON coingecko_coin(expires_at);
CREATE INDEX IF NOT EXISTS idx_yahoo_quote_expires     ON yahoo_quote(expires_at);
CREATE INDEX IF NOT EXISTS idx_yahoo_chart_expires     ON yahoo_chart(expires_at);
CREATE INDEX IF NOT EXISTS idx_dse_quote_expires       ON dse_quote(expires_at);
`
