package assets

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// assetColumns is the list of columns for the assets table.
// Used to avoid SELECT * which can break when schema changes.
const assetColumns = `id, symbol, name, asset_type, api_identifier, created_at, updated_at`

// Repository handles asset catalog database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new asset repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "assets").Logger(),
	}
}

// GetAll returns every tracked asset, ordered by symbol
func (r *Repository) GetAll() ([]Asset, error) {
	rows, err := r.db.Query("SELECT " + assetColumns + " FROM assets ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var result []Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		result = append(result, asset)
	}

	return result, rows.Err()
}

// GetBySymbol returns an asset by symbol, or nil when not found
func (r *Repository) GetBySymbol(symbol string) (*Asset, error) {
	query := "SELECT " + assetColumns + " FROM assets WHERE symbol = ?"

	rows, err := r.db.Query(query, strings.ToUpper(strings.TrimSpace(symbol)))
	if err != nil {
		return nil, fmt.Errorf("failed to query asset by symbol: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil // Asset not found
	}

	asset, err := scanAsset(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan asset: %w", err)
	}

	return &asset, nil
}

// Upsert creates an asset or updates name/type/identifier for an existing symbol.
// Returns true when a new row was created.
func (r *Repository) Upsert(asset Asset) (bool, error) {
	if !asset.Type.Valid() {
		return false, fmt.Errorf("invalid asset type: %s", asset.Type)
	}

	symbol := strings.ToUpper(strings.TrimSpace(asset.Symbol))
	now := time.Now().Unix()

	existing, err := r.GetBySymbol(symbol)
	if err != nil {
		return false, err
	}

	if existing == nil {
		_, err := r.db.Exec(
			`INSERT INTO assets (symbol, name, asset_type, api_identifier, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			symbol, asset.Name, string(asset.Type), nullable(asset.APIIdentifier), now, now,
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert asset %s: %w", symbol, err)
		}
		return true, nil
	}

	_, err = r.db.Exec(
		`UPDATE assets SET name = ?, asset_type = ?, api_identifier = ?, updated_at = ? WHERE symbol = ?`,
		asset.Name, string(asset.Type), nullable(asset.APIIdentifier), now, symbol,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update asset %s: %w", symbol, err)
	}
	return false, nil
}

// Count returns the number of tracked assets
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM assets").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count assets: %w", err)
	}
	return count, nil
}

func scanAsset(rows *sql.Rows) (Asset, error) {
	var asset Asset
	var assetType string
	var apiIdentifier sql.NullString

	if err := rows.Scan(&asset.ID, &asset.Symbol, &asset.Name, &assetType,
		&apiIdentifier, &asset.CreatedAt, &asset.UpdatedAt); err != nil {
		return Asset{}, err
	}

	asset.Type = AssetType(assetType)
	if apiIdentifier.Valid {
		asset.APIIdentifier = apiIdentifier.String
	}

	return asset, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// PriceRepository handles sampled price history database operations
type PriceRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPriceRepository creates a new price point repository
func NewPriceRepository(db *sql.DB, log zerolog.Logger) *PriceRepository {
	return &PriceRepository{
		db:  db,
		log: log.With().Str("repo", "price_points").Logger(),
	}
}

// Create appends a price point for an asset with a server-assigned timestamp
func (r *PriceRepository) Create(assetID int64, price decimal.Decimal) error {
	_, err := r.db.Exec(
		"INSERT INTO price_points (asset_id, price, timestamp) VALUES (?, ?, ?)",
		assetID, price.String(), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert price point for asset %d: %w", assetID, err)
	}
	return nil
}

// Latest returns the most recent price point for an asset, or nil when the
// asset has no samples yet
func (r *PriceRepository) Latest(assetID int64) (*PricePoint, error) {
	row := r.db.QueryRow(
		"SELECT id, asset_id, price, timestamp FROM price_points WHERE asset_id = ? ORDER BY timestamp DESC LIMIT 1",
		assetID,
	)

	point, err := scanPricePoint(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest price point: %w", err)
	}
	return point, nil
}

// LatestBefore returns the most recent price point at or before the cutoff.
// Used for 24h change: the point nearest to "one day ago" from the past side.
func (r *PriceRepository) LatestBefore(assetID int64, cutoff time.Time) (*PricePoint, error) {
	row := r.db.QueryRow(
		"SELECT id, asset_id, price, timestamp FROM price_points WHERE asset_id = ? AND timestamp <= ? ORDER BY timestamp DESC LIMIT 1",
		assetID, cutoff.Unix(),
	)

	point, err := scanPricePoint(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query price point before cutoff: %w", err)
	}
	return point, nil
}

// Since returns all price points for an asset with timestamp >= cutoff,
// ascending by timestamp
func (r *PriceRepository) Since(assetID int64, cutoff time.Time) ([]PricePoint, error) {
	rows, err := r.db.Query(
		"SELECT id, asset_id, price, timestamp FROM price_points WHERE asset_id = ? AND timestamp >= ? ORDER BY timestamp ASC",
		assetID, cutoff.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query price points: %w", err)
	}
	defer rows.Close()

	var result []PricePoint
	for rows.Next() {
		var point PricePoint
		var priceStr string
		if err := rows.Scan(&point.ID, &point.AssetID, &priceStr, &point.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt price %q for asset %d: %w", priceStr, point.AssetID, err)
		}
		point.Price = price
		result = append(result, point)
	}

	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPricePoint(row rowScanner) (*PricePoint, error) {
	var point PricePoint
	var priceStr string

	if err := row.Scan(&point.ID, &point.AssetID, &priceStr, &point.Timestamp); err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt price %q for asset %d: %w", priceStr, point.AssetID, err)
	}
	point.Price = price

	return &point, nil
}
