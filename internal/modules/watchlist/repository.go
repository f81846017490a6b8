// Package watchlist tracks which assets each user follows.
// Users are plain opaque identifiers; there is no account system behind them.
package watchlist

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"marketpulse/internal/modules/assets"
)

// ErrDuplicateEntry means the user already watches the asset.
var ErrDuplicateEntry = errors.New("asset already in watchlist")

// Entry is one watchlist row joined with its asset.
type Entry struct {
	ID        string       `json:"id"`
	UserID    string       `json:"-"`
	Asset     assets.Asset `json:"asset"`
	CreatedAt int64        `json:"created_at"`
}

// Repository handles watchlist persistence
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new watchlist repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "watchlist").Logger(),
	}
}

// ListByUser returns a user's entries, newest first.
func (r *Repository) ListByUser(userID string) ([]Entry, error) {
	rows, err := r.db.Query(`
		SELECT w.id, w.user_id, w.created_at,
		       a.id, a.symbol, a.name, a.asset_type, COALESCE(a.api_identifier, ''), a.created_at, a.updated_at
		FROM watchlist_entries w
		JOIN assets a ON a.id = w.asset_id
		WHERE w.user_id = ?
		ORDER BY w.created_at DESC, w.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		err := rows.Scan(
			&e.ID, &e.UserID, &e.CreatedAt,
			&e.Asset.ID, &e.Asset.Symbol, &e.Asset.Name, &e.Asset.Type,
			&e.Asset.APIIdentifier, &e.Asset.CreatedAt, &e.Asset.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Add puts an asset on a user's watchlist. Adding the same asset twice
// returns ErrDuplicateEntry via the UNIQUE(user_id, asset_id) constraint.
func (r *Repository) Add(userID string, assetID int64) (string, error) {
	id := uuid.NewString()

	_, err := r.db.Exec(`
		INSERT INTO watchlist_entries (id, user_id, asset_id)
		VALUES (?, ?, ?)`, id, userID, assetID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return "", ErrDuplicateEntry
		}
		return "", fmt.Errorf("failed to insert watchlist entry: %w", err)
	}

	return id, nil
}

// Remove drops an asset from a user's watchlist.
// Returns false when there was nothing to remove.
func (r *Repository) Remove(userID string, assetID int64) (bool, error) {
	result, err := r.db.Exec(`
		DELETE FROM watchlist_entries
		WHERE user_id = ? AND asset_id = ?`, userID, assetID)
	if err != nil {
		return false, fmt.Errorf("failed to delete watchlist entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}
