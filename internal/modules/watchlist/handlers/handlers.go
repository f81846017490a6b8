// Package handlers exposes per-user watchlists over HTTP. The user comes
// from the X-User-ID header; there is no authentication behind it.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"marketpulse/internal/modules/assets"
	"marketpulse/internal/modules/watchlist"
)

const userHeader = "X-User-ID"

// WatchlistHandlers contains HTTP handlers for the watchlist API
type WatchlistHandlers struct {
	log     zerolog.Logger
	entries *watchlist.Repository
	assets  *assets.Repository
}

// NewWatchlistHandlers creates a new watchlist handlers instance
func NewWatchlistHandlers(entryRepo *watchlist.Repository, assetRepo *assets.Repository, log zerolog.Logger) *WatchlistHandlers {
	return &WatchlistHandlers{
		log:     log.With().Str("component", "watchlist_handlers").Logger(),
		entries: entryRepo,
		assets:  assetRepo,
	}
}

type addRequest struct {
	Symbol string `json:"symbol"`
}

// HandleList returns the user's watchlist entries, newest first.
// GET /api/watchlist
func (h *WatchlistHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	entries, err := h.entries.ListByUser(userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load watchlist")
		http.Error(w, "failed to load watchlist", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, entries)
}

// HandleAdd puts an asset on the user's watchlist.
// POST /api/watchlist {"symbol": "AAPL"}
func (h *WatchlistHandlers) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	asset, err := h.assets.GetBySymbol(req.Symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", req.Symbol).Msg("Asset lookup failed")
		http.Error(w, "failed to load asset", http.StatusInternalServerError)
		return
	}
	if asset == nil {
		http.Error(w, "asset not found", http.StatusNotFound)
		return
	}

	id, err := h.entries.Add(userID, asset.ID)
	if err != nil {
		if errors.Is(err, watchlist.ErrDuplicateEntry) {
			http.Error(w, "asset already in watchlist", http.StatusConflict)
			return
		}
		h.log.Error().Err(err).Str("symbol", asset.Symbol).Msg("Failed to add watchlist entry")
		http.Error(w, "failed to add watchlist entry", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]string{
		"id":     id,
		"symbol": asset.Symbol,
	})
}

// HandleRemove drops an asset from the user's watchlist.
// DELETE /api/watchlist/{symbol}
func (h *WatchlistHandlers) HandleRemove(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	symbol := chi.URLParam(r, "symbol")
	asset, err := h.assets.GetBySymbol(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Asset lookup failed")
		http.Error(w, "failed to load asset", http.StatusInternalServerError)
		return
	}
	if asset == nil {
		http.Error(w, "asset not found", http.StatusNotFound)
		return
	}

	removed, err := h.entries.Remove(userID, asset.ID)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to remove watchlist entry")
		http.Error(w, "failed to remove watchlist entry", http.StatusInternalServerError)
		return
	}
	if !removed {
		http.Error(w, "asset not in watchlist", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *WatchlistHandlers) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		http.Error(w, "X-User-ID header is required", http.StatusBadRequest)
		return "", false
	}
	return userID, true
}

// writeJSON writes a JSON response
func (h *WatchlistHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
