package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// SeedFunc loads the built-in asset catalog into storage.
type SeedFunc func() (created, updated int, err error)

// SampleFunc runs one price sampling pass outside its schedule.
type SampleFunc func() error

// AdminHandlers serves development-only maintenance endpoints.
// The server only mounts them in dev mode.
type AdminHandlers struct {
	log    zerolog.Logger
	seed   SeedFunc
	sample SampleFunc
}

// NewAdminHandlers creates a new admin handlers instance
func NewAdminHandlers(seed SeedFunc, sample SampleFunc, log zerolog.Logger) *AdminHandlers {
	return &AdminHandlers{
		log:    log.With().Str("component", "admin_handlers").Logger(),
		seed:   seed,
		sample: sample,
	}
}

// HandleSeed loads the built-in asset catalog, upserting existing rows.
// POST /api/admin/seed
func (h *AdminHandlers) HandleSeed(w http.ResponseWriter, r *http.Request) {
	created, updated, err := h.seed()
	if err != nil {
		h.log.Error().Err(err).Msg("Seeding failed")
		http.Error(w, "seeding failed", http.StatusInternalServerError)
		return
	}

	h.log.Info().Int("created", created).Int("updated", updated).Msg("Catalog seeded")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{
		"created": created,
		"updated": updated,
	})
}

// HandleSample forces one price sampling pass and waits for it.
// POST /api/admin/sample
func (h *AdminHandlers) HandleSample(w http.ResponseWriter, r *http.Request) {
	if err := h.sample(); err != nil {
		h.log.Error().Err(err).Msg("On-demand sampling failed")
		http.Error(w, "sampling failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
