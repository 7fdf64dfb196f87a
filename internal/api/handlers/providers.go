package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hoanghai1803/daybrief/internal/models"
)

// HealthTracker exposes provider pause state.
type HealthTracker interface {
	Status(ctx context.Context) ([]models.ProviderHealthRecord, error)
	Clear(ctx context.Context, provider string) (bool, error)
}

// providerStatus is one row of GET /api/providers/status.
type providerStatus struct {
	models.ProviderHealthRecord
	Paused bool `json:"paused"`
}

// GetProviderStatus handles GET /api/providers/status. Every name in known
// is listed even without a stored record, followed by any other provider
// that has one.
func GetProviderStatus(tracker HealthTracker, known []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := tracker.Status(r.Context())
		if err != nil {
			slog.Error("failed to get provider status", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to get provider status")
			return
		}

		byName := make(map[string]models.ProviderHealthRecord, len(records))
		for _, rec := range records {
			byName[rec.Provider] = rec
		}

		now := time.Now()
		out := make([]providerStatus, 0, len(known)+len(records))
		for _, name := range known {
			rec, ok := byName[name]
			if !ok {
				rec = models.ProviderHealthRecord{Provider: name}
			}
			out = append(out, providerStatus{ProviderHealthRecord: rec, Paused: rec.Paused(now)})
		}
		for _, rec := range records {
			if !slices.Contains(known, rec.Provider) {
				out = append(out, providerStatus{ProviderHealthRecord: rec, Paused: rec.Paused(now)})
			}
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// ClearProviderPause handles DELETE /api/providers/{name}/pause.
func ClearProviderPause(tracker HealthTracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if name == "" {
			writeError(w, http.StatusBadRequest, "missing provider name")
			return
		}

		cleared, err := tracker.Clear(r.Context(), name)
		if err != nil {
			slog.Error("failed to clear provider pause", "provider", name, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to clear provider pause")
			return
		}
		if !cleared {
			writeError(w, http.StatusNotFound, "Provider has no recorded state")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}
