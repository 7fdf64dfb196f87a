package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hoanghai1803/daybrief/internal/models"
	"github.com/hoanghai1803/daybrief/internal/storage"
)

// GetSettings handles GET /api/settings. It returns the saved default run
// settings, filled from fallback where unset.
func GetSettings(store *storage.Store, fallback models.RunSettings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs, err := store.DefaultRunSettings(r.Context(), fallback)
		if err != nil {
			slog.Error("failed to get settings", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to get settings")
			return
		}

		writeJSON(w, http.StatusOK, rs)
	}
}

// UpdateSettings handles PUT /api/settings. The body replaces the saved
// default run settings.
func UpdateSettings(store *storage.Store, fallback models.RunSettings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var rs models.RunSettings
		if err := decodeBody(r, &rs); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if rs.Duration != "" && !rs.Duration.Valid() {
			writeError(w, http.StatusBadRequest, "Invalid duration: "+string(rs.Duration))
			return
		}
		if rs.MaxAgeHours < 0 {
			writeError(w, http.StatusBadRequest, "max_age_hours must not be negative")
			return
		}

		if err := store.SaveDefaultRunSettings(ctx, rs); err != nil {
			slog.Error("failed to save settings", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}

		saved, err := store.DefaultRunSettings(ctx, fallback)
		if err != nil {
			slog.Error("failed to get settings after save", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to get settings")
			return
		}

		writeJSON(w, http.StatusOK, saved)
	}
}
