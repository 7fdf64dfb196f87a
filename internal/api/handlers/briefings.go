package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hoanghai1803/daybrief/internal/models"
	"github.com/hoanghai1803/daybrief/internal/pipeline"
	"github.com/hoanghai1803/daybrief/internal/storage"
)

// BriefingRunner runs the briefing pipeline.
type BriefingRunner interface {
	Run(ctx context.Context, settings models.RunSettings, trigger string) (*pipeline.Result, error)
}

// CreateBriefing handles POST /api/briefings. The body is a RunSettings
// object; omitted fields come from the saved defaults. An empty body runs
// with the defaults alone.
func CreateBriefing(runner BriefingRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var settings models.RunSettings
		if err := decodeBody(r, &settings); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if settings.Duration != "" && !settings.Duration.Valid() {
			writeError(w, http.StatusBadRequest, "Invalid duration: "+string(settings.Duration))
			return
		}

		res, err := runner.Run(r.Context(), settings, pipeline.TriggerManual)
		if err != nil {
			writeDomainError(w, err, "create briefing")
			return
		}

		slog.Info("briefing created", "id", res.BriefingID, "items", len(res.Items))
		writeJSON(w, http.StatusCreated, res)
	}
}

// ListBriefings handles GET /api/briefings. It returns the newest saved
// briefings first; ?limit= caps the count.
func ListBriefings(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseLimit(r, 20, storage.MaxBriefings)

		records, err := store.ListBriefings(r.Context(), limit)
		if err != nil {
			slog.Error("failed to list briefings", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to list briefings")
			return
		}

		writeJSON(w, http.StatusOK, records)
	}
}
