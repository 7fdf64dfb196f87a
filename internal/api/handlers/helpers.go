package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hoanghai1803/daybrief/internal/aggregator"
	"github.com/hoanghai1803/daybrief/internal/pipeline"
	"github.com/hoanghai1803/daybrief/internal/schedule"
	"github.com/hoanghai1803/daybrief/internal/storage"
)

// writeJSON encodes v as JSON and writes it to the response with the given
// HTTP status code. Content-Type is always set to application/json.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; nothing left but logging.
		slog.Error("encoding response", "error", err)
	}
}

// writeError writes a JSON error response with the given HTTP status code.
// The response body is {"error": "message"}.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// runErrorBody is the response for a run that produced no briefing.
type runErrorBody struct {
	Error     string                      `json:"error"`
	Kind      pipeline.Kind               `json:"kind"`
	Providers []aggregator.ProviderStatus `json:"providers,omitempty"`
}

// writeDomainError maps err onto a status code. action names the operation
// for the log line and the generic 500 message.
func writeDomainError(w http.ResponseWriter, err error, action string) {
	var ve *schedule.ValidationError
	var pe *pipeline.Error

	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, schedule.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &pe):
		status := http.StatusServiceUnavailable
		if pe.Kind == pipeline.KindNoContentAfterFiltering {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, runErrorBody{Error: pe.Error(), Kind: pe.Kind, Providers: pe.Report})
	default:
		slog.Error("request failed", "action", action, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

// decodeBody decodes the JSON request body into dest. An empty body leaves
// dest unchanged.
func decodeBody(r *http.Request, dest any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// parseID extracts an int64 from a chi URL parameter.
func parseID(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	if raw == "" {
		return 0, fmt.Errorf("missing URL parameter %q", param)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %q parameter: %w", param, err)
	}
	return id, nil
}

// parseLimit reads the "limit" query parameter, clamped to [1, maxN].
func parseLimit(r *http.Request, def, maxN int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 1 {
		return def
	}
	return min(n, maxN)
}
