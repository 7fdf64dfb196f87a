package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hoanghai1803/daybrief/internal/models"
	"github.com/hoanghai1803/daybrief/internal/storage"
)

// GetFeeds handles GET /api/feeds. It returns all curated feeds.
func GetFeeds(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feeds, err := store.GetAllFeeds(r.Context())
		if err != nil {
			slog.Error("failed to get feeds", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to get feeds")
			return
		}

		writeJSON(w, http.StatusOK, feeds)
	}
}

// AddFeed handles POST /api/feeds. The feed is active unless the body says
// otherwise.
func AddFeed(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name     string `json:"name"`
			URL      string `json:"url"`
			Category string `json:"category"`
			IsActive *bool  `json:"is_active"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		u, err := url.Parse(strings.TrimSpace(body.URL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			writeError(w, http.StatusBadRequest, "url must be an absolute http(s) URL")
			return
		}

		feed := models.RSSFeed{
			Name:     body.Name,
			URL:      u.String(),
			Category: body.Category,
			IsActive: body.IsActive == nil || *body.IsActive,
		}
		id, err := store.AddFeed(r.Context(), feed)
		if err != nil {
			if errors.Is(err, storage.ErrConflict) {
				writeError(w, http.StatusConflict, "Feed URL already added")
				return
			}
			slog.Error("failed to add feed", "url", feed.URL, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to add feed")
			return
		}

		writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
	}
}

// ToggleFeed handles PUT /api/feeds/{id}. It sets the is_active flag for a
// curated feed.
func ToggleFeed(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := parseID(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var body struct {
			IsActive bool `json:"is_active"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		if err := store.ToggleFeed(ctx, id, body.IsActive); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Feed not found")
				return
			}
			slog.Error("failed to toggle feed", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to toggle feed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	}
}
