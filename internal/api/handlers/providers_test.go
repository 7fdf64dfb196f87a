package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hoanghai1803/daybrief/internal/health"
	"github.com/hoanghai1803/daybrief/internal/storage"
)

func TestGetProviderStatus(t *testing.T) {
	tracker := health.NewTracker(storage.NewMemoryKV())
	ctx := context.Background()
	tracker.RecordFailure(ctx, "newsapi", errors.New("rate limit exceeded (HTTP 429)"))
	tracker.RecordFailure(ctx, "legacy", errors.New("connection refused"))

	r := httptest.NewRequest(http.MethodGet, "/api/providers/status", nil)
	w := httptest.NewRecorder()

	GetProviderStatus(tracker, []string{"gnews", "newsapi"}).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
	}

	var got []struct {
		Provider          string `json:"provider"`
		Paused            bool   `json:"paused"`
		LastFailureReason string `json:"last_failure_reason"`
	}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d rows, want 3: %+v", len(got), got)
	}

	want := []struct {
		provider string
		paused   bool
	}{
		{"gnews", false},
		{"newsapi", true},
		{"legacy", false},
	}
	for i, exp := range want {
		if got[i].Provider != exp.provider || got[i].Paused != exp.paused {
			t.Errorf("row %d = %+v, want provider %q paused %v", i, got[i], exp.provider, exp.paused)
		}
	}
	if got[2].LastFailureReason != "connection refused" {
		t.Errorf("legacy reason = %q", got[2].LastFailureReason)
	}
}

func TestClearProviderPause(t *testing.T) {
	tracker := health.NewTracker(storage.NewMemoryKV())
	ctx := context.Background()
	tracker.RecordFailure(ctx, "guardian", errors.New("access forbidden (HTTP 403)"))

	r := withURLParams(httptest.NewRequest(http.MethodDelete, "/api/providers/guardian/pause", nil), "name", "guardian")
	w := httptest.NewRecorder()
	ClearProviderPause(tracker).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
	}
	if tracker.IsPaused(ctx, "guardian") {
		t.Error("guardian still paused")
	}

	w = httptest.NewRecorder()
	ClearProviderPause(tracker).ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("second clear: got status %d, want %d", w.Code, http.StatusNotFound)
	}
}
