package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNaturalList(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"A"}, "A"},
		{[]string{"A", "B"}, "A and B"},
		{[]string{"A", "B", "C"}, "A, B, and C"},
	}
	for _, tt := range tests {
		if got := naturalList(tt.in); got != tt.want {
			t.Errorf("naturalList(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsDailyShow(t *testing.T) {
	for _, name := range []string{"Good Morning America", "Jeopardy!", "The Late Show with Stephen Colbert", "General Hospital"} {
		if !isDailyShow(name) {
			t.Errorf("%q should be a daily show", name)
		}
	}
	if isDailyShow("The Bear") {
		t.Error("The Bear is not a daily show")
	}
}

func TestFormatEntertainment(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := EntertainmentListings{
		TrendingTV: []TMDBTitle{
			{Name: "Severance", OriginalLanguage: "en"},
			{Name: "Squid Game", OriginalLanguage: "ko"},
			{Name: "The Bear", OriginalLanguage: "en"},
			{Name: "Slow Horses", OriginalLanguage: "en"},
			{Name: "Andor", OriginalLanguage: "en"},
		},
		AiringToday: []TMDBTitle{
			{Name: "Good Morning America", OriginalLanguage: "en"},
			{Name: "Shrinking", OriginalLanguage: "en"},
		},
		PopularFilms: []TMDBTitle{
			{Title: "Dune"},
			{Title: "Wicked"},
		},
		Upcoming: []TMDBTitle{
			{Title: "Old Movie", ReleaseDate: "2025-12-01"},
			{Title: "Today Movie", ReleaseDate: "2026-01-01"},
			{Title: "Arrival Two", ReleaseDate: "2026-01-02"},
			{Title: "Borealis", ReleaseDate: "2026-02-03"},
			{Title: "Later Film", ReleaseDate: "2026-03-04"},
		},
	}

	got := FormatEntertainment(l, now)
	want := strings.Join([]string{
		"In trending television, Severance, The Bear, and Slow Horses are capturing audiences today.",
		"Tonight, Shrinking premieres with new episodes.",
		"In theaters and streaming, Dune and Wicked continue to draw viewers.",
		"Coming soon to theaters: Arrival Two on Jan 2 and Borealis on Feb 3.",
	}, " ")
	if got != want {
		t.Errorf("FormatEntertainment =\n%q\nwant\n%q", got, want)
	}

	if FormatEntertainment(EntertainmentListings{}, now) != "" {
		t.Error("expected empty roundup for empty listings")
	}
}

func TestTMDBFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/trending/tv/day":
			w.Write([]byte(`{"results":[{"name":"Severance","original_language":"en"}]}`))
		case "/movie/popular":
			w.Write([]byte(`{"results":[{"title":"Dune"}]}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	tm := NewTMDB(NewClient(0, 0), "key")
	tm.baseURL = srv.URL

	items, err := tm.Fetch(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	want := "In trending television, Severance is capturing audiences today. In theaters and streaming, Dune continues to draw viewers."
	if items[0].Body != want {
		t.Errorf("Body = %q, want %q", items[0].Body, want)
	}
	if items[0].Title != "Entertainment & TV Today" || items[0].Source != "The Movie Database" {
		t.Errorf("unexpected item %+v", items[0])
	}
}

func TestTMDBFetchRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tm := NewTMDB(NewClient(0, 0), "key")
	tm.baseURL = srv.URL
	if _, err := tm.Fetch(context.Background(), Request{}); !pausing(err) {
		t.Errorf("expected pausing error, got %v", err)
	}
}
