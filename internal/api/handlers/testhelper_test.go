package handlers

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hoanghai1803/daybrief/internal/models"
	"github.com/hoanghai1803/daybrief/internal/pipeline"
	"github.com/hoanghai1803/daybrief/internal/schedule"
	"github.com/hoanghai1803/daybrief/internal/storage"
)

// newTestStore creates an in-memory SQLite store with migrations applied and
// default feeds seeded. It registers a cleanup function to close the database
// when the test completes.
func newTestStore(t *testing.T) *storage.Store {
	t.Helper()

	db, err := storage.OpenDatabase(storage.MemoryPath)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := storage.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	store := storage.NewStore(db)
	if err := store.SeedDefaultFeeds(context.Background()); err != nil {
		t.Fatalf("seeding defaults: %v", err)
	}

	return store
}

// fakeRunner records the settings it was asked to run with.
type fakeRunner struct {
	mu       sync.Mutex
	settings []models.RunSettings
	triggers []string
	res      *pipeline.Result
	err      error
}

func (f *fakeRunner) Run(_ context.Context, s models.RunSettings, trigger string) (*pipeline.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = append(f.settings, s)
	f.triggers = append(f.triggers, trigger)
	if f.err != nil {
		return nil, f.err
	}
	if f.res != nil {
		return f.res, nil
	}
	return &pipeline.Result{BriefingID: "brief-1", CreatedAt: time.Now()}, nil
}

func newTestEngine(t *testing.T, runner *fakeRunner) *schedule.Engine {
	t.Helper()
	return schedule.NewEngine(storage.NewMemoryKV(), runner, time.UTC)
}

// withURLParams attaches chi URL parameters to r.
func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
