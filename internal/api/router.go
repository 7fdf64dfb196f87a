package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hoanghai1803/daybrief/internal/api/handlers"
	"github.com/hoanghai1803/daybrief/internal/models"
	"github.com/hoanghai1803/daybrief/internal/schedule"
	"github.com/hoanghai1803/daybrief/internal/storage"
)

// Deps are the services the HTTP API exposes.
type Deps struct {
	Store    *storage.Store
	Runner   handlers.BriefingRunner
	Tracker  handlers.HealthTracker
	Engine   *schedule.Engine
	Fallback models.RunSettings

	// Providers lists every provider name shown by the status endpoint.
	Providers []string
}

// NewRouter creates and configures the HTTP router with all API routes and
// the Prometheus endpoint.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(RequestLogger)
	r.Use(Metrics)
	r.Use(Recovery)
	r.Use(CORS)

	r.Route("/api", func(api chi.Router) {
		api.Post("/briefings", handlers.CreateBriefing(d.Runner))
		api.Get("/briefings", handlers.ListBriefings(d.Store))

		api.Get("/providers/status", handlers.GetProviderStatus(d.Tracker, d.Providers))
		api.Delete("/providers/{name}/pause", handlers.ClearProviderPause(d.Tracker))

		api.Get("/settings", handlers.GetSettings(d.Store, d.Fallback))
		api.Put("/settings", handlers.UpdateSettings(d.Store, d.Fallback))

		api.Get("/feeds", handlers.GetFeeds(d.Store))
		api.Post("/feeds", handlers.AddFeed(d.Store))
		api.Put("/feeds/{id}", handlers.ToggleFeed(d.Store))

		api.Get("/schedules", handlers.ListSchedules(d.Engine))
		api.Post("/schedules", handlers.CreateSchedule(d.Engine))
		api.Post("/schedules/tick", handlers.TickSchedules(d.Engine))
		api.Get("/schedules/{id}", handlers.GetSchedule(d.Engine))
		api.Put("/schedules/{id}", handlers.UpdateSchedule(d.Engine))
		api.Delete("/schedules/{id}", handlers.DeleteSchedule(d.Engine))
		api.Post("/schedules/{id}/toggle", handlers.ToggleSchedule(d.Engine))
		api.Post("/schedules/{id}/run", handlers.RunSchedule(d.Engine))
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
