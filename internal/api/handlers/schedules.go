package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hoanghai1803/daybrief/internal/schedule"
)

// ListSchedules handles GET /api/schedules.
func ListSchedules(engine *schedule.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := engine.List(r.Context())
		if err != nil {
			writeDomainError(w, err, "list schedules")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// CreateSchedule handles POST /api/schedules.
func CreateSchedule(engine *schedule.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in schedule.Input
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		s, err := engine.Create(r.Context(), in)
		if err != nil {
			writeDomainError(w, err, "create schedule")
			return
		}
		writeJSON(w, http.StatusCreated, s)
	}
}

// GetSchedule handles GET /api/schedules/{id}.
func GetSchedule(engine *schedule.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := engine.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err, "get schedule")
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// UpdateSchedule handles PUT /api/schedules/{id}. The body replaces the
// schedule's name, time, days and settings.
func UpdateSchedule(engine *schedule.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in schedule.Input
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		s, err := engine.Update(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			writeDomainError(w, err, "update schedule")
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// DeleteSchedule handles DELETE /api/schedules/{id}.
func DeleteSchedule(engine *schedule.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := engine.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeDomainError(w, err, "delete schedule")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// ToggleSchedule handles POST /api/schedules/{id}/toggle.
func ToggleSchedule(engine *schedule.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := engine.Toggle(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err, "toggle schedule")
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// RunSchedule handles POST /api/schedules/{id}/run. A pipeline failure is
// reported in the outcome with status 200; the run itself happened.
func RunSchedule(engine *schedule.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := engine.Run(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err, "run schedule")
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// TickSchedules handles POST /api/schedules/tick. It runs every due
// schedule and returns their outcomes.
func TickSchedules(engine *schedule.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		outcomes, err := engine.RunDue(r.Context())
		if err != nil {
			writeDomainError(w, err, "run due schedules")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"executed": outcomes})
	}
}
