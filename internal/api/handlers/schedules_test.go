package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hoanghai1803/daybrief/internal/models"
	"github.com/hoanghai1803/daybrief/internal/pipeline"
	"github.com/hoanghai1803/daybrief/internal/schedule"
)

const morningBody = `{"name": "Morning", "time": "07:30", "days": ["monday", "Friday"], "settings": {"categories": ["technology"], "duration": "3-5"}}`

func createTestSchedule(t *testing.T, engine *schedule.Engine) models.ScheduleDefinition {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/api/schedules", bytes.NewBufferString(morningBody))
	w := httptest.NewRecorder()
	CreateSchedule(engine).ServeHTTP(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("create: got status %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	var s models.ScheduleDefinition
	if err := json.NewDecoder(w.Body).Decode(&s); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return s
}

func TestCreateSchedule(t *testing.T) {
	engine := newTestEngine(t, &fakeRunner{})
	s := createTestSchedule(t, engine)

	if s.ID == "" || s.Name != "Morning" || s.TimeOfDay != "07:30" {
		t.Errorf("schedule = %+v", s)
	}
	if len(s.Days) != 2 || s.Days[0] != "Monday" || s.Days[1] != "Friday" {
		t.Errorf("Days = %v, want [Monday Friday]", s.Days)
	}
	if !s.Active || s.NextRunAt == nil {
		t.Errorf("active=%v next=%v", s.Active, s.NextRunAt)
	}
}

func TestCreateSchedule_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{"},
		{"bad time", `{"name": "x", "time": "7:75", "days": ["Monday"]}`},
		{"single digit hour", `{"name": "x", "time": "7:05", "days": ["Monday"]}`},
		{"no days", `{"name": "x", "time": "07:00", "days": []}`},
		{"bad day", `{"name": "x", "time": "07:00", "days": ["Someday"]}`},
		{"no name", `{"time": "07:00", "days": ["Monday"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t, &fakeRunner{})
			r := httptest.NewRequest(http.MethodPost, "/api/schedules", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			CreateSchedule(engine).ServeHTTP(w, r)

			if w.Code != http.StatusBadRequest {
				t.Errorf("got status %d, want %d; body: %s", w.Code, http.StatusBadRequest, w.Body.String())
			}
		})
	}
}

func TestScheduleLifecycle(t *testing.T) {
	engine := newTestEngine(t, &fakeRunner{})
	s := createTestSchedule(t, engine)

	// Get
	w := httptest.NewRecorder()
	GetSchedule(engine).ServeHTTP(w, withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), "id", s.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("get: got status %d", w.Code)
	}

	// Update
	update := `{"name": "Evening", "time": "18:00", "days": ["Sunday"]}`
	w = httptest.NewRecorder()
	UpdateSchedule(engine).ServeHTTP(w, withURLParams(httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(update)), "id", s.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("update: got status %d; body: %s", w.Code, w.Body.String())
	}
	var updated models.ScheduleDefinition
	if err := json.NewDecoder(w.Body).Decode(&updated); err != nil {
		t.Fatalf("decoding update: %v", err)
	}
	if updated.Name != "Evening" || updated.TimeOfDay != "18:00" {
		t.Errorf("updated = %+v", updated)
	}

	// Toggle off
	w = httptest.NewRecorder()
	ToggleSchedule(engine).ServeHTTP(w, withURLParams(httptest.NewRequest(http.MethodPost, "/", nil), "id", s.ID))
	var toggled models.ScheduleDefinition
	if err := json.NewDecoder(w.Body).Decode(&toggled); err != nil {
		t.Fatalf("decoding toggle: %v", err)
	}
	if toggled.Active || toggled.NextRunAt != nil {
		t.Errorf("after toggle: active=%v next=%v", toggled.Active, toggled.NextRunAt)
	}

	// List
	w = httptest.NewRecorder()
	ListSchedules(engine).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/schedules", nil))
	var list []models.ScheduleDefinition
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("list has %d schedules, want 1", len(list))
	}

	// Delete, then 404s
	w = httptest.NewRecorder()
	DeleteSchedule(engine).ServeHTTP(w, withURLParams(httptest.NewRequest(http.MethodDelete, "/", nil), "id", s.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("delete: got status %d", w.Code)
	}
	for name, h := range map[string]http.HandlerFunc{
		"get":    GetSchedule(engine),
		"delete": DeleteSchedule(engine),
		"toggle": ToggleSchedule(engine),
		"run":    RunSchedule(engine),
	} {
		w = httptest.NewRecorder()
		h.ServeHTTP(w, withURLParams(httptest.NewRequest(http.MethodPost, "/", nil), "id", s.ID))
		if w.Code != http.StatusNotFound {
			t.Errorf("%s after delete: got status %d, want %d", name, w.Code, http.StatusNotFound)
		}
	}
}

func TestRunSchedule(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantSuccess bool
	}{
		{"success", nil, true},
		{"pipeline failure", errors.New("all content providers are unreachable"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{err: tt.err}
			engine := newTestEngine(t, runner)
			s := createTestSchedule(t, engine)

			w := httptest.NewRecorder()
			RunSchedule(engine).ServeHTTP(w, withURLParams(httptest.NewRequest(http.MethodPost, "/", nil), "id", s.ID))
			if w.Code != http.StatusOK {
				t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
			}

			var out schedule.RunOutcome
			if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if out.Success != tt.wantSuccess || out.ScheduleID != s.ID {
				t.Errorf("outcome = %+v", out)
			}
			if len(runner.triggers) != 1 || runner.triggers[0] != pipeline.TriggerSchedule {
				t.Errorf("triggers = %v", runner.triggers)
			}
			if got := runner.settings[0]; len(got.Categories) != 1 || got.Categories[0] != "technology" {
				t.Errorf("settings = %+v", got)
			}
		})
	}
}

func TestTickSchedules_NothingDue(t *testing.T) {
	runner := &fakeRunner{}
	engine := newTestEngine(t, runner)

	w := httptest.NewRecorder()
	TickSchedules(engine).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/schedules/tick", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
	}

	var body struct {
		Executed []schedule.RunOutcome `json:"executed"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(body.Executed) != 0 || len(runner.settings) != 0 {
		t.Errorf("executed = %+v", body.Executed)
	}
}
