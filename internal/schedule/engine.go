// Package schedule stores recurring briefing jobs and runs them once per
// due slot.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hoanghai1803/daybrief/internal/metrics"
	"github.com/hoanghai1803/daybrief/internal/models"
	"github.com/hoanghai1803/daybrief/internal/pipeline"
	"github.com/hoanghai1803/daybrief/internal/storage"
)

const (
	keyPrefix = "schedule:"
	idPrefix  = "sched_"

	// DueWindow is how far from its slot a schedule still counts as due.
	DueWindow = 60 * time.Second

	// DefaultRunTimeout bounds one schedule execution.
	DefaultRunTimeout = 10 * time.Minute
)

// ErrAlreadyRunning is returned when a schedule is triggered while a run
// of it is in flight.
var ErrAlreadyRunning = errors.New("schedule is already running")

// Pipeline runs a briefing for a schedule's settings.
type Pipeline interface {
	Run(ctx context.Context, settings models.RunSettings, trigger string) (*pipeline.Result, error)
}

// Input is the user-editable part of a schedule.
type Input struct {
	Name      string             `json:"name"`
	TimeOfDay string             `json:"time"`
	Days      []string           `json:"days"`
	Active    *bool              `json:"active,omitempty"`
	Settings  models.RunSettings `json:"settings"`
}

// RunOutcome reports one schedule execution.
type RunOutcome struct {
	ScheduleID   string `json:"schedule_id"`
	ScheduleName string `json:"schedule_name"`
	Success      bool   `json:"success"`
	BriefingID   string `json:"briefing_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Engine manages schedule definitions persisted in a KV store. All times
// are evaluated in the engine's location.
type Engine struct {
	kv         storage.KV
	pipeline   Pipeline
	loc        *time.Location
	now        func() time.Time
	runTimeout time.Duration

	// mu serializes read-modify-write cycles on schedule records.
	mu      sync.Mutex
	running map[string]bool

	inflight sync.WaitGroup
}

// NewEngine creates an Engine. A nil location means time.Local.
func NewEngine(kv storage.KV, p Pipeline, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{
		kv:         kv,
		pipeline:   p,
		loc:        loc,
		now:        time.Now,
		runTimeout: DefaultRunTimeout,
		running:    make(map[string]bool),
	}
}

// SetRunTimeout bounds each schedule execution. A non-positive value keeps
// the current limit.
func (e *Engine) SetRunTimeout(d time.Duration) {
	if d > 0 {
		e.runTimeout = d
	}
}

// SetClock replaces the time source. Intended for tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Location returns the engine's time zone.
func (e *Engine) Location() *time.Location {
	return e.loc
}

func (e *Engine) clock() time.Time {
	return e.now().In(e.loc)
}

// Create validates in and stores a new schedule. Schedules are active
// unless in.Active says otherwise.
func (e *Engine) Create(ctx context.Context, in Input) (*models.ScheduleDefinition, error) {
	name, days, err := validate(in)
	if err != nil {
		return nil, err
	}

	now := e.clock()
	s := &models.ScheduleDefinition{
		ID:        idPrefix + uuid.NewString(),
		Name:      name,
		TimeOfDay: in.TimeOfDay,
		Days:      days,
		Active:    in.Active == nil || *in.Active,
		Settings:  in.Settings,
		CreatedAt: now,
	}
	e.rearm(s, now)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.save(ctx, s); err != nil {
		return nil, err
	}
	slog.Info("schedule created", "id", s.ID, "name", s.Name, "time", s.TimeOfDay, "days", s.Days)
	return s, nil
}

// Update replaces the editable fields of schedule id and recomputes its
// next run. Active is kept unless in.Active is set.
func (e *Engine) Update(ctx context.Context, id string, in Input) (*models.ScheduleDefinition, error) {
	name, days, err := validate(in)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Name = name
	s.TimeOfDay = in.TimeOfDay
	s.Days = days
	s.Settings = in.Settings
	if in.Active != nil {
		s.Active = *in.Active
	}
	e.rearm(s, e.clock())

	if err := e.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Toggle flips whether schedule id is active. Activating recomputes the
// next run from the current time; deactivating clears it.
func (e *Engine) Toggle(ctx context.Context, id string) (*models.ScheduleDefinition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Active = !s.Active
	e.rearm(s, e.clock())

	if err := e.save(ctx, s); err != nil {
		return nil, err
	}
	slog.Info("schedule toggled", "id", s.ID, "active", s.Active)
	return s, nil
}

// Delete removes schedule id.
func (e *Engine) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.load(ctx, id); err != nil {
		return err
	}
	if err := e.kv.Delete(ctx, keyPrefix+id); err != nil {
		return fmt.Errorf("deleting schedule %s: %w", id, err)
	}
	slog.Info("schedule deleted", "id", id)
	return nil
}

// Get returns schedule id or an error wrapping storage.ErrNotFound.
func (e *Engine) Get(ctx context.Context, id string) (*models.ScheduleDefinition, error) {
	return e.load(ctx, id)
}

// List returns every schedule ordered by name, case-insensitively.
func (e *Engine) List(ctx context.Context) ([]models.ScheduleDefinition, error) {
	entries, err := e.kv.List(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing schedules: %w", err)
	}

	out := make([]models.ScheduleDefinition, 0, len(entries))
	for _, ent := range entries {
		var s models.ScheduleDefinition
		if err := json.Unmarshal(ent.Value, &s); err != nil {
			slog.Warn("skipping corrupt schedule record", "key", ent.Key, "error", err)
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DueSchedules returns the active schedules whose slot is within DueWindow
// of now on one of their days and that have not already run for today's
// slot. Schedules running in this process are excluded. Calling it again
// before any run completes returns the same set.
func (e *Engine) DueSchedules(ctx context.Context) ([]models.ScheduleDefinition, error) {
	all, err := e.List(ctx)
	if err != nil {
		return nil, err
	}
	now := e.clock()

	e.mu.Lock()
	defer e.mu.Unlock()

	var due []models.ScheduleDefinition
	for _, s := range all {
		if e.running[s.ID] {
			continue
		}
		if _, ok := dueSlot(s, now); ok {
			due = append(due, s)
		}
	}
	return due, nil
}

// dueSlot returns today's slot for s if s is due at now.
func dueSlot(s models.ScheduleDefinition, now time.Time) (time.Time, bool) {
	if !s.Active || !slices.Contains(s.Days, now.Weekday().String()) {
		return time.Time{}, false
	}
	slot := slotOn(now, s.TimeOfDay)
	diff := now.Sub(slot)
	if diff < -DueWindow || diff > DueWindow {
		return time.Time{}, false
	}
	if s.LastRunAt != nil {
		last := s.LastRunAt.In(now.Location())
		if sameDate(last, now) && !last.Before(slot.Add(-DueWindow)) {
			return time.Time{}, false
		}
	}
	return slot, true
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// RunDue runs every due schedule in turn and reports each outcome. It
// returns once all of them have finished; the poller uses DispatchDue.
func (e *Engine) RunDue(ctx context.Context) ([]RunOutcome, error) {
	due, err := e.DueSchedules(ctx)
	if err != nil {
		return nil, err
	}
	if len(due) > 0 {
		slog.Info("running due schedules", "count", len(due))
	}

	outcomes := make([]RunOutcome, 0, len(due))
	for _, s := range due {
		out, err := e.execute(ctx, s.ID, true)
		if errors.Is(err, ErrAlreadyRunning) {
			continue
		}
		if err != nil && out == nil {
			slog.Error("running schedule", "id", s.ID, "error", err)
			outcomes = append(outcomes, RunOutcome{ScheduleID: s.ID, ScheduleName: s.Name, Error: err.Error()})
			continue
		}
		outcomes = append(outcomes, *out)
	}
	return outcomes, nil
}

// DispatchDue starts every due schedule in its own goroutine and returns
// the number started. Each schedule is claimed before DispatchDue returns,
// so a following due-check skips it while it runs. Wait blocks until the
// dispatched runs end.
func (e *Engine) DispatchDue(ctx context.Context) (int, error) {
	due, err := e.DueSchedules(ctx)
	if err != nil {
		return 0, err
	}

	started := 0
	for _, d := range due {
		s, err := e.claim(ctx, d.ID)
		if errors.Is(err, ErrAlreadyRunning) {
			continue
		}
		if err != nil {
			slog.Error("claiming schedule", "id", d.ID, "error", err)
			continue
		}

		started++
		e.inflight.Add(1)
		go func() {
			defer e.inflight.Done()
			defer e.release(s.ID)
			if _, err := e.runClaimed(ctx, s, true); err != nil {
				slog.Error("recording schedule run", "id", s.ID, "error", err)
			}
		}()
	}
	if started > 0 {
		slog.Info("dispatched due schedules", "count", started)
	}
	return started, nil
}

// Wait blocks until every run started by DispatchDue has finished.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

// Run triggers schedule id now, outside its slot. Bookkeeping is the same
// as for a due run.
func (e *Engine) Run(ctx context.Context, id string) (*RunOutcome, error) {
	return e.execute(ctx, id, false)
}

// execute runs schedule id to completion in the calling goroutine.
func (e *Engine) execute(ctx context.Context, id string, scheduled bool) (*RunOutcome, error) {
	s, err := e.claim(ctx, id)
	if err != nil {
		return nil, err
	}
	defer e.release(id)
	return e.runClaimed(ctx, s, scheduled)
}

// claim marks schedule id as running and returns its record.
func (e *Engine) claim(ctx context.Context, id string) (*models.ScheduleDefinition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running[id] {
		return nil, ErrAlreadyRunning
	}
	s, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	e.running[id] = true
	return s, nil
}

func (e *Engine) release(id string) {
	e.mu.Lock()
	delete(e.running, id)
	e.mu.Unlock()
}

// runClaimed runs the pipeline for a claimed schedule under the run
// timeout, then records last run and next run whatever the outcome. A
// pipeline failure is reported in the outcome, not as an error.
func (e *Engine) runClaimed(ctx context.Context, s *models.ScheduleDefinition, scheduled bool) (*RunOutcome, error) {
	started := e.clock()
	slot, _ := dueSlot(*s, started)

	runCtx, cancel := context.WithTimeout(ctx, e.runTimeout)
	defer cancel()

	out := &RunOutcome{ScheduleID: s.ID, ScheduleName: s.Name}
	res, runErr := e.pipeline.Run(runCtx, s.Settings, pipeline.TriggerSchedule)
	if runErr != nil {
		out.Error = runErr.Error()
		metrics.ScheduleRunsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		slog.Error("scheduled run failed", "id", s.ID, "name", s.Name, "error", runErr)
	} else {
		out.Success = true
		out.BriefingID = res.BriefingID
		metrics.ScheduleRunsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
		slog.Info("scheduled run complete", "id", s.ID, "name", s.Name, "briefing_id", res.BriefingID)
	}

	if err := e.finish(context.WithoutCancel(ctx), s.ID, out.Success, scheduled, slot); err != nil {
		return out, err
	}
	return out, nil
}

// finish stamps the run on the stored record. The record is reloaded so
// edits made during the run are kept; a schedule deleted meanwhile is left
// deleted.
func (e *Engine) finish(ctx context.Context, id string, success, scheduled bool, slot time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.load(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	now := e.clock()
	s.LastRunAt = &now
	s.LastSuccess = &success

	// A due run consumes its slot even if it started just before it.
	after := now
	if scheduled && slot.After(after) {
		after = slot
	}
	e.rearm(s, after)
	return e.save(ctx, s)
}

// rearm recomputes NextRunAt from now, or clears it when inactive.
func (e *Engine) rearm(s *models.ScheduleDefinition, now time.Time) {
	if !s.Active {
		s.NextRunAt = nil
		return
	}
	s.NextRunAt = NextRun(now, s.TimeOfDay, s.Days)
}

func validate(in Input) (string, []string, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return "", nil, err
	}
	if err := ValidateTimeOfDay(in.TimeOfDay); err != nil {
		return "", nil, err
	}
	days, err := NormalizeDays(in.Days)
	if err != nil {
		return "", nil, err
	}
	if in.Settings.Duration != "" && !in.Settings.Duration.Valid() {
		return "", nil, &ValidationError{Field: "settings.duration", Message: fmt.Sprintf("unknown duration %q", in.Settings.Duration)}
	}
	return name, days, nil
}

func (e *Engine) load(ctx context.Context, id string) (*models.ScheduleDefinition, error) {
	data, err := e.kv.Get(ctx, keyPrefix+id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("schedule %s: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("loading schedule %s: %w", id, err)
	}
	var s models.ScheduleDefinition
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding schedule %s: %w", id, err)
	}
	return &s, nil
}

func (e *Engine) save(ctx context.Context, s *models.ScheduleDefinition) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding schedule %s: %w", s.ID, err)
	}
	if err := e.kv.Put(ctx, keyPrefix+s.ID, data); err != nil {
		return fmt.Errorf("saving schedule %s: %w", s.ID, err)
	}
	return nil
}
