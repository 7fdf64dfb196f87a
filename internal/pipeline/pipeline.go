// Package pipeline turns provider results into a briefing: freshness and
// substance filtering, classification, priority selection and optional
// script generation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hoanghai1803/daybrief/internal/aggregator"
	"github.com/hoanghai1803/daybrief/internal/ai"
	"github.com/hoanghai1803/daybrief/internal/events"
	"github.com/hoanghai1803/daybrief/internal/metrics"
	"github.com/hoanghai1803/daybrief/internal/models"
	"github.com/hoanghai1803/daybrief/internal/sources"
)

// Run triggers.
const (
	TriggerManual   = "manual"
	TriggerSchedule = "schedule"
	TriggerCLI      = "cli"
)

// SourceSet picks the adapters for a run.
type SourceSet interface {
	ForSettings(s models.RunSettings) []sources.Source
}

// Fetcher runs adapters and merges their results.
type Fetcher interface {
	Run(ctx context.Context, srcs []sources.Source, req sources.Request) (*aggregator.Result, error)
}

// History stores completed briefings and reports recently covered topics.
type History interface {
	TopicsCoveredInDaypart(ctx context.Context, now time.Time) ([]models.Topic, error)
	SaveBriefing(ctx context.Context, rec *models.BriefingRecord) error
}

// Defaults supplies saved default settings merged under each run's
// settings.
type Defaults interface {
	DefaultRunSettings(ctx context.Context, fallback models.RunSettings) (models.RunSettings, error)
}

// Synthesizer turns a script into audio and returns a reference to it.
type Synthesizer interface {
	Synthesize(ctx context.Context, script string) (string, error)
}

// Result is a completed run.
type Result struct {
	BriefingID       string                      `json:"briefing_id"`
	CreatedAt        time.Time                   `json:"created_at"`
	Settings         models.RunSettings          `json:"settings"`
	Items            []models.ContentItem        `json:"items"`
	Statuses         []aggregator.ProviderStatus `json:"provider_status"`
	Script           string                      `json:"script,omitempty"`
	EstimatedMinutes int                         `json:"estimated_minutes,omitempty"`
	AudioRef         string                      `json:"audio_ref,omitempty"`
	Warnings         []string                    `json:"warnings,omitempty"`
}

// Config wires a Runner. Sources and Fetcher are required.
type Config struct {
	Sources     SourceSet
	Fetcher     Fetcher
	Generator   ai.Generator
	History     History
	Defaults    Defaults
	Publisher   events.Publisher
	Synthesizer Synthesizer

	// Fallback settings used under saved defaults.
	Fallback  models.RunSettings
	MinChars  int
	BatchSize int
	Now       func() time.Time

	// Location is the zone that decides greetings, day-parts and the
	// history day. Nil keeps the clock's own zone.
	Location *time.Location
}

// Runner executes pipeline runs. It is safe for concurrent use.
type Runner struct {
	sources    SourceSet
	fetcher    Fetcher
	gen        ai.Generator
	classifier *Classifier
	history    History
	defaults   Defaults
	publisher  events.Publisher
	synth      Synthesizer
	fallback   models.RunSettings
	minChars   int
	now        func() time.Time
}

// NewRunner creates a Runner from cfg.
func NewRunner(cfg Config) *Runner {
	r := &Runner{
		sources:    cfg.Sources,
		fetcher:    cfg.Fetcher,
		gen:        cfg.Generator,
		classifier: NewClassifier(cfg.Generator, cfg.BatchSize),
		history:    cfg.History,
		defaults:   cfg.Defaults,
		publisher:  cfg.Publisher,
		synth:      cfg.Synthesizer,
		fallback:   cfg.Fallback,
		minChars:   cfg.MinChars,
		now:        cfg.Now,
	}
	if r.publisher == nil {
		r.publisher = events.NopPublisher{}
	}
	if r.now == nil {
		r.now = time.Now
	}
	if loc := cfg.Location; loc != nil {
		clock := r.now
		r.now = func() time.Time { return clock().In(loc) }
	}
	if r.minChars <= 0 {
		r.minChars = DefaultMinChars
	}
	return r
}

// Run executes one pipeline run. Failures that leave nothing to brief are
// returned as *Error.
func (r *Runner) Run(ctx context.Context, settings models.RunSettings, trigger string) (*Result, error) {
	start := time.Now()
	res, err := r.run(ctx, settings, trigger)
	metrics.PipelineDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		label := metrics.ResultFailure
		var pe *Error
		if errors.As(err, &pe) {
			label = string(pe.Kind)
		}
		metrics.PipelineRunsTotal.WithLabelValues(label).Inc()
		slog.Warn("pipeline run failed", "trigger", trigger, "error", err)
		return nil, err
	}

	metrics.PipelineRunsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	slog.Info("pipeline run complete", "trigger", trigger, "briefing_id", res.BriefingID,
		"items", len(res.Items), "elapsed", time.Since(start))
	return res, nil
}

func (r *Runner) run(ctx context.Context, settings models.RunSettings, trigger string) (*Result, error) {
	now := r.now()
	settings = r.resolveSettings(ctx, settings)

	srcs := r.sources.ForSettings(settings)
	agg, err := r.fetcher.Run(ctx, srcs, sources.RequestFor(settings))
	if err != nil {
		return nil, fromAggregation(err)
	}

	items := r.filter(ctx, agg.Items, settings, now)
	items = AssignPriority(items)
	items = Select(items, TargetCount(settings.Duration))
	if len(items) == 0 {
		return nil, &Error{Kind: KindNoContentAfterFiltering, Report: agg.Statuses}
	}

	res := &Result{
		BriefingID: uuid.NewString(),
		CreatedAt:  now,
		Settings:   settings,
		Items:      items,
		Statuses:   agg.Statuses,
	}

	if settings.GenerateScript {
		r.compose(ctx, res, now)
	}

	r.record(ctx, res, trigger)
	return res, nil
}

// resolveSettings merges settings over saved defaults and fills anything
// still missing.
func (r *Runner) resolveSettings(ctx context.Context, s models.RunSettings) models.RunSettings {
	defaults := r.fallback
	if r.defaults != nil {
		saved, err := r.defaults.DefaultRunSettings(ctx, r.fallback)
		if err != nil {
			slog.Warn("loading saved default settings", "error", err)
		} else {
			defaults = saved
		}
	}
	s = s.Merge(defaults)
	if len(s.Categories) == 0 {
		s.Categories = []string{models.CategoryGeneral}
	}
	if !s.Duration.Valid() {
		s.Duration = models.Duration5To10
	}
	if s.MaxAgeHours <= 0 {
		s.MaxAgeHours = int(DefaultMaxAge / time.Hour)
	}
	return s
}

// filter applies freshness, duplicate, topic overlap, substance and
// classification passes in that order.
func (r *Runner) filter(ctx context.Context, items []models.ContentItem, s models.RunSettings, now time.Time) []models.ContentItem {
	n := len(items)
	items = FilterFresh(items, now, time.Duration(s.MaxAgeHours)*time.Hour)
	fresh := len(items)
	items = Dedupe(items)

	if r.history != nil {
		covered, err := r.history.TopicsCoveredInDaypart(ctx, now)
		if err != nil {
			slog.Warn("reading covered topics", "error", err)
		} else {
			items = FilterCoveredTopics(items, covered)
		}
	}

	items = FilterSubstance(items, r.minChars)
	substantial := len(items)

	allowed := append([]string{}, s.Categories...)
	items = r.classifier.Classify(ctx, items, allowed, s.ModelHint)

	slog.Debug("filtered items", "fetched", n, "fresh", fresh, "substantial", substantial, "classified", len(items))
	return items
}

// compose writes the script and optional audio. Failures become warnings.
func (r *Runner) compose(ctx context.Context, res *Result, now time.Time) {
	if r.gen == nil {
		res.Warnings = append(res.Warnings, "script generation skipped: no generation provider configured")
		return
	}
	script, err := WriteScript(ctx, r.gen, res.Items, res.Settings.Duration, now, res.Settings.ModelHint)
	if err != nil {
		slog.Warn("script generation failed", "error", err)
		res.Warnings = append(res.Warnings, err.Error())
		return
	}
	res.Script = script
	res.EstimatedMinutes = SpeakingMinutes(script)

	if r.synth == nil {
		return
	}
	ref, err := r.synth.Synthesize(ctx, script)
	if err != nil {
		slog.Warn("speech synthesis failed", "error", err)
		res.Warnings = append(res.Warnings, fmt.Sprintf("speech synthesis failed: %v", err))
		return
	}
	res.AudioRef = ref
}

// record saves the briefing to history and announces it. Neither failure
// fails the run.
func (r *Runner) record(ctx context.Context, res *Result, trigger string) {
	topics := make([]models.Topic, len(res.Items))
	var srcNames []string
	seen := make(map[string]bool)
	for i, it := range res.Items {
		topics[i] = models.Topic{Title: it.Title, URL: it.URL, Source: it.Source}
		if !seen[it.Source] {
			seen[it.Source] = true
			srcNames = append(srcNames, it.Source)
		}
	}

	if r.history != nil {
		rec := &models.BriefingRecord{
			ID:        res.BriefingID,
			CreatedAt: res.CreatedAt,
			Duration:  res.Settings.Duration,
			Trigger:   trigger,
			Topics:    topics,
			Script:    res.Script,
		}
		if err := r.history.SaveBriefing(ctx, rec); err != nil {
			slog.Warn("saving briefing history", "briefing_id", res.BriefingID, "error", err)
			res.Warnings = append(res.Warnings, "briefing was not saved to history")
		}
	}

	ev := events.BriefingCreated{
		BriefingID: res.BriefingID,
		CreatedAt:  res.CreatedAt,
		ItemCount:  len(res.Items),
		Sources:    srcNames,
		Trigger:    trigger,
	}
	if err := r.publisher.PublishBriefing(ctx, ev); err != nil {
		slog.Warn("publishing briefing event", "briefing_id", res.BriefingID, "error", err)
	}
}
