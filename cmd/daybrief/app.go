package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/hoanghai1803/daybrief/internal/aggregator"
	"github.com/hoanghai1803/daybrief/internal/ai"
	"github.com/hoanghai1803/daybrief/internal/config"
	"github.com/hoanghai1803/daybrief/internal/events"
	"github.com/hoanghai1803/daybrief/internal/health"
	"github.com/hoanghai1803/daybrief/internal/models"
	"github.com/hoanghai1803/daybrief/internal/pipeline"
	"github.com/hoanghai1803/daybrief/internal/schedule"
	"github.com/hoanghai1803/daybrief/internal/sources"
	"github.com/hoanghai1803/daybrief/internal/storage"
)

// app holds the wired services shared by every command.
type app struct {
	cfg      *config.Config
	store    *storage.Store
	tracker  *health.Tracker
	runner   *pipeline.Runner
	engine   *schedule.Engine
	fallback models.RunSettings

	closers []func() error
}

// newApp opens storage and builds the pipeline and schedule engine from c.
func newApp(ctx context.Context, c *config.Config) (*app, error) {
	a := &app{cfg: c}

	if err := os.MkdirAll(c.Storage.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := storage.OpenDatabase(filepath.Join(c.Storage.DataDir, "daybrief.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	if err := storage.RunMigrations(ctx, db); err != nil {
		a.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if v, err := storage.SchemaVersion(ctx, db); err == nil {
		slog.Debug("database ready", "schema_version", v)
	}

	a.store = storage.NewStore(db)
	if err := a.store.SeedDefaultFeeds(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("seeding feeds: %w", err)
	}

	kv, err := a.openKV(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	loc := c.Location()
	gen := newGenerator(c.AI)
	client := sources.NewClient(c.RequestTimeout(), perHostInterval(c.Providers.RequestsPerSecond))
	registry := sources.NewRegistry(client, sources.Keys{
		GNews:       c.Providers.GNews,
		NewsAPI:     c.Providers.NewsAPI,
		Guardian:    c.Providers.Guardian,
		NYT:         c.Providers.NYT,
		TMDB:        c.Providers.TMDB,
		OpenWeather: c.Providers.OpenWeather,
	}, gen, a.store, sources.Options{EnrichLocal: c.Providers.EnrichLocal})

	publisher := a.openPublisher()

	a.tracker = health.NewTracker(kv)
	a.fallback = models.RunSettings{
		Categories:  []string{models.CategoryGeneral},
		ZipCode:     c.Pipeline.DefaultZip,
		Duration:    models.Duration5To10,
		MaxAgeHours: c.Pipeline.MaxAgeHours,
		ModelHint:   c.AI.ScriptModel,
	}
	a.runner = pipeline.NewRunner(pipeline.Config{
		Sources:   registry,
		Fetcher:   aggregator.New(a.tracker, c.RequestTimeout(), c.RunTimeout()),
		Generator: gen,
		History:   a.store,
		Defaults:  a.store,
		Publisher: publisher,
		Fallback:  a.fallback,
		MinChars:  c.Pipeline.MinChars,
		BatchSize: c.Pipeline.ClassifyBatchSize,
		Location:  loc,
	})
	a.engine = schedule.NewEngine(kv, a.runner, loc)
	a.engine.SetRunTimeout(c.ScheduleRunTimeout())

	return a, nil
}

// openKV returns the record store for health and schedule state.
func (a *app) openKV(ctx context.Context) (storage.KV, error) {
	if a.cfg.Storage.Backend != "redis" {
		return a.store.KV(), nil
	}

	rkv, err := storage.NewRedisKV(a.cfg.Storage.RedisURL, "daybrief:")
	if err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	a.closers = append(a.closers, rkv.Close)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rkv.Ping(pingCtx); err != nil {
		return nil, err
	}
	slog.Info("using redis for provider and schedule records")
	return rkv, nil
}

// openPublisher connects to NATS when configured. A connection failure is
// logged and events are dropped; briefings do not depend on them.
func (a *app) openPublisher() events.Publisher {
	if a.cfg.Events.NATSURL == "" {
		return events.NopPublisher{}
	}
	p, err := events.NewNATSPublisher(a.cfg.Events.NATSURL, a.cfg.Events.Subject)
	if err != nil {
		slog.Warn("event publishing disabled", "error", err)
		return events.NopPublisher{}
	}
	a.closers = append(a.closers, func() error {
		p.Close()
		return nil
	})
	slog.Info("publishing briefing events", "subject", p.Subject())
	return p
}

// Close releases everything newApp opened, newest first.
func (a *app) Close() error {
	var errs []error
	for _, c := range slices.Backward(a.closers) {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// providerNames lists every content provider for status reporting.
func providerNames() []string {
	return append(slices.Clone(sources.NewsProviders),
		sources.ProviderLocal, sources.ProviderWeather, sources.ProviderTMDB, sources.ProviderRSS)
}

// newGenerator builds the generation chain in preference order, skipping
// providers without a key. It returns nil when none is configured.
func newGenerator(c config.AIConfig) ai.Generator {
	keys := map[string]config.ModelConfig{
		"anthropic": c.Anthropic,
		"openai":    c.OpenAI,
		"gemini":    c.Gemini,
	}

	var gens []ai.Generator
	for _, name := range c.Preference {
		mc := keys[name]
		if mc.APIKey == "" {
			continue
		}
		g, err := ai.NewProvider(ai.ProviderConfig{Provider: name, APIKey: mc.APIKey, Model: mc.Model})
		if err != nil {
			slog.Warn("skipping generation provider", "provider", name, "error", err)
			continue
		}
		gens = append(gens, g)
	}

	chain := ai.NewChain(gens...)
	if chain.Len() == 0 {
		slog.Warn("no generation provider configured, classification and scripts disabled")
		return nil
	}
	slog.Info("generation providers configured", "order", chain.Names())
	return chain
}

// perHostInterval converts a request rate into the spacing between requests
// to one host.
func perHostInterval(rps float64) time.Duration {
	if rps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / rps)
}
