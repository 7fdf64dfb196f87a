// Package aggregator fans a run out across content providers and merges
// their results, consulting the provider health tracker around each call.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hoanghai1803/daybrief/internal/health"
	"github.com/hoanghai1803/daybrief/internal/metrics"
	"github.com/hoanghai1803/daybrief/internal/models"
	"github.com/hoanghai1803/daybrief/internal/sources"
)

const (
	// DefaultCallTimeout bounds a single provider call.
	DefaultCallTimeout = 15 * time.Second
	// DefaultRunTimeout bounds a whole aggregation run.
	DefaultRunTimeout = 60 * time.Second
)

// Per-provider outcomes in a status report.
const (
	StatusOK            = "ok"
	StatusEmpty         = "empty"
	StatusPaused        = "paused"
	StatusFailed        = "failed"
	StatusNotConfigured = "not_configured"
)

// HealthTracker gates provider calls and receives their outcomes.
type HealthTracker interface {
	IsPaused(ctx context.Context, provider string) bool
	RecordSuccess(ctx context.Context, provider string)
	RecordFailure(ctx context.Context, provider string, err error)
}

var _ HealthTracker = (*health.Tracker)(nil)

// ProviderStatus is one provider's outcome in a run.
type ProviderStatus struct {
	Provider string `json:"provider"`
	Status   string `json:"status"`
	Items    int    `json:"items"`
	Detail   string `json:"detail,omitempty"`
	// RateLimited marks a failure that pauses the provider.
	RateLimited bool `json:"rate_limited,omitempty"`
}

// Result is the merged output of a run.
type Result struct {
	Items    []models.ContentItem `json:"items"`
	Statuses []ProviderStatus     `json:"statuses"`
}

// Aggregator runs providers concurrently with per-call and per-run time
// limits.
type Aggregator struct {
	health      HealthTracker
	callTimeout time.Duration
	runTimeout  time.Duration
}

// New creates an Aggregator. Zero timeouts select the defaults.
func New(tracker HealthTracker, callTimeout, runTimeout time.Duration) *Aggregator {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	if runTimeout <= 0 {
		runTimeout = DefaultRunTimeout
	}
	return &Aggregator{health: tracker, callTimeout: callTimeout, runTimeout: runTimeout}
}

// Run queries every source concurrently and concatenates their items in
// source order. A failing or paused provider never aborts the others. If no
// items were obtained at all, Run returns the statuses with an *Error.
func (a *Aggregator) Run(ctx context.Context, srcs []sources.Source, req sources.Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, a.runTimeout)
	defer cancel()

	var (
		mu       sync.Mutex
		perSrc   = make([][]models.ContentItem, len(srcs))
		statuses = make([]ProviderStatus, len(srcs))
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range srcs {
		g.Go(func() error {
			items, st := a.runOne(gctx, src, req)
			mu.Lock()
			perSrc[i] = items
			statuses[i] = st
			mu.Unlock()
			return nil
		})
	}
	// Goroutines never return errors; failures are recorded in statuses.
	_ = g.Wait()

	res := &Result{Items: make([]models.ContentItem, 0), Statuses: statuses}
	for _, items := range perSrc {
		res.Items = append(res.Items, items...)
	}

	slog.Info("aggregation complete", "providers", len(srcs), "items", len(res.Items))

	if len(res.Items) == 0 {
		return res, &Error{Reason: reasonFor(statuses), Statuses: statuses}
	}
	return res, nil
}

// runOne consults the tracker, calls a single source and reports the
// outcome.
func (a *Aggregator) runOne(ctx context.Context, src sources.Source, req sources.Request) ([]models.ContentItem, ProviderStatus) {
	name := src.Name()
	st := ProviderStatus{Provider: name}

	if !src.Configured() {
		st.Status = StatusNotConfigured
		st.Detail = "no API key"
		metrics.ProviderFetchTotal.WithLabelValues(name, StatusNotConfigured).Inc()
		return nil, st
	}

	if a.health != nil && a.health.IsPaused(ctx, name) {
		slog.Info("skipping paused provider", "provider", name)
		st.Status = StatusPaused
		st.Detail = "temporarily paused after repeated errors"
		metrics.ProviderFetchTotal.WithLabelValues(name, StatusPaused).Inc()
		return nil, st
	}

	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	start := time.Now()
	items, err := src.Fetch(callCtx, req)
	if err == nil && callCtx.Err() != nil && len(items) == 0 {
		err = callCtx.Err()
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out: %w", err)
		}
		slog.Warn("provider fetch failed", "provider", name, "error", err, "elapsed", time.Since(start))
		if a.health != nil {
			// Record with the parent context so the report survives a
			// timed-out call.
			a.health.RecordFailure(context.WithoutCancel(ctx), name, err)
		}
		st.Status = StatusFailed
		st.Detail = err.Error()
		st.RateLimited = health.PauseFor(err) > 0
		metrics.ProviderFetchTotal.WithLabelValues(name, StatusFailed).Inc()
		return nil, st
	}

	items = validItems(items)
	st.Items = len(items)
	if len(items) == 0 {
		// An empty success does not clear a pause.
		st.Status = StatusEmpty
		metrics.ProviderFetchTotal.WithLabelValues(name, StatusEmpty).Inc()
		return nil, st
	}

	if a.health != nil {
		a.health.RecordSuccess(context.WithoutCancel(ctx), name)
	}
	st.Status = StatusOK
	metrics.ProviderFetchTotal.WithLabelValues(name, StatusOK).Inc()
	metrics.ProviderItemsFetched.WithLabelValues(name).Add(float64(len(items)))
	slog.Info("provider fetch succeeded", "provider", name, "items", len(items), "elapsed", time.Since(start))
	return items, st
}

// validItems drops items with neither title nor body and clears any
// priority fields an adapter may have set.
func validItems(items []models.ContentItem) []models.ContentItem {
	out := items[:0:0]
	for _, it := range items {
		if it.Title == "" && it.Body == "" {
			continue
		}
		it.PriorityTier = 0
		it.SubstanceScore = 0
		out = append(out, it)
	}
	return out
}
