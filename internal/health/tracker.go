// Package health tracks per-provider circuit-breaker state.
//
// A provider that fails with a rate-limit signal is paused for 30 minutes and
// one that is refused access is paused for an hour. Pauses are persisted so
// they survive restarts and expire lazily on the next consultation.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hoanghai1803/daybrief/internal/models"
	"github.com/hoanghai1803/daybrief/internal/storage"
)

const (
	RateLimitPause = 30 * time.Minute
	ForbiddenPause = 60 * time.Minute

	keyPrefix = "health:"
)

// Tracker gates provider calls on persisted pause state. It is safe for
// concurrent use; each provider's read-decide-write sequence is serialized.
type Tracker struct {
	kv  storage.KV
	now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTracker creates a Tracker persisting to kv.
func NewTracker(kv storage.KV) *Tracker {
	return &Tracker{
		kv:    kv,
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}
}

// SetClock replaces the time source. Used by tests.
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

// StatusCoder is implemented by errors that carry the HTTP status a
// provider answered with. A zero status means no response was received.
type StatusCoder interface {
	HTTPStatus() int
}

// PauseFor returns how long err pauses a provider, or zero. An error
// carrying a status is judged by that status alone. Only errors without
// one fall back to their text.
func PauseFor(err error) time.Duration {
	if err == nil {
		return 0
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		switch sc.HTTPStatus() {
		case http.StatusTooManyRequests:
			return RateLimitPause
		case http.StatusForbidden:
			return ForbiddenPause
		}
		return 0
	}

	r := strings.ToLower(err.Error())
	switch {
	case strings.Contains(r, "rate limit"), strings.Contains(r, "too many requests"), strings.Contains(r, "http 429"):
		return RateLimitPause
	case strings.Contains(r, "forbidden"), strings.Contains(r, "http 403"):
		return ForbiddenPause
	}
	return 0
}

// IsPaused reports whether provider is inside a pause window. An expired
// window is cleared as a side effect. Storage errors are logged and treated
// as not paused.
func (t *Tracker) IsPaused(ctx context.Context, provider string) bool {
	unlock := t.lock(provider)
	defer unlock()

	rec, err := t.load(ctx, provider)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("reading provider health", "provider", provider, "error", err)
		}
		return false
	}

	if rec.PausedUntil == nil {
		return false
	}
	if rec.Paused(t.now()) {
		return true
	}

	rec.PausedUntil = nil
	rec.Reason = ""
	if err := t.save(ctx, rec); err != nil {
		slog.Warn("clearing expired pause", "provider", provider, "error", err)
	}
	return false
}

// RecordSuccess clears any state held for provider.
func (t *Tracker) RecordSuccess(ctx context.Context, provider string) {
	unlock := t.lock(provider)
	defer unlock()

	if err := t.kv.Delete(ctx, keyPrefix+provider); err != nil {
		slog.Warn("clearing provider health", "provider", provider, "error", err)
	}
}

// RecordFailure stores the failure and pauses provider if err signals rate
// limiting or forbidden access. Other failures are recorded without a pause.
func (t *Tracker) RecordFailure(ctx context.Context, provider string, failure error) {
	unlock := t.lock(provider)
	defer unlock()

	rec, err := t.load(ctx, provider)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("reading provider health", "provider", provider, "error", err)
		}
		rec = models.ProviderHealthRecord{Provider: provider}
	}

	now := t.now()
	reason := failure.Error()
	rec.LastFailureReason = reason
	rec.LastFailureAt = &now

	if d := PauseFor(failure); d > 0 {
		until := now.Add(d)
		rec.PausedUntil = &until
		rec.Reason = reason
		slog.Warn("pausing provider", "provider", provider, "until", until, "reason", reason)
	}

	if err := t.save(ctx, rec); err != nil {
		slog.Warn("saving provider health", "provider", provider, "error", err)
	}
}

// Clear lifts any pause on provider. It reports whether a record existed.
func (t *Tracker) Clear(ctx context.Context, provider string) (bool, error) {
	unlock := t.lock(provider)
	defer unlock()

	if _, err := t.kv.Get(ctx, keyPrefix+provider); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("reading provider health %q: %w", provider, err)
	}
	if err := t.kv.Delete(ctx, keyPrefix+provider); err != nil {
		return false, fmt.Errorf("clearing provider health %q: %w", provider, err)
	}
	slog.Info("provider pause cleared", "provider", provider)
	return true, nil
}

// Status returns every stored provider record, ordered by provider name.
func (t *Tracker) Status(ctx context.Context) ([]models.ProviderHealthRecord, error) {
	entries, err := t.kv.List(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing provider health: %w", err)
	}

	records := make([]models.ProviderHealthRecord, 0, len(entries))
	for _, e := range entries {
		var rec models.ProviderHealthRecord
		if err := json.Unmarshal(e.Value, &rec); err != nil {
			slog.Warn("skipping corrupt health record", "key", e.Key, "error", err)
			continue
		}
		rec.Provider = strings.TrimPrefix(e.Key, keyPrefix)
		records = append(records, rec)
	}
	return records, nil
}

func (t *Tracker) lock(provider string) func() {
	t.mu.Lock()
	l, ok := t.locks[provider]
	if !ok {
		l = &sync.Mutex{}
		t.locks[provider] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (t *Tracker) load(ctx context.Context, provider string) (models.ProviderHealthRecord, error) {
	var rec models.ProviderHealthRecord
	data, err := t.kv.Get(ctx, keyPrefix+provider)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decoding health record %q: %w", provider, err)
	}
	rec.Provider = provider
	return rec, nil
}

func (t *Tracker) save(ctx context.Context, rec models.ProviderHealthRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding health record %q: %w", rec.Provider, err)
	}
	return t.kv.Put(ctx, keyPrefix+rec.Provider, data)
}
