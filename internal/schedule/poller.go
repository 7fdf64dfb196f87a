package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultPollInterval is how often the poller checks for due schedules. An
// interval above twice DueWindow can step over a slot.
const DefaultPollInterval = 60 * time.Second

// Dispatcher starts the schedules due at the moment it is called without
// waiting for them to finish.
type Dispatcher interface {
	DispatchDue(ctx context.Context) (int, error)
}

// Poller calls DispatchDue on a fixed interval until stopped. A slow run
// never delays the next check.
type Poller struct {
	runner   Dispatcher
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ Dispatcher = (*Engine)(nil)

// NewPoller builds a Poller. A non-positive interval means
// DefaultPollInterval.
func NewPoller(r Dispatcher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{runner: r, interval: interval}
}

// Start checks once immediately and then on every tick. Calling Start on a
// running poller does nothing.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	p.stop, p.done = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.tick(ctx)
		for {
			select {
			case <-ticker.C:
				p.tick(ctx)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()
	slog.Info("schedule poller started", "interval", p.interval)
}

// Stop halts the poller and waits for an in-progress check to return. Runs
// already dispatched keep going.
func (p *Poller) Stop() {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
	slog.Info("schedule poller stopped")
}

func (p *Poller) tick(ctx context.Context) {
	n, err := p.runner.DispatchDue(ctx)
	if err != nil {
		slog.Error("checking due schedules", "error", err)
		return
	}
	slog.Debug("schedule check", "started", n)
}
