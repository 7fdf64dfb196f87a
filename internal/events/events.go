// Package events publishes briefing lifecycle notifications.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/hoanghai1803/daybrief/internal/metrics"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "daybrief.briefings"

// BriefingCreated is published after a briefing is saved to history.
type BriefingCreated struct {
	BriefingID string    `json:"briefing_id"`
	CreatedAt  time.Time `json:"created_at"`
	ItemCount  int       `json:"item_count"`
	Sources    []string  `json:"sources"`
	Trigger    string    `json:"trigger"`
}

// Publisher delivers briefing events.
type Publisher interface {
	PublishBriefing(ctx context.Context, ev BriefingCreated) error
	Close()
}

// NopPublisher discards events.
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

func (NopPublisher) PublishBriefing(context.Context, BriefingCreated) error {
	return nil
}

func (NopPublisher) Close() {}

// NATSPublisher publishes events as JSON on a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

var _ Publisher = (*NATSPublisher)(nil)

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	nc, err := nats.Connect(url,
		nats.Name("daybrief"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}
	return &NATSPublisher{conn: nc, subject: subject}, nil
}

// Subject returns the subject events are published on.
func (p *NATSPublisher) Subject() string {
	return p.subject
}

// PublishBriefing publishes ev.
func (p *NATSPublisher) PublishBriefing(_ context.Context, ev BriefingCreated) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling briefing event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return fmt.Errorf("publishing briefing event: %w", err)
	}
	metrics.EventsPublishedTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	slog.Debug("published briefing event", "subject", p.subject, "briefing_id", ev.BriefingID)
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
