package messaging

import (
	"context"
	"errors"
	"log/slog"

	"github.com/imagerisk/imagerisk/internal/domain/port"
	"github.com/imagerisk/imagerisk/pkg/events"
)

// LogPublisher logs events instead of sending them anywhere. It is used when
// no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a publisher that only logs.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs each event at INFO.
func (p *LogPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	for _, evt := range evts {
		p.logger.InfoContext(ctx, "domain event",
			slog.String("event_type", evt.EventType()),
			slog.String("aggregate_id", evt.AggregateID().String()),
			slog.String("payload", string(evt.Payload())),
		)
	}
	return nil
}

// Broadcaster pushes a typed message to live listeners.
type Broadcaster interface {
	Broadcast(msgType string, data any) error
}

// HubPublisher forwards events to the dashboard websocket hub.
type HubPublisher struct {
	hub Broadcaster
}

// NewHubPublisher creates a publisher backed by a websocket hub.
func NewHubPublisher(hub Broadcaster) *HubPublisher {
	return &HubPublisher{hub: hub}
}

// Publish broadcasts every event envelope under its event type.
func (p *HubPublisher) Publish(_ context.Context, evts ...events.DomainEvent) error {
	var errs []error
	for _, evt := range evts {
		if err := p.hub.Broadcast(evt.EventType(), events.NewEnvelope(evt)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MultiPublisher fans events out to several publishers. Every publisher is
// attempted; their errors are joined.
type MultiPublisher struct {
	publishers []port.EventPublisher
}

// NewMultiPublisher creates a fan-out publisher. Nil publishers are skipped.
func NewMultiPublisher(publishers ...port.EventPublisher) *MultiPublisher {
	mp := &MultiPublisher{}
	for _, p := range publishers {
		if p != nil {
			mp.publishers = append(mp.publishers, p)
		}
	}
	return mp
}

// Publish delivers evts to every publisher.
func (m *MultiPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if len(evts) == 0 {
		return nil
	}
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, evts...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
