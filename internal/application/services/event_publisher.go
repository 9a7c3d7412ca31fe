package services

import (
	"context"
	"time"

	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/providers"
	"github.com/myturn/backend/internal/infrastructure/observability"
)

const publishTimeout = 5 * time.Second

// EventPublisher fans a queue event out to the realtime bus and the durable stream.
// Delivery failures are logged and never fail the operation that produced the event.
type EventPublisher struct {
	bus    providers.EventBus
	stream providers.EventStream
}

// NewEventPublisher creates a publisher. Either sink may be nil.
func NewEventPublisher(bus providers.EventBus, stream providers.EventStream) *EventPublisher {
	return &EventPublisher{bus: bus, stream: stream}
}

// Publish delivers event to every channel it belongs to and appends it to the stream
func (p *EventPublisher) Publish(ctx context.Context, event *entities.QueueEvent) {
	if p == nil || event == nil {
		return
	}
	logger := observability.LoggerFromContext(ctx)

	// the request may already be finishing; delivery gets its own deadline
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if p.bus != nil {
		for _, channel := range providers.ChannelsFor(event) {
			if err := p.bus.Publish(ctx, channel, event); err != nil {
				logger.Warn().Err(err).Str("channel", channel).Str("event_id", event.ID).Msg("failed to publish queue event")
			}
		}
	}

	if p.stream != nil {
		if err := p.stream.Append(ctx, event); err != nil {
			logger.Warn().Err(err).Str("event_id", event.ID).Str("event_type", string(event.EventType)).Msg("failed to append queue event to stream")
		}
	}
}
