package providers

import (
	"context"

	"github.com/myturn/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to queue events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.QueueEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.QueueEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventStream defines the interface for the durable outbound event log
type EventStream interface {
	// Append writes an event to the stream, keyed by institution
	Append(ctx context.Context, event *entities.QueueEvent) error

	// Close flushes and closes the stream
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelQueueUpdates is the channel for all queue updates
	EventChannelQueueUpdates = "queue:updates"

	// EventChannelInstitutionPrefix is the prefix for institution-specific channels
	EventChannelInstitutionPrefix = "queue:institution:"

	// EventChannelUserPrefix is the prefix for user-specific channels
	EventChannelUserPrefix = "queue:user:"
)

// GetInstitutionChannel returns the channel name for a specific institution
func GetInstitutionChannel(institutionID string) string {
	return EventChannelInstitutionPrefix + institutionID
}

// GetUserChannel returns the channel name for a specific user
func GetUserChannel(userID string) string {
	return EventChannelUserPrefix + userID
}

// ChannelsFor returns every channel an event should be published on
func ChannelsFor(event *entities.QueueEvent) []string {
	channels := []string{EventChannelQueueUpdates}
	if event.InstitutionID != "" {
		channels = append(channels, GetInstitutionChannel(event.InstitutionID))
	}
	if event.UserID != "" {
		channels = append(channels, GetUserChannel(event.UserID))
	}
	return channels
}
