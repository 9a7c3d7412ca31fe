package providers

import (
	"context"

	"github.com/myturn/backend/internal/domain/queue"
)

// QueueCounter hands out positions within a window atomically across processes
type QueueCounter interface {
	// Next returns the next position of the window. floor is the highest position
	// already persisted; the returned value is always greater than floor.
	Next(ctx context.Context, window queue.Window, floor int) (int, error)
}
