package providers

import (
	"context"
	"errors"

	"github.com/myturn/backend/internal/domain/entities"
)

// ErrLocationUnavailable is returned when no fresh fix is known for a requester
var ErrLocationUnavailable = errors.New("location unavailable")

// LocationProvider stores and returns requester positions
type LocationProvider interface {
	// Report stores the latest fix of a requester
	Report(ctx context.Context, userID string, fix entities.LocationFix) error

	// Current returns the latest fix of a requester that is still within the cache window,
	// or ErrLocationUnavailable
	Current(ctx context.Context, userID string) (*entities.LocationFix, error)
}

// CheckInCodeEncoder renders a check-in code as an image
type CheckInCodeEncoder interface {
	// Encode returns a PNG of code at the given edge size in pixels
	Encode(code string, size int) ([]byte, error)
}
