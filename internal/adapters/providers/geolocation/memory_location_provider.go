package geolocation

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/providers"
)

const defaultMemoryCapacity = 10000

// MemoryLocationProvider keeps fixes in a bounded in-process LRU whose
// entries expire after the cache window. Used when Redis is not configured.
type MemoryLocationProvider struct {
	fixes *expirable.LRU[string, entities.LocationFix]
	now   func() time.Time
}

// NewMemoryLocationProvider creates an in-process location provider
func NewMemoryLocationProvider(capacity int, window time.Duration) providers.LocationProvider {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &MemoryLocationProvider{
		fixes: expirable.NewLRU[string, entities.LocationFix](capacity, nil, window),
		now:   time.Now,
	}
}

// Report stores the latest fix of a requester
func (p *MemoryLocationProvider) Report(ctx context.Context, userID string, fix entities.LocationFix) error {
	if fix.RecordedAt.IsZero() {
		fix.RecordedAt = p.now().UTC()
	}
	p.fixes.Add(userID, fix)
	return nil
}

// Current returns the latest fix still inside the cache window
func (p *MemoryLocationProvider) Current(ctx context.Context, userID string) (*entities.LocationFix, error) {
	fix, ok := p.fixes.Get(userID)
	if !ok {
		return nil, providers.ErrLocationUnavailable
	}
	return &fix, nil
}
