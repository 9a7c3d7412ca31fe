package geolocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/providers"
)

const locationKeyPrefix = "geo:v1:fix:"

// CacheLocationProvider keeps requester fixes in the shared cache so that
// every API replica sees the same latest position.
type CacheLocationProvider struct {
	cache         providers.CacheProvider
	window        time.Duration
	lookupTimeout time.Duration
	now           func() time.Time
}

// NewCacheLocationProvider creates a location provider backed by a CacheProvider
func NewCacheLocationProvider(cache providers.CacheProvider, window, lookupTimeout time.Duration) providers.LocationProvider {
	return &CacheLocationProvider{
		cache:         cache,
		window:        window,
		lookupTimeout: lookupTimeout,
		now:           time.Now,
	}
}

// LocationKey returns the cache key of a requester fix
func LocationKey(userID string) string {
	return locationKeyPrefix + userID
}

// Report stores the latest fix of a requester
func (p *CacheLocationProvider) Report(ctx context.Context, userID string, fix entities.LocationFix) error {
	if fix.RecordedAt.IsZero() {
		fix.RecordedAt = p.now().UTC()
	}
	data, err := json.Marshal(fix)
	if err != nil {
		return fmt.Errorf("failed to marshal location: %w", err)
	}
	return p.cache.Set(ctx, LocationKey(userID), data, int(p.window.Seconds()))
}

// Current returns the latest fix still inside the cache window
func (p *CacheLocationProvider) Current(ctx context.Context, userID string) (*entities.LocationFix, error) {
	if p.lookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.lookupTimeout)
		defer cancel()
	}

	data, err := p.cache.Get(ctx, LocationKey(userID))
	if errors.Is(err, providers.ErrCacheMiss) {
		return nil, providers.ErrLocationUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrLocationUnavailable, err)
	}

	var fix entities.LocationFix
	if err := json.Unmarshal(data, &fix); err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrLocationUnavailable, err)
	}
	if p.now().Sub(fix.RecordedAt) > p.window {
		return nil, providers.ErrLocationUnavailable
	}
	return &fix, nil
}
