package geolocation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/providers"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *mockCache) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *mockCache) DeletePattern(ctx context.Context, pattern string) error {
	return m.Called(ctx, pattern).Error(0)
}

func TestCacheLocationProvider_ReportStoresWithWindowTTL(t *testing.T) {
	cache := new(mockCache)
	p := NewCacheLocationProvider(cache, 5*time.Minute, time.Second)

	cache.On("Set", mock.Anything, "geo:v1:fix:user-1", mock.Anything, 300).Return(nil)

	err := p.Report(context.Background(), "user-1", entities.LocationFix{Latitude: 28.6139, Longitude: 77.2090})
	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestCacheLocationProvider_Current(t *testing.T) {
	now := time.Date(2024, 3, 9, 13, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		cached   interface{}
		cacheErr error
		wantErr  bool
	}{
		{name: "fresh fix", cached: entities.LocationFix{Latitude: 28.6, Longitude: 77.2, RecordedAt: now.Add(-time.Minute)}},
		{name: "stale fix", cached: entities.LocationFix{Latitude: 28.6, Longitude: 77.2, RecordedAt: now.Add(-10 * time.Minute)}, wantErr: true},
		{name: "miss", cacheErr: providers.ErrCacheMiss, wantErr: true},
		{name: "cache down", cacheErr: errors.New("connection refused"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := new(mockCache)
			p := &CacheLocationProvider{cache: cache, window: 5 * time.Minute, lookupTimeout: time.Second, now: func() time.Time { return now }}

			if tt.cacheErr != nil {
				cache.On("Get", mock.Anything, "geo:v1:fix:user-1").Return(nil, tt.cacheErr)
			} else {
				data, _ := json.Marshal(tt.cached)
				cache.On("Get", mock.Anything, "geo:v1:fix:user-1").Return(data, nil)
			}

			fix, err := p.Current(context.Background(), "user-1")
			if tt.wantErr {
				assert.ErrorIs(t, err, providers.ErrLocationUnavailable)
				assert.Nil(t, fix)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, 28.6, fix.Latitude, 1e-9)
		})
	}
}

func TestMemoryLocationProvider_ReportAndCurrent(t *testing.T) {
	p := NewMemoryLocationProvider(2, time.Minute)
	ctx := context.Background()

	_, err := p.Current(ctx, "user-1")
	assert.ErrorIs(t, err, providers.ErrLocationUnavailable)

	require.NoError(t, p.Report(ctx, "user-1", entities.LocationFix{Latitude: 19.07, Longitude: 72.87}))
	fix, err := p.Current(ctx, "user-1")
	require.NoError(t, err)
	assert.InDelta(t, 72.87, fix.Longitude, 1e-9)
	assert.False(t, fix.RecordedAt.IsZero())
}

func TestMemoryLocationProvider_EvictsOldest(t *testing.T) {
	p := NewMemoryLocationProvider(1, time.Minute)
	ctx := context.Background()

	require.NoError(t, p.Report(ctx, "user-1", entities.LocationFix{Latitude: 1, Longitude: 1}))
	require.NoError(t, p.Report(ctx, "user-2", entities.LocationFix{Latitude: 2, Longitude: 2}))

	_, err := p.Current(ctx, "user-1")
	assert.ErrorIs(t, err, providers.ErrLocationUnavailable)
	_, err = p.Current(ctx, "user-2")
	assert.NoError(t, err)
}

func TestMemoryLocationProvider_Expires(t *testing.T) {
	p := NewMemoryLocationProvider(10, 20*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, p.Report(ctx, "user-1", entities.LocationFix{Latitude: 1, Longitude: 1}))
	assert.Eventually(t, func() bool {
		_, err := p.Current(ctx, "user-1")
		return errors.Is(err, providers.ErrLocationUnavailable)
	}, time.Second, 10*time.Millisecond)
}
