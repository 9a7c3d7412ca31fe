package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/providers"
	"github.com/myturn/backend/internal/domain/repositories"
)

// Cache TTLs (in seconds)
const (
	institutionByIDTTL  = 300
	institutionsListTTL = 180
)

// CachedInstitutionAdapter wraps an InstitutionRepository with caching
type CachedInstitutionAdapter struct {
	adapter repositories.InstitutionRepository
	cache   providers.CacheProvider
}

// NewCachedInstitutionAdapter creates a new cached institution adapter
func NewCachedInstitutionAdapter(adapter repositories.InstitutionRepository, cache providers.CacheProvider) repositories.InstitutionRepository {
	return &CachedInstitutionAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

func institutionsListCacheKey(filter repositories.InstitutionFilter) string {
	return fmt.Sprintf("%s%s:%s:%d:%d", providers.InstitutionsListPrefix,
		filter.Category, strings.ToLower(filter.City), filter.Limit, filter.Offset)
}

// GetByID retrieves an institution by ID with caching
func (a *CachedInstitutionAdapter) GetByID(ctx context.Context, id string) (*entities.Institution, error) {
	key := providers.InstitutionCacheKey(id)

	if cached, err := a.cache.Get(ctx, key); err == nil {
		var inst entities.Institution
		if err := json.Unmarshal(cached, &inst); err == nil {
			return &inst, nil
		}
		log.Warn().Str("institution_id", id).Msg("discarding unreadable cached institution")
	}

	inst, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a.store(ctx, key, inst, institutionByIDTTL)
	return inst, nil
}

// GetByIDs retrieves institutions by ID; search hydration is not cached
func (a *CachedInstitutionAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Institution, error) {
	return a.adapter.GetByIDs(ctx, ids)
}

// ListActive retrieves active institutions with caching
func (a *CachedInstitutionAdapter) ListActive(ctx context.Context, filter repositories.InstitutionFilter) ([]*entities.Institution, error) {
	key := institutionsListCacheKey(filter)

	if cached, err := a.cache.Get(ctx, key); err == nil {
		var institutions []*entities.Institution
		if err := json.Unmarshal(cached, &institutions); err == nil {
			return institutions, nil
		}
	}

	institutions, err := a.adapter.ListActive(ctx, filter)
	if err != nil {
		return nil, err
	}

	a.store(ctx, key, institutions, institutionsListTTL)
	return institutions, nil
}

// UpdateCrowdLevel writes through and drops the cached institution along with
// every cached listing, since listings embed the crowd level too.
func (a *CachedInstitutionAdapter) UpdateCrowdLevel(ctx context.Context, id string, level entities.CrowdLevel) error {
	if err := a.adapter.UpdateCrowdLevel(ctx, id, level); err != nil {
		return err
	}
	if err := a.cache.Delete(ctx, providers.InstitutionCacheKey(id)); err != nil {
		log.Warn().Err(err).Str("institution_id", id).Msg("failed to invalidate cached institution")
	}
	if err := a.cache.DeletePattern(ctx, providers.InstitutionsListPrefix+"*"); err != nil {
		log.Warn().Err(err).Str("institution_id", id).Msg("failed to invalidate cached institution listings")
	}
	return nil
}

func (a *CachedInstitutionAdapter) store(ctx context.Context, key string, value interface{}, ttl int) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, key, data, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to populate cache")
	}
}
