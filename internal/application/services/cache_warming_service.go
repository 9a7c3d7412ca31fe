package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/myturn/backend/internal/domain/repositories"
)

// CacheWarmingService keeps the institution caches hot for nearby listings.
// It reads through a caching InstitutionRepository, so every read refills the cache.
type CacheWarmingService struct {
	institutions repositories.InstitutionRepository
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(institutions repositories.InstitutionRepository) *CacheWarmingService {
	return &CacheWarmingService{institutions: institutions}
}

// WarmResult summarises one warming pass
type WarmResult struct {
	Lists        int
	Institutions int
	Failures     int
}

// WarmCache loads the unfiltered listing, one listing per category and every
// active institution's detail record.
func (s *CacheWarmingService) WarmCache(ctx context.Context) (WarmResult, error) {
	var result WarmResult

	all, err := s.institutions.ListActive(ctx, repositories.InstitutionFilter{})
	if err != nil {
		return result, fmt.Errorf("failed to list active institutions: %w", err)
	}
	result.Lists++

	seen := make(map[string]bool)
	for _, inst := range all {
		if inst.Category == "" || seen[inst.Category] {
			continue
		}
		seen[inst.Category] = true
		if _, err := s.institutions.ListActive(ctx, repositories.InstitutionFilter{Category: inst.Category}); err != nil {
			log.Warn().Err(err).Str("category", inst.Category).Msg("failed to warm category listing")
			result.Failures++
			continue
		}
		result.Lists++
	}

	for _, inst := range all {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if _, err := s.institutions.GetByID(ctx, inst.ID); err != nil {
			log.Warn().Err(err).Str("institution_id", inst.ID).Msg("failed to warm institution")
			result.Failures++
			continue
		}
		result.Institutions++
	}

	return result, nil
}

// StartPeriodicWarming warms once and then on every tick until ctx is cancelled
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	s.warmAndLog(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("cache warming stopped")
			return
		case <-ticker.C:
			s.warmAndLog(ctx)
		}
	}
}

func (s *CacheWarmingService) warmAndLog(ctx context.Context) {
	start := time.Now()
	result, err := s.WarmCache(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("cache warming failed")
		return
	}
	log.Debug().
		Int("lists", result.Lists).
		Int("institutions", result.Institutions).
		Int("failures", result.Failures).
		Dur("duration", time.Since(start)).
		Msg("institution cache warmed")
}
