package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/providers"
)

// CacheInvalidationService drops cached institution data when queue events change it
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	started  bool
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for events and invalidating cache
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelQueueUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to queue updates: %w", err)
	}

	s.started = true
	go s.processEvents(eventChan)
	log.Info().Msg("cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service and waits for the event loop to exit
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	if s.started {
		<-s.done
	}
	log.Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.QueueEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event != nil {
				s.handleEvent(event)
			}
		}
	}
}

// handleEvent invalidates what an event makes stale. Booking events only move
// positions, which are never cached, so they are ignored.
func (s *CacheInvalidationService) handleEvent(event *entities.QueueEvent) {
	switch event.EventType {
	case entities.QueueEventServiceStatusChanged, entities.QueueEventStaffReassigned:
	default:
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.InvalidateInstitution(ctx, event.InstitutionID); err != nil {
		log.Warn().Err(err).Str("event_id", event.ID).Str("institution_id", event.InstitutionID).Msg("cache invalidation failed")
		return
	}
	log.Debug().Str("event_type", string(event.EventType)).Str("institution_id", event.InstitutionID).Msg("invalidated institution cache")
}

// InvalidateInstitution drops the cached institution and every cached listing
func (s *CacheInvalidationService) InvalidateInstitution(ctx context.Context, institutionID string) error {
	if err := s.cache.Delete(ctx, providers.InstitutionCacheKey(institutionID)); err != nil {
		return fmt.Errorf("failed to invalidate institution %s: %w", institutionID, err)
	}
	if err := s.cache.DeletePattern(ctx, providers.InstitutionsListPrefix+"*"); err != nil {
		return fmt.Errorf("failed to invalidate institution listings: %w", err)
	}
	return nil
}
