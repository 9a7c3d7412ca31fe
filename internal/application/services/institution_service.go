package services

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/geo"
	"github.com/myturn/backend/internal/domain/providers"
	"github.com/myturn/backend/internal/domain/repositories"
	"github.com/myturn/backend/internal/infrastructure/observability"
	"github.com/myturn/backend/pkg/config"
	apperrors "github.com/myturn/backend/pkg/errors"
)

// NearbyQuery describes a proximity search. Latitude and Longitude are either both
// set or both nil; when nil the requester's last reported location is used.
type NearbyQuery struct {
	UserID    string
	Category  string
	Text      string
	Latitude  *float64
	Longitude *float64
	Mode      string
	Limit     int
}

// InstitutionService handles institution discovery and requester locations
type InstitutionService struct {
	repo      repositories.InstitutionRepository
	search    repositories.InstitutionSearchRepository
	locations providers.LocationProvider
	cfg       config.GeolocationConfig
	validate  *validator.Validate
	now       func() time.Time
}

// NewInstitutionService creates a new institution service. search and locations may be nil.
func NewInstitutionService(
	repo repositories.InstitutionRepository,
	search repositories.InstitutionSearchRepository,
	locations providers.LocationProvider,
	cfg config.GeolocationConfig,
) *InstitutionService {
	return &InstitutionService{
		repo:      repo,
		search:    search,
		locations: locations,
		cfg:       cfg,
		validate:  validator.New(),
		now:       time.Now,
	}
}

// Nearby returns active institutions ranked by distance from the requester.
// Without a usable origin the institutions are returned unranked.
func (s *InstitutionService) Nearby(ctx context.Context, query NearbyQuery) ([]entities.RankedInstitution, error) {
	ctx, span := observability.StartSpan(ctx, "InstitutionService.Nearby")
	defer span.End()

	mode, err := geo.ParseTravelMode(query.Mode)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if query.Mode == "" && s.cfg.DefaultTravelMode != "" {
		if configured, err := geo.ParseTravelMode(s.cfg.DefaultTravelMode); err == nil {
			mode = configured
		}
	}

	origin, err := s.origin(ctx, query)
	if err != nil {
		return nil, err
	}

	// With an origin the limit applies to the ranked result; cutting the
	// name-ordered listing first could drop the nearest institutions.
	fetchLimit := query.Limit
	if origin != nil {
		fetchLimit = 0
	}
	institutions, err := s.candidates(ctx, query, fetchLimit)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	values := make([]entities.Institution, 0, len(institutions))
	for _, inst := range institutions {
		values = append(values, *inst)
	}
	ranked := geo.Rank(values, origin, mode, s.now(), s.cfg.Location())
	if query.Limit > 0 && len(ranked) > query.Limit {
		ranked = ranked[:query.Limit]
	}
	return ranked, nil
}

func (s *InstitutionService) origin(ctx context.Context, query NearbyQuery) (*geo.Coordinates, error) {
	if query.Latitude != nil || query.Longitude != nil {
		if query.Latitude == nil || query.Longitude == nil {
			return nil, apperrors.NewValidationError("lat and lon must be given together")
		}
		fix := entities.LocationFix{Latitude: *query.Latitude, Longitude: *query.Longitude}
		if err := s.validate.Struct(&fix); err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
		return &geo.Coordinates{Latitude: fix.Latitude, Longitude: fix.Longitude}, nil
	}

	if query.UserID == "" || s.locations == nil {
		return nil, nil
	}

	fix, err := s.locations.Current(ctx, query.UserID)
	if err != nil {
		if !errors.Is(err, providers.ErrLocationUnavailable) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("location lookup failed")
		}
		return nil, nil
	}
	return &geo.Coordinates{Latitude: fix.Latitude, Longitude: fix.Longitude}, nil
}

// candidates uses the search index for free text and falls back to the database
// listing when the index is absent or failing.
func (s *InstitutionService) candidates(ctx context.Context, query NearbyQuery, limit int) ([]*entities.Institution, error) {
	if query.Text != "" && s.search != nil {
		ids, err := s.search.Search(ctx, repositories.InstitutionSearchQuery{
			Text:     query.Text,
			Category: query.Category,
			Limit:    limit,
		})
		if err == nil {
			if len(ids) == 0 {
				return []*entities.Institution{}, nil
			}
			return s.repo.GetByIDs(ctx, ids)
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("q", query.Text).Msg("institution search failed, listing from database")
	}

	return s.repo.ListActive(ctx, repositories.InstitutionFilter{
		Category: query.Category,
		Limit:    limit,
	})
}

// GetInstitution returns an institution with its services
func (s *InstitutionService) GetInstitution(ctx context.Context, id string) (*entities.Institution, error) {
	return s.repo.GetByID(ctx, id)
}

// ReportLocation stores the latest position of the requester
func (s *InstitutionService) ReportLocation(ctx context.Context, userID string, fix entities.LocationFix) error {
	if userID == "" {
		return apperrors.NewUnauthorizedError("sign in to share your location")
	}
	if s.locations == nil {
		return apperrors.NewInternalError("location storage is not configured", nil)
	}
	if err := s.validate.Struct(&fix); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if fix.RecordedAt.IsZero() {
		fix.RecordedAt = s.now().UTC()
	}
	if err := s.locations.Report(ctx, userID, fix); err != nil {
		return apperrors.NewUpstreamError("failed to store location", err)
	}
	return nil
}
