package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/myturn/backend/internal/application/services"
	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/providers"
	"github.com/myturn/backend/internal/domain/repositories"
	"github.com/myturn/backend/pkg/config"
	apperrors "github.com/myturn/backend/pkg/errors"
)

var geoConfig = config.GeolocationConfig{DefaultTravelMode: "drive", TimeZone: "Asia/Kolkata"}

func delhiInstitutions() []*entities.Institution {
	return []*entities.Institution{
		{ID: "far", Name: "Gurgaon Civil Hospital", Location: entities.Location{Latitude: 28.4595, Longitude: 77.0266}, IsActive: true},
		{ID: "near", Name: "AIIMS OPD", Location: entities.Location{Latitude: 28.5672, Longitude: 77.2100}, IsActive: true},
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestInstitutionService_NearbyRanksFromExplicitOrigin(t *testing.T) {
	repo := new(MockInstitutionRepository)
	svc := services.NewInstitutionService(repo, nil, nil, geoConfig)

	repo.On("ListActive", mock.Anything, repositories.InstitutionFilter{Category: "hospital"}).Return(delhiInstitutions(), nil)

	ranked, err := svc.Nearby(context.Background(), services.NearbyQuery{
		Category:  "hospital",
		Latitude:  floatPtr(28.6139),
		Longitude: floatPtr(77.2090),
	})
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, "near", ranked[0].ID)
	require.NotNil(t, ranked[0].DistanceKm)
	assert.InDelta(t, 5.2, *ranked[0].DistanceKm, 0.05)
	assert.Equal(t, 13, *ranked[0].TravelMinutes)
	assert.NotNil(t, ranked[0].DepartureTime)
	assert.Equal(t, "far", ranked[1].ID)
}

func TestInstitutionService_NearbyUsesReportedLocation(t *testing.T) {
	repo := new(MockInstitutionRepository)
	locations := new(MockLocationProvider)
	svc := services.NewInstitutionService(repo, nil, locations, geoConfig)

	repo.On("ListActive", mock.Anything, mock.Anything).Return(delhiInstitutions(), nil)
	locations.On("Current", mock.Anything, "user-1").Return(&entities.LocationFix{Latitude: 28.6139, Longitude: 77.2090}, nil)

	ranked, err := svc.Nearby(context.Background(), services.NearbyQuery{UserID: "user-1", Mode: "walk"})
	require.NoError(t, err)
	assert.Equal(t, "near", ranked[0].ID)
	assert.Equal(t, 63, *ranked[0].TravelMinutes)
}

func TestInstitutionService_NearbyPassThroughWithoutLocation(t *testing.T) {
	repo := new(MockInstitutionRepository)
	locations := new(MockLocationProvider)
	svc := services.NewInstitutionService(repo, nil, locations, geoConfig)

	repo.On("ListActive", mock.Anything, mock.Anything).Return(delhiInstitutions(), nil)
	locations.On("Current", mock.Anything, "user-1").Return(nil, providers.ErrLocationUnavailable)

	ranked, err := svc.Nearby(context.Background(), services.NearbyQuery{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "far", ranked[0].ID)
	assert.Nil(t, ranked[0].DistanceKm)
	assert.Nil(t, ranked[0].TravelMinutes)
	assert.Nil(t, ranked[0].DepartureTime)
}

func TestInstitutionService_NearbyValidation(t *testing.T) {
	svc := services.NewInstitutionService(new(MockInstitutionRepository), nil, nil, geoConfig)

	_, err := svc.Nearby(context.Background(), services.NearbyQuery{Mode: "teleport"})
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))

	_, err = svc.Nearby(context.Background(), services.NearbyQuery{Latitude: floatPtr(28.6)})
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))

	_, err = svc.Nearby(context.Background(), services.NearbyQuery{Latitude: floatPtr(128.6), Longitude: floatPtr(77.2)})
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
}

func TestInstitutionService_NearbyTextSearch(t *testing.T) {
	repo := new(MockInstitutionRepository)
	search := new(MockInstitutionSearch)
	svc := services.NewInstitutionService(repo, search, nil, geoConfig)

	search.On("Search", mock.Anything, repositories.InstitutionSearchQuery{Text: "opd"}).Return([]string{"near"}, nil)
	repo.On("GetByIDs", mock.Anything, []string{"near"}).Return(delhiInstitutions()[1:], nil)

	ranked, err := svc.Nearby(context.Background(), services.NearbyQuery{Text: "opd"})
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "near", ranked[0].ID)
	repo.AssertNotCalled(t, "ListActive", mock.Anything, mock.Anything)
}

func TestInstitutionService_NearbySearchOutageFallsBackToDatabase(t *testing.T) {
	repo := new(MockInstitutionRepository)
	search := new(MockInstitutionSearch)
	svc := services.NewInstitutionService(repo, search, nil, geoConfig)

	search.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("typesense down"))
	repo.On("ListActive", mock.Anything, mock.Anything).Return(delhiInstitutions(), nil)

	ranked, err := svc.Nearby(context.Background(), services.NearbyQuery{Text: "opd"})
	require.NoError(t, err)
	assert.Len(t, ranked, 2)
}

func TestInstitutionService_ReportLocation(t *testing.T) {
	locations := new(MockLocationProvider)
	svc := services.NewInstitutionService(new(MockInstitutionRepository), nil, locations, geoConfig)

	locations.On("Report", mock.Anything, "user-1", mock.MatchedBy(func(fix entities.LocationFix) bool {
		return fix.Latitude == 28.6 && !fix.RecordedAt.IsZero()
	})).Return(nil)

	require.NoError(t, svc.ReportLocation(context.Background(), "user-1", entities.LocationFix{Latitude: 28.6, Longitude: 77.2}))

	err := svc.ReportLocation(context.Background(), "", entities.LocationFix{Latitude: 28.6, Longitude: 77.2})
	assert.Equal(t, apperrors.ErrorTypeUnauthorized, apperrors.TypeOf(err))

	err = svc.ReportLocation(context.Background(), "user-1", entities.LocationFix{Latitude: 28.6, Longitude: 200})
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
}

func TestInstitutionService_NearbyLimitAppliesAfterRanking(t *testing.T) {
	repo := new(MockInstitutionRepository)
	svc := services.NewInstitutionService(repo, nil, nil, geoConfig)

	// name order puts the nearest institution last
	byName := []*entities.Institution{
		{ID: "far", Name: "A Gurgaon Civil Hospital", Location: entities.Location{Latitude: 28.4595, Longitude: 77.0266}, IsActive: true},
		{ID: "mid", Name: "B Noida District Hospital", Location: entities.Location{Latitude: 28.5355, Longitude: 77.3910}, IsActive: true},
		{ID: "near", Name: "Z AIIMS OPD", Location: entities.Location{Latitude: 28.5672, Longitude: 77.2100}, IsActive: true},
	}
	repo.On("ListActive", mock.Anything, repositories.InstitutionFilter{}).Return(byName, nil)

	ranked, err := svc.Nearby(context.Background(), services.NearbyQuery{
		Latitude:  floatPtr(28.6139),
		Longitude: floatPtr(77.2090),
		Limit:     1,
	})
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "near", ranked[0].ID)
	assert.InDelta(t, 5.2, *ranked[0].DistanceKm, 0.05)
}

func TestInstitutionService_NearbyLimitWithoutOriginIsPushedDown(t *testing.T) {
	repo := new(MockInstitutionRepository)
	svc := services.NewInstitutionService(repo, nil, nil, geoConfig)

	repo.On("ListActive", mock.Anything, repositories.InstitutionFilter{Limit: 1}).Return(delhiInstitutions()[:1], nil)

	ranked, err := svc.Nearby(context.Background(), services.NearbyQuery{Limit: 1})
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "far", ranked[0].ID)
}
