package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/myturn/backend/pkg/errors"
)

func TestCatalogWriter_UpsertInstitution(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	writer := NewCatalogWriter(postgres.NewClientFromDB(db))

	mock.ExpectExec(`INSERT INTO "institutions" .* ON CONFLICT \(id\) DO UPDATE SET .*"crowd_level"="excluded"."crowd_level".*"name"="excluded"."name"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inst := &entities.Institution{ID: "inst-1", Name: "AIIMS OPD", Category: "hospital", City: "New Delhi", IsActive: true}
	require.NoError(t, writer.UpsertInstitution(context.Background(), inst))

	assert.Equal(t, entities.CrowdLevelLow, inst.CrowdLevel)
	assert.False(t, inst.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogWriter_UpsertServiceDefaultsStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	writer := NewCatalogWriter(postgres.NewClientFromDB(db))

	mock.ExpectExec(`INSERT INTO "services" .*'active'.* ON CONFLICT \(id\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	svc := &entities.Service{ID: "svc-1", InstitutionID: "inst-1", Name: "OPD", NormalCapacity: 100}
	require.NoError(t, writer.UpsertService(context.Background(), svc))
	assert.Equal(t, entities.ServiceStatusActive, svc.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogWriter_UpsertPredictionFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	writer := NewCatalogWriter(postgres.NewClientFromDB(db))

	mock.ExpectExec(`INSERT INTO "demand_predictions" .*'2024-03-09'`).
		WillReturnError(errors.New("connection reset"))

	err = writer.UpsertPrediction(context.Background(), &entities.DemandPrediction{
		ID:             "dp-1",
		InstitutionID:  "inst-1",
		PredictionDate: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		HourSlot:       10,
	})
	assert.Equal(t, apperrors.ErrorTypeUpstream, apperrors.TypeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
