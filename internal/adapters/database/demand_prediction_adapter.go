package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/queue"
	"github.com/myturn/backend/internal/domain/repositories"
	"github.com/myturn/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/myturn/backend/pkg/errors"
)

// DemandPredictionAdapter implements the DemandPredictionRepository interface
type DemandPredictionAdapter struct {
	db   *goqu.Database
	sqlx *sqlx.DB
}

// NewDemandPredictionAdapter creates a new demand prediction adapter
func NewDemandPredictionAdapter(client *postgres.Client) repositories.DemandPredictionRepository {
	return &DemandPredictionAdapter{
		db:   goqu.New("postgres", client.DB()),
		sqlx: sqlx.NewDb(client.DB(), "postgres"),
	}
}

// ListByInstitution retrieves the forecasts of an institution for a day, ordered by hour
func (a *DemandPredictionAdapter) ListByInstitution(ctx context.Context, institutionID string, date time.Time) ([]*entities.DemandPrediction, error) {
	query, args, err := a.db.Select(
		"id", "institution_id", "service_id", "prediction_date", "hour_slot",
		"predicted_demand", "confidence_score", "is_surge_expected", "created_at",
	).From("demand_predictions").
		Where(goqu.Ex{
			"institution_id":  institutionID,
			"prediction_date": date.Format(queue.DateLayout),
		}).
		Order(goqu.C("hour_slot").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	predictions := make([]*entities.DemandPrediction, 0)
	if err := a.sqlx.SelectContext(ctx, &predictions, query, args...); err != nil {
		return nil, apperrors.NewUpstreamError("failed to list demand predictions", err)
	}
	return predictions, nil
}
