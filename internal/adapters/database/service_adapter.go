package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/repositories"
	"github.com/myturn/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/myturn/backend/pkg/errors"
)

const servicesTable = "services"

var serviceColumns = []interface{}{
	"id", "institution_id", "name", "category", "subcategory", "normal_capacity",
	"current_inflow", "buffered_count", "avg_service_time_minutes", "status",
	"surge_threshold", "buffer_threshold", "created_at", "updated_at",
}

// ServiceAdapter implements the ServiceRepository interface
type ServiceAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewServiceAdapter creates a new service adapter
func NewServiceAdapter(client *postgres.Client) repositories.ServiceRepository {
	return &ServiceAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func scanService(row rowScanner) (*entities.Service, error) {
	s := &entities.Service{}
	var (
		category, subcategory           sql.NullString
		avgServiceTime                  sql.NullInt64
		surgeThreshold, bufferThreshold sql.NullInt64
	)

	err := row.Scan(
		&s.ID, &s.InstitutionID, &s.Name, &category, &subcategory, &s.NormalCapacity,
		&s.CurrentInflow, &s.BufferedCount, &avgServiceTime, &s.Status,
		&surgeThreshold, &bufferThreshold, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Category = category.String
	s.Subcategory = subcategory.String
	s.AvgServiceTimeMinutes = int(avgServiceTime.Int64)
	if surgeThreshold.Valid {
		v := int(surgeThreshold.Int64)
		s.SurgeThreshold = &v
	}
	if bufferThreshold.Valid {
		v := int(bufferThreshold.Int64)
		s.BufferThreshold = &v
	}
	return s, nil
}

// GetByID retrieves a service by ID
func (a *ServiceAdapter) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	query, args, err := a.db.Select(serviceColumns...).
		From(servicesTable).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	service, err := scanService(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("service with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewUpstreamError("failed to get service", err)
	}
	return service, nil
}

// ListByInstitution retrieves all services of an institution
func (a *ServiceAdapter) ListByInstitution(ctx context.Context, institutionID string) ([]*entities.Service, error) {
	return listServices(ctx, a.client, a.db, institutionID)
}

func listServices(ctx context.Context, client *postgres.Client, db *goqu.Database, institutionIDs ...string) ([]*entities.Service, error) {
	query, args, err := db.Select(serviceColumns...).
		From(servicesTable).
		Where(goqu.C("institution_id").In(institutionIDs)).
		Order(goqu.C("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewUpstreamError("failed to list services", err)
	}
	defer rows.Close()

	services := make([]*entities.Service, 0)
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, apperrors.NewUpstreamError("failed to scan service", err)
		}
		services = append(services, service)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewUpstreamError("failed to iterate services", err)
	}
	return services, nil
}

// UpdateStatus sets the operational status of a service
func (a *ServiceAdapter) UpdateStatus(ctx context.Context, id string, status entities.ServiceStatus) error {
	query, args, err := a.db.Update(servicesTable).
		Set(goqu.Record{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewUpstreamError("failed to update service status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewUpstreamError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("service with id %s not found", id))
	}
	return nil
}
