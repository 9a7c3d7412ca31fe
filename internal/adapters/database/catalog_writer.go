package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/myturn/backend/pkg/errors"
)

// CatalogWriter upserts institutions, their services, staff and demand
// forecasts. It backs seeding and bulk imports; the request path never writes
// the catalog.
type CatalogWriter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCatalogWriter creates a new catalog writer
func NewCatalogWriter(client *postgres.Client) *CatalogWriter {
	return &CatalogWriter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (w *CatalogWriter) upsert(ctx context.Context, table string, record goqu.Record, what string) error {
	update := goqu.Record{}
	for column := range record {
		if column == "id" || column == "created_at" {
			continue
		}
		update[column] = goqu.I("excluded." + column)
	}

	query, args, err := w.db.Insert(table).
		Rows(record).
		OnConflict(goqu.DoUpdate("id", update)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if _, err := w.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewUpstreamError("failed to upsert "+what, err)
	}
	return nil
}

// UpsertInstitution inserts or replaces an institution row. Services are written separately.
func (w *CatalogWriter) UpsertInstitution(ctx context.Context, inst *entities.Institution) error {
	now := time.Now().UTC()
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = now
	}
	inst.UpdatedAt = now
	if inst.CrowdLevel == "" {
		inst.CrowdLevel = entities.CrowdLevelLow
	}

	return w.upsert(ctx, institutionsTable, goqu.Record{
		"id":           inst.ID,
		"name":         inst.Name,
		"category":     inst.Category,
		"description":  nullable(inst.Description),
		"address":      inst.Address,
		"city":         inst.City,
		"latitude":     inst.Location.Latitude,
		"longitude":    inst.Location.Longitude,
		"phone":        nullable(inst.Phone),
		"opening_time": nullable(inst.OperatingHours.Open),
		"closing_time": nullable(inst.OperatingHours.Close),
		"crowd_level":  inst.CrowdLevel,
		"is_active":    inst.IsActive,
		"created_at":   inst.CreatedAt,
		"updated_at":   inst.UpdatedAt,
	}, "institution")
}

// UpsertService inserts or replaces a service row
func (w *CatalogWriter) UpsertService(ctx context.Context, svc *entities.Service) error {
	now := time.Now().UTC()
	if svc.CreatedAt.IsZero() {
		svc.CreatedAt = now
	}
	svc.UpdatedAt = now
	if svc.Status == "" {
		svc.Status = entities.ServiceStatusActive
	}

	return w.upsert(ctx, servicesTable, goqu.Record{
		"id":                       svc.ID,
		"institution_id":           svc.InstitutionID,
		"name":                     svc.Name,
		"category":                 nullable(svc.Category),
		"subcategory":              nullable(svc.Subcategory),
		"normal_capacity":          svc.NormalCapacity,
		"current_inflow":           svc.CurrentInflow,
		"buffered_count":           svc.BufferedCount,
		"avg_service_time_minutes": svc.AvgServiceTimeMinutes,
		"status":                   svc.Status,
		"surge_threshold":          svc.SurgeThreshold,
		"buffer_threshold":         svc.BufferThreshold,
		"created_at":               svc.CreatedAt,
		"updated_at":               svc.UpdatedAt,
	}, "service")
}

// UpsertStaff inserts or replaces a staff row
func (w *CatalogWriter) UpsertStaff(ctx context.Context, member *entities.Staff) error {
	now := time.Now().UTC()
	if member.CreatedAt.IsZero() {
		member.CreatedAt = now
	}
	member.UpdatedAt = now

	return w.upsert(ctx, staffTable, goqu.Record{
		"id":                 member.ID,
		"user_id":            member.UserID,
		"institution_id":     member.InstitutionID,
		"name":               member.Name,
		"role":               member.Role,
		"current_service_id": member.CurrentServiceID,
		"is_available":       member.IsAvailable,
		"created_at":         member.CreatedAt,
		"updated_at":         member.UpdatedAt,
	}, "staff member")
}

// UpsertPrediction inserts or replaces a demand forecast row
func (w *CatalogWriter) UpsertPrediction(ctx context.Context, p *entities.DemandPrediction) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	return w.upsert(ctx, "demand_predictions", goqu.Record{
		"id":                p.ID,
		"institution_id":    p.InstitutionID,
		"service_id":        p.ServiceID,
		"prediction_date":   p.PredictionDate.Format("2006-01-02"),
		"hour_slot":         p.HourSlot,
		"predicted_demand":  p.PredictedDemand,
		"confidence_score":  p.ConfidenceScore,
		"is_surge_expected": p.IsSurgeExpected,
		"created_at":        p.CreatedAt,
	}, "demand prediction")
}
