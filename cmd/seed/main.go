package main

import (
	"context"
	"flag"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/myturn/backend/internal/adapters/database"
	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/infrastructure/clients/postgres"
	"github.com/myturn/backend/internal/infrastructure/observability"
	"github.com/myturn/backend/pkg/config"
)

// seedNamespace derives stable ids so reseeding updates rows in place
var seedNamespace = uuid.MustParse("6f1c2a8e-4b7d-4e0a-9c53-2d8f7b1e9a40")

func seedID(parts ...string) string {
	name := ""
	for _, p := range parts {
		name += "/" + p
	}
	return uuid.NewSHA1(seedNamespace, []byte(name)).String()
}

type serviceSeed struct {
	name        string
	subcategory string
	capacity    int
	inflow      int
	minutes     int
	surgeAt     *int
}

type institutionSeed struct {
	key      string
	name     string
	category string
	address  string
	lat, lon float64
	open     string
	close    string
	services []serviceSeed
}

func intPtr(v int) *int { return &v }

var catalog = []institutionSeed{
	{
		key: "aiims", name: "AIIMS OPD Block", category: "healthcare",
		address: "Ansari Nagar East, New Delhi", lat: 28.5672, lon: 77.2100, open: "08:00", close: "17:00",
		services: []serviceSeed{
			{name: "General consultation", subcategory: "general", capacity: 120, inflow: 96, minutes: 8, surgeAt: intPtr(140)},
			{name: "Eye consultation", subcategory: "eye", capacity: 60, inflow: 22, minutes: 12},
			{name: "Blood test", subcategory: "blood", capacity: 200, inflow: 150, minutes: 3},
			{name: "Dental check", subcategory: "dental", capacity: 40, inflow: 38, minutes: 15},
		},
	},
	{
		key: "safdarjung", name: "Safdarjung Hospital", category: "healthcare",
		address: "Ring Road, Ansari Nagar West, New Delhi", lat: 28.5686, lon: 77.2058, open: "08:00", close: "16:00",
		services: []serviceSeed{
			{name: "General consultation", subcategory: "general", capacity: 150, inflow: 80, minutes: 7},
			{name: "Follow-up visit", subcategory: "followup", capacity: 80, inflow: 70, minutes: 6},
		},
	},
	{
		key: "sbi-cp", name: "SBI Connaught Place", category: "banking",
		address: "11 Sansad Marg, Connaught Place, New Delhi", lat: 28.6304, lon: 77.2177, open: "10:00", close: "16:00",
		services: []serviceSeed{
			{name: "Passbook update", subcategory: "passbook", capacity: 90, inflow: 30, minutes: 2},
			{name: "Card issue/change", subcategory: "card", capacity: 30, inflow: 18, minutes: 10},
			{name: "Account opening", subcategory: "account", capacity: 20, inflow: 19, minutes: 25},
			{name: "Loan enquiry", subcategory: "loan", capacity: 15, inflow: 4, minutes: 20},
		},
	},
	{
		key: "psk-herald", name: "Passport Seva Kendra Herald House", category: "government",
		address: "5A Bahadur Shah Zafar Marg, New Delhi", lat: 28.6296, lon: 77.2406, open: "09:00", close: "17:30",
		services: []serviceSeed{
			{name: "Document correction", subcategory: "document", capacity: 60, inflow: 45, minutes: 15},
			{name: "New registration", subcategory: "registration", capacity: 100, inflow: 110, minutes: 12, surgeAt: intPtr(100)},
		},
	},
	{
		key: "rto-sarai-kale-khan", name: "RTO Sarai Kale Khan", category: "government",
		address: "Sarai Kale Khan, New Delhi", lat: 28.5893, lon: 77.2571, open: "09:30", close: "16:00",
		services: []serviceSeed{
			{name: "License renewal", subcategory: "license", capacity: 80, inflow: 52, minutes: 10},
			{name: "Certificate request", subcategory: "certificate", capacity: 40, inflow: 12, minutes: 8},
		},
	},
}

func main() {
	var withForecasts bool
	flag.BoolVar(&withForecasts, "forecasts", true, "also seed today's hourly demand forecasts")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-seed", cfg.Log)

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	ctx := context.Background()
	writer := database.NewCatalogWriter(pgClient)
	today := time.Now().UTC().Truncate(24 * time.Hour)

	for _, seed := range catalog {
		inst := &entities.Institution{
			ID:             seedID(seed.key),
			Name:           seed.name,
			Category:       seed.category,
			Address:        seed.address,
			City:           "New Delhi",
			Location:       entities.Location{Latitude: seed.lat, Longitude: seed.lon},
			OperatingHours: entities.OperatingHours{Open: seed.open, Close: seed.close},
			IsActive:       true,
		}
		if err := writer.UpsertInstitution(ctx, inst); err != nil {
			log.Error().Err(err).Str("institution", seed.name).Msg("failed to seed institution")
			continue
		}

		var firstServiceID string
		for _, s := range seed.services {
			svc := &entities.Service{
				ID:                    seedID(seed.key, s.subcategory),
				InstitutionID:         inst.ID,
				Name:                  s.name,
				Category:              seed.category,
				Subcategory:           s.subcategory,
				NormalCapacity:        s.capacity,
				CurrentInflow:         s.inflow,
				AvgServiceTimeMinutes: s.minutes,
				SurgeThreshold:        s.surgeAt,
			}
			if err := writer.UpsertService(ctx, svc); err != nil {
				log.Error().Err(err).Str("service", s.name).Msg("failed to seed service")
				continue
			}
			if firstServiceID == "" {
				firstServiceID = svc.ID
			}

			if withForecasts {
				seedForecast(ctx, writer, inst.ID, svc, today)
			}
		}

		for i, role := range []entities.StaffRole{entities.StaffRoleManager, entities.StaffRoleOperator, entities.StaffRoleStaff} {
			serviceID := firstServiceID
			member := &entities.Staff{
				ID:               seedID(seed.key, "staff", string(role)),
				InstitutionID:    inst.ID,
				Name:             seed.name + " " + string(role),
				Role:             role,
				CurrentServiceID: &serviceID,
				IsAvailable:      i != 2,
			}
			if err := writer.UpsertStaff(ctx, member); err != nil {
				log.Error().Err(err).Str("staff", member.Name).Msg("failed to seed staff member")
			}
		}

		log.Info().Str("institution", seed.name).Int("services", len(seed.services)).Msg("seeded institution")
	}

	log.Info().Int("institutions", len(catalog)).Msg("seeding complete")
}

// seedForecast writes a morning-peaked demand curve over opening hours
func seedForecast(ctx context.Context, writer *database.CatalogWriter, institutionID string, svc *entities.Service, day time.Time) {
	serviceID := svc.ID
	for hour := 9; hour <= 16; hour++ {
		peak := 1.0
		switch {
		case hour <= 11:
			peak = 1.3
		case hour >= 15:
			peak = 0.6
		}
		demand := int(float64(svc.CurrentInflow) * peak)
		limit := svc.NormalCapacity
		if svc.SurgeThreshold != nil {
			limit = *svc.SurgeThreshold
		}

		prediction := &entities.DemandPrediction{
			ID:              seedID(institutionID, serviceID, day.Format("2006-01-02"), strconv.Itoa(hour)),
			InstitutionID:   institutionID,
			ServiceID:       &serviceID,
			PredictionDate:  day,
			HourSlot:        hour,
			PredictedDemand: demand,
			IsSurgeExpected: demand >= limit,
		}
		if err := writer.UpsertPrediction(ctx, prediction); err != nil {
			log.Error().Err(err).Str("service_id", serviceID).Int("hour", hour).Msg("failed to seed forecast")
		}
	}
}
