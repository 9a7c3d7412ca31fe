package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/myturn/backend/internal/adapters/database"
	"github.com/myturn/backend/internal/adapters/search"
	"github.com/myturn/backend/internal/domain/repositories"
	"github.com/myturn/backend/internal/infrastructure/clients/postgres"
	"github.com/myturn/backend/internal/infrastructure/clients/typesense"
	"github.com/myturn/backend/internal/infrastructure/observability"
	"github.com/myturn/backend/pkg/config"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete the Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-indexer", cfg.Log)

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil || interval <= 0 {
			log.Fatal().Str("interval", intervalValue).Msg("interval must be a positive duration")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, reset || os.Getenv("RESET_TYPESENSE") == "true"); err != nil {
			log.Error().Err(err).Msg("reindex failed")
		}

		if interval <= 0 {
			return
		}
		reset = false
		log.Info().Dur("next_run_in", interval).Msg("reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("indexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool) error {
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	prepare := tsClient.InitSchema
	if reset {
		log.Warn().Str("collection", typesense.InstitutionsCollection).Msg("resetting collection before reindex")
		prepare = tsClient.ResetCollection
	}
	if err := prepare(ctx); err != nil {
		return err
	}

	institutions := database.NewInstitutionAdapter(pgClient)
	index := search.NewTypesenseAdapter(tsClient)

	listed, err := institutions.ListActive(ctx, repositories.InstitutionFilter{})
	if err != nil {
		return err
	}

	log.Info().Int("institutions", len(listed)).Msg("indexing institutions")

	indexed := 0
	for _, summary := range listed {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// GetByID carries the services the search terms are built from
		inst, err := institutions.GetByID(ctx, summary.ID)
		if err != nil {
			log.Warn().Err(err).Str("institution_id", summary.ID).Msg("failed to load institution")
			continue
		}
		if err := index.Index(ctx, inst); err != nil {
			log.Warn().Err(err).Str("institution_id", inst.ID).Msg("failed to index institution")
			continue
		}
		indexed++
	}

	log.Info().Int("indexed", indexed).Int("total", len(listed)).Msg("indexing finished")
	return nil
}
