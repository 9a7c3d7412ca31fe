package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/myturn/backend/pkg/config"
	"github.com/myturn/backend/pkg/retry"
)

// InstitutionsCollection holds one document per institution
const InstitutionsCollection = "institutions"

const healthTimeout = 2 * time.Second

// Client wraps the typesense-go client used for institution text search
type Client struct {
	client *typesense.Client
}

// NewClient connects to Typesense, retrying with backoff until it reports healthy
func NewClient(cfg *config.TypesenseConfig) (*Client, error) {
	c := &Client{client: typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)}

	onRetry := func(attempt int, err error, nextDelay time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Typesense connection attempt failed")
	}
	err := retry.DoWithLog(context.Background(), retry.DefaultConfig(), "Typesense", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return c.Ping(ctx)
	}, onRetry)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Str("url", cfg.URL).Msg("connected to Typesense")
	return c, nil
}

// Ping is the readiness probe for search
func (c *Client) Ping(ctx context.Context) error {
	healthy, err := c.client.Health(ctx, healthTimeout)
	if err != nil {
		return fmt.Errorf("typesense unreachable: %w", err)
	}
	if !healthy {
		return fmt.Errorf("typesense reports unhealthy")
	}
	return nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// InstitutionSchema is the collection schema for institution documents
func InstitutionSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: InstitutionsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "category", Type: "string", Facet: pointer.True()},
			{Name: "city", Type: "string", Facet: pointer.True()},
			{Name: "address", Type: "string", Optional: pointer.True()},
			{Name: "location", Type: "geopoint"},
			{Name: "crowd_level", Type: "string", Facet: pointer.True()},
			{Name: "is_active", Type: "bool"},
			{Name: "services", Type: "string[]", Optional: pointer.True()},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}
}

// InitSchema ensures the institutions collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == InstitutionsCollection {
			log.Debug().Str("collection", InstitutionsCollection).Msg("Typesense collection already exists")
			return nil
		}
	}

	if _, err := c.client.Collections().Create(ctx, InstitutionSchema()); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Str("collection", InstitutionsCollection).Msg("created Typesense collection")
	return nil
}

// ResetCollection drops the institutions collection and recreates it empty
func (c *Client) ResetCollection(ctx context.Context) error {
	if _, err := c.client.Collection(InstitutionsCollection).Delete(ctx); err != nil {
		log.Warn().Err(err).Str("collection", InstitutionsCollection).Msg("collection delete failed, recreating anyway")
	}
	return c.InitSchema(ctx)
}
