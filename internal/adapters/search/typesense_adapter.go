package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/repositories"
	tsclient "github.com/myturn/backend/internal/infrastructure/clients/typesense"
	apperrors "github.com/myturn/backend/pkg/errors"
)

const defaultSearchLimit = 20

// TypesenseAdapter implements institution search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.InstitutionSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InstitutionDocument builds the search document of an institution
func InstitutionDocument(institution *entities.Institution) map[string]interface{} {
	doc := map[string]interface{}{
		"id":          institution.ID,
		"name":        institution.Name,
		"category":    institution.Category,
		"city":        institution.City,
		"location":    []float64{institution.Location.Latitude, institution.Location.Longitude},
		"crowd_level": string(institution.CrowdLevel),
		"is_active":   institution.IsActive,
		"created_at":  institution.CreatedAt.Unix(),
	}
	if institution.Address != "" {
		doc["address"] = institution.Address
	}
	if terms := BuildServiceTerms(institution.Services); len(terms) > 0 {
		doc["services"] = terms
	}
	return doc
}

// SearchParams translates a query into Typesense search parameters
func SearchParams(query repositories.InstitutionSearchQuery) *api.SearchCollectionParams {
	q := strings.TrimSpace(query.Text)
	if q == "" {
		q = "*"
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	filter := "is_active:=true"
	if query.Category != "" {
		filter += fmt.Sprintf(" && category:=`%s`", query.Category)
	}

	return &api.SearchCollectionParams{
		Q:        pointer.String(q),
		QueryBy:  pointer.String("name,services,address,city"),
		FilterBy: pointer.String(filter),
		Page:     pointer.Int(1),
		PerPage:  pointer.Int(limit),
	}
}

// Index upserts an institution document
func (a *TypesenseAdapter) Index(ctx context.Context, institution *entities.Institution) error {
	_, err := a.client.Client().Collection(tsclient.InstitutionsCollection).Documents().Upsert(ctx, InstitutionDocument(institution))
	if err != nil {
		return apperrors.NewUpstreamError("failed to index institution", err)
	}
	return nil
}

// Delete removes an institution document
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.InstitutionsCollection).Document(id).Delete(ctx)
	if err != nil {
		return apperrors.NewUpstreamError("failed to delete institution from index", err)
	}
	return nil
}

// Search returns matching institution IDs in relevance order
func (a *TypesenseAdapter) Search(ctx context.Context, query repositories.InstitutionSearchQuery) ([]string, error) {
	result, err := a.client.Client().Collection(tsclient.InstitutionsCollection).Documents().Search(ctx, SearchParams(query))
	if err != nil {
		return nil, apperrors.NewUpstreamError("failed to search institutions", err)
	}
	if result.Hits == nil {
		return []string{}, nil
	}

	ids := make([]string, 0, len(*result.Hits))
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		if id, ok := (*hit.Document)["id"].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
