package handlers

import (
	"context"
	"net/http"

	"github.com/myturn/backend/internal/api/middleware"
	"github.com/myturn/backend/internal/application/services"
	"github.com/myturn/backend/internal/domain/entities"
)

// InstitutionUseCases is the discovery behaviour the HTTP layer depends on
type InstitutionUseCases interface {
	Nearby(ctx context.Context, query services.NearbyQuery) ([]entities.RankedInstitution, error)
	GetInstitution(ctx context.Context, id string) (*entities.Institution, error)
	ReportLocation(ctx context.Context, userID string, fix entities.LocationFix) error
}

// InstitutionHandler handles institution discovery and requester location updates
type InstitutionHandler struct {
	institutions InstitutionUseCases
}

// NewInstitutionHandler creates a new institution handler
func NewInstitutionHandler(institutions InstitutionUseCases) *InstitutionHandler {
	return &InstitutionHandler{institutions: institutions}
}

// Nearby handles GET /api/institutions/nearby?category=&q=&lat=&lon=&mode=&limit=
func (h *InstitutionHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	lat, err := queryFloat(r, "lat")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	lon, err := queryFloat(r, "lon")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	ranked, err := h.institutions.Nearby(r.Context(), services.NearbyQuery{
		UserID:    middleware.UserIDFromContext(r.Context()),
		Category:  query.Get("category"),
		Text:      query.Get("q"),
		Latitude:  lat,
		Longitude: lon,
		Mode:      query.Get("mode"),
		Limit:     limit,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"institutions": ranked,
		"count":        len(ranked),
	})
}

// GetInstitution handles GET /api/institutions/{id}
func (h *InstitutionHandler) GetInstitution(w http.ResponseWriter, r *http.Request) {
	institution, err := h.institutions.GetInstitution(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, institution)
}

// ReportLocation handles PUT /api/me/location
func (h *InstitutionHandler) ReportLocation(w http.ResponseWriter, r *http.Request) {
	var fix entities.LocationFix
	if err := decodeJSON(w, r, &fix); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	if err := h.institutions.ReportLocation(r.Context(), middleware.UserIDFromContext(r.Context()), fix); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
