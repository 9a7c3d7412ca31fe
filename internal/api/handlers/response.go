package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/myturn/backend/internal/api/middleware"
	"github.com/myturn/backend/internal/infrastructure/observability"
	apperrors "github.com/myturn/backend/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps an application error onto its HTTP status. Internal
// details are logged and never returned to the client.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	errType := apperrors.TypeOf(err)
	status := errType.HTTPStatus()
	if errType.ClientFacing() {
		respondWithError(w, status, apperrors.MessageOf(err))
		return
	}

	logger := observability.LoggerFromContext(r.Context())
	if status == http.StatusBadGateway {
		logger.Warn().Err(err).Str("path", r.URL.Path).Msg("upstream failure")
		respondWithError(w, status, "upstream service unavailable")
		return
	}
	logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	respondWithError(w, status, "internal server error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return apperrors.NewValidationError("invalid request body: " + err.Error())
	}
	return nil
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperrors.NewValidationError("invalid " + key + " parameter")
	}
	return v, nil
}

func queryFloat(r *http.Request, key string) (*float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid " + key + " parameter")
	}
	return &v, nil
}

// requireInstitutionScope rejects staff whose token is bound to a different
// institution than the {id} in the path. Tokens without an institution are
// not scoped.
func requireInstitutionScope(w http.ResponseWriter, r *http.Request) bool {
	id, _ := middleware.IdentityFromContext(r.Context())
	if id.InstitutionID != "" && id.InstitutionID != r.PathValue("id") {
		respondWithError(w, http.StatusForbidden, "not a member of this institution")
		return false
	}
	return true
}

// callerInstitution returns the institution the caller's token is bound to,
// or "" for unscoped tokens.
func callerInstitution(r *http.Request) string {
	id, _ := middleware.IdentityFromContext(r.Context())
	return id.InstitutionID
}
