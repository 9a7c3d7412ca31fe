package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/myturn/backend/internal/infrastructure/observability"
)

const readinessTimeout = 2 * time.Second

// ReadinessCheck probes one dependency
type ReadinessCheck func(ctx context.Context) error

// WithReadiness registers a dependency probed by GET /ready
func (r *Router) WithReadiness(name string, check ReadinessCheck) *Router {
	if r.readiness == nil {
		r.readiness = make(map[string]ReadinessCheck)
	}
	r.readiness[name] = check
	return r
}

func (r *Router) ready(w http.ResponseWriter, req *http.Request) {
	names := make([]string, 0, len(r.readiness))
	for name := range r.readiness {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		ctx, cancel := context.WithTimeout(req.Context(), readinessTimeout)
		err := r.readiness[name](ctx)
		cancel()
		if err != nil {
			observability.LoggerFromContext(req.Context()).Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"ready":  status == http.StatusOK,
		"checks": results,
	})
}
