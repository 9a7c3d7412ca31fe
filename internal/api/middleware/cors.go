package middleware

import (
	"net/http"
	"os"
	"strings"
)

const (
	corsAllowMethods = "GET, POST, PUT, PATCH, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, " + RequestIDHeader
	corsMaxAge       = "600"
)

// allowedOrigins reads ALLOWED_ORIGINS; nil means any origin is accepted
func allowedOrigins() map[string]struct{} {
	env := os.Getenv("ALLOWED_ORIGINS")
	if env == "" || strings.TrimSpace(env) == "*" {
		return nil
	}
	origins := make(map[string]struct{})
	for _, origin := range strings.Split(env, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins[origin] = struct{}{}
		}
	}
	return origins
}

// CORSMiddleware lets the customer app and the staff dashboard call the API
// from the browser. Preflight requests are answered here and never reach a handler.
func CORSMiddleware(next http.Handler) http.Handler {
	origins := allowedOrigins()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		if origin := r.Header.Get("Origin"); origin != "" {
			if origins == nil {
				header.Set("Access-Control-Allow-Origin", "*")
			} else if _, ok := origins[origin]; ok {
				header.Set("Access-Control-Allow-Origin", origin)
				header.Add("Vary", "Origin")
			}
		}
		header.Set("Access-Control-Allow-Methods", corsAllowMethods)
		header.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		header.Set("Access-Control-Expose-Headers", RequestIDHeader)

		if r.Method == http.MethodOptions {
			header.Set("Access-Control-Max-Age", corsMaxAge)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
