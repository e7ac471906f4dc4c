package middleware

import (
	"net/http"
	"strings"

	"github.com/Togather-Foundation/eventreg/internal/config"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// CORS handles Cross-Origin Resource Sharing for browser clients.
//
// With AllowAllOrigins every origin receives "Access-Control-Allow-Origin: *".
// Otherwise only origins in AllowedOrigins are echoed back; rejected origins
// are logged at warn level. The API has no cookies, so credentials are never
// allowed.
func CORS(cfg config.CORSConfig, logger zerolog.Logger) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader, "traceparent", "tracestate"},
		ExposedHeaders: []string{RequestIDHeader, "Retry-After"},
		MaxAge:         86400,
	}

	if cfg.AllowAllOrigins {
		opts.AllowedOrigins = []string{"*"}
		return cors.Handler(opts)
	}

	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		allowed[normalizeOrigin(origin)] = true
	}
	opts.AllowOriginFunc = func(r *http.Request, origin string) bool {
		if allowed[normalizeOrigin(origin)] {
			return true
		}
		logger.Warn().
			Str("origin", origin).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg("CORS request rejected: origin not in whitelist")
		return false
	}
	return cors.Handler(opts)
}

func normalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(origin)), "/")
}
