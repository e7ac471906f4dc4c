package api

import (
	"context"
	"net/http"

	"github.com/Togather-Foundation/eventreg/internal/api/handlers"
	"github.com/Togather-Foundation/eventreg/internal/api/middleware"
	"github.com/Togather-Foundation/eventreg/internal/audit"
	"github.com/Togather-Foundation/eventreg/internal/config"
	"github.com/Togather-Foundation/eventreg/internal/domain/events"
	"github.com/Togather-Foundation/eventreg/internal/domain/registrations"
	"github.com/Togather-Foundation/eventreg/internal/domain/users"
	"github.com/Togather-Foundation/eventreg/internal/metrics"
	"github.com/Togather-Foundation/eventreg/internal/storage"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// BuildInfo is the build metadata reported by /version and /health.
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

// NewRouter wires the services for store into the HTTP API. ctx bounds
// background work started by the middleware (the rate limiter cleanup).
func NewRouter(ctx context.Context, cfg config.Config, store storage.Store, logger zerolog.Logger, build BuildInfo) http.Handler {
	auditLogger := audit.NewLogger(logger)

	usersService := users.NewService(store.Users(), logger)
	eventsService := events.NewService(store.Events(), logger)
	registrationsService := registrations.NewService(store, logger)

	usersHandler := handlers.NewUsersHandler(usersService, auditLogger, cfg.Environment)
	eventsHandler := handlers.NewEventsHandler(eventsService, registrationsService, auditLogger, cfg.Environment)
	registrationsHandler := handlers.NewRegistrationsHandler(registrationsService, auditLogger, cfg.Environment)
	healthChecker := handlers.NewHealthChecker(store, build.Version, build.GitCommit)

	mux := http.NewServeMux()

	mux.Handle("GET /healthz", handlers.Healthz())
	mux.Handle("GET /readyz", handlers.Readyz(store))
	mux.Handle("GET /health", healthChecker.Health())
	mux.Handle("GET /version", VersionHandler(build.Version, build.GitCommit, build.BuildDate))
	mux.Handle("GET /openapi.json", OpenAPIHandler())
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /users", usersHandler.List)
	mux.HandleFunc("POST /users", usersHandler.Create)
	mux.HandleFunc("DELETE /users", usersHandler.DeleteAll)
	mux.HandleFunc("GET /users/{username}", usersHandler.Get)
	mux.HandleFunc("DELETE /users/{username}", usersHandler.Delete)

	mux.HandleFunc("GET /events", eventsHandler.List)
	mux.HandleFunc("POST /events", eventsHandler.Create)
	mux.HandleFunc("DELETE /events", eventsHandler.DeleteAll)
	mux.HandleFunc("GET /events/{id}", eventsHandler.Get)
	mux.HandleFunc("PUT /events/{id}", eventsHandler.Update)
	mux.HandleFunc("DELETE /events/{id}", eventsHandler.Delete)
	mux.HandleFunc("POST /events/{id}/register", eventsHandler.Register)

	mux.HandleFunc("GET /registrations", registrationsHandler.List)
	mux.HandleFunc("POST /registrations", registrationsHandler.Create)
	mux.HandleFunc("DELETE /registrations", registrationsHandler.Delete)

	return chain(mux,
		chimw.Recoverer,
		middleware.CorrelationID(logger),
		middleware.Tracing,
		middleware.RequestLogging(logger),
		metrics.HTTPMiddleware,
		middleware.SecurityHeaders(cfg.IsProduction()),
		middleware.CORS(cfg.CORS, logger),
		middleware.RateLimit(ctx, cfg.RateLimit),
		middleware.RequestSize(middleware.DefaultMaxBodySize),
	)
}

// chain wraps h so that the first middleware is the outermost.
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
