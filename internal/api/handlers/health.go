package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HealthCheck represents the health status of the server
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status    string                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	LatencyMs int64                  `json:"latency_ms,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// StoreChecker is the part of the store the health checks need.
type StoreChecker interface {
	Ping(ctx context.Context) error
	Backend() string
	SchemaVersion(ctx context.Context) (version uint, dirty bool, err error)
}

// HealthChecker provides comprehensive health checks for the server
type HealthChecker struct {
	store     StoreChecker
	version   string
	gitCommit string
}

// NewHealthChecker creates a new health checker with the given dependencies
func NewHealthChecker(store StoreChecker, version, gitCommit string) *HealthChecker {
	return &HealthChecker{
		store:     store,
		version:   version,
		gitCommit: gitCommit,
	}
}

// Health returns a comprehensive health check handler
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"})
			return
		default:
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]CheckResult{
			"database":   h.checkDatabase(ctx),
			"migrations": h.checkMigrations(ctx),
		}

		overallStatus := "healthy"
		statusCode := http.StatusOK
		for _, check := range checks {
			if check.Status == "fail" {
				overallStatus = "unhealthy"
				statusCode = http.StatusServiceUnavailable
				break
			} else if check.Status == "warn" && overallStatus == "healthy" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, statusCode, HealthCheck{
			Status:    overallStatus,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Checks:    checks,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// checkDatabase verifies the store answers a ping
func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	if h.store == nil {
		return CheckResult{
			Status:  "fail",
			Message: "Store not initialized",
			Details: map[string]interface{}{
				"remediation": "Check DATABASE_URL",
			},
		}
	}

	start := time.Now()
	dbCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	err := h.store.Ping(dbCtx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		message := "Database ping failed"
		if dbCtx.Err() == context.DeadlineExceeded {
			message = "Database ping timed out after 2 seconds"
		}
		return CheckResult{
			Status:    "fail",
			Message:   message,
			LatencyMs: latency,
			Details: map[string]interface{}{
				"backend": h.store.Backend(),
				"error":   err.Error(),
			},
		}
	}

	return CheckResult{
		Status:    "pass",
		Message:   "Database connection successful",
		LatencyMs: latency,
		Details: map[string]interface{}{
			"backend": h.store.Backend(),
		},
	}
}

// checkMigrations verifies the schema is applied and clean
func (h *HealthChecker) checkMigrations(ctx context.Context) CheckResult {
	if h.store == nil {
		return CheckResult{Status: "fail", Message: "Store not initialized"}
	}

	start := time.Now()
	migCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	version, dirty, err := h.store.SchemaVersion(migCtx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return CheckResult{
			Status:    "fail",
			Message:   "Failed to read migration version",
			LatencyMs: latency,
			Details: map[string]interface{}{
				"error":       err.Error(),
				"remediation": "Run: server migrate up",
			},
		}
	}

	if dirty {
		return CheckResult{
			Status:    "fail",
			Message:   "Database in dirty migration state - manual intervention required",
			LatencyMs: latency,
			Details: map[string]interface{}{
				"version": version,
				"dirty":   dirty,
				"action":  "Do NOT run new migrations until this is resolved",
			},
		}
	}

	if version == 0 {
		return CheckResult{
			Status:    "fail",
			Message:   "No migrations applied",
			LatencyMs: latency,
			Details: map[string]interface{}{
				"remediation": "Run: server migrate up",
			},
		}
	}

	return CheckResult{
		Status:    "pass",
		Message:   fmt.Sprintf("Migrations applied successfully (version %d)", version),
		LatencyMs: latency,
		Details: map[string]interface{}{
			"version": version,
			"dirty":   false,
		},
	}
}

// Healthz returns a lightweight liveness response
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondHealth(w, http.StatusOK, "ok")
	})
}

// Readyz reports ready once the store answers a ping
func Readyz(store StoreChecker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			respondHealth(w, http.StatusServiceUnavailable, "not_ready")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			respondHealth(w, http.StatusServiceUnavailable, "not_ready")
			return
		}
		respondHealth(w, http.StatusOK, "ready")
	})
}

type healthResponse struct {
	Status string `json:"status"`
}

func respondHealth(w http.ResponseWriter, status int, value string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(healthResponse{Status: value})
}
