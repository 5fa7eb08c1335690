package handler

import (
	"context"
	"net/http"
	"time"
)

// readyTimeout bounds the dependency checks run by Readyz.
const readyTimeout = 3 * time.Second

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	postgres HealthChecker
	redis    HealthChecker
}

// NewHealthHandler creates a new HealthHandler. A nil checker is reported
// as "not configured" and does not fail readiness.
func NewHealthHandler(postgres, redis HealthChecker) *HealthHandler {
	return &HealthHandler{postgres: postgres, redis: redis}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz reports liveness. It never touches dependencies.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz pings the record store and the cache and returns 200 only when
// both answer.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, 2)}
	status := http.StatusOK

	for name, checker := range map[string]HealthChecker{"postgres": h.postgres, "redis": h.redis} {
		result := ping(ctx, checker)
		resp.Checks[name] = result
		if result != "ok" && result != "not configured" {
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, resp)
}

func ping(ctx context.Context, checker HealthChecker) string {
	if checker == nil {
		return "not configured"
	}
	if err := checker.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
