package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HealthCheck names a dependency probe for the health endpoint.
type HealthCheck struct {
	Name  string
	Probe func(ctx context.Context, timeout time.Duration) error
}

// NewHealthHandler serves a JSON liveness report: 200 when every probe
// passes, 503 with per-check detail otherwise.
func NewHealthHandler(timeout time.Duration, logger *zap.Logger, checks ...HealthCheck) http.HandlerFunc {
	type report struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		rep := report{Status: "ok", Checks: make(map[string]string, len(checks))}
		code := http.StatusOK

		for _, c := range checks {
			if err := c.Probe(r.Context(), timeout); err != nil {
				rep.Status = "degraded"
				rep.Checks[c.Name] = err.Error()
				code = http.StatusServiceUnavailable
				logger.Warn("health check failed",
					zap.String("check", c.Name), zap.Error(err))
				continue
			}
			rep.Checks[c.Name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(rep)
	}
}
