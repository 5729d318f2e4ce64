package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/upb/casting-agency/app"
	"github.com/upb/casting-agency/utils"
)

// readinessTimeout bounds the key-set fetch a readiness probe may trigger
const readinessTimeout = 2 * time.Second

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck reports that the process is serving
func HealthCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// ReadinessCheck reports ready once signing keys are loaded, fetching them if
// the cache is still empty
func ReadinessCheck(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]string)
		status, httpStatus := "ready", http.StatusOK

		if set := deps.KeySet.Snapshot(); set != nil && set.Len() > 0 {
			checks["jwks"] = "loaded"
		} else {
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			defer cancel()

			set, err := deps.KeySet.Refresh(ctx)
			switch {
			case err != nil:
				deps.Logger.Warn("key set readiness check failed", zap.Error(err))
				checks["jwks"] = "unavailable"
				status, httpStatus = "not_ready", http.StatusServiceUnavailable
			case set.Len() == 0:
				checks["jwks"] = "empty"
				status, httpStatus = "not_ready", http.StatusServiceUnavailable
			default:
				checks["jwks"] = "loaded"
			}
		}

		_ = utils.WriteJSON(w, httpStatus, HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    checks,
		})
	}
}
