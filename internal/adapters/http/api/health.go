package api

import (
	"net/http"
	"time"

	"github.com/okian/powerstream/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	sessionID string
	started   time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(sessionID string) *HealthHandler {
	return &HealthHandler{sessionID: sessionID, started: time.Now()}
}

type healthResponse struct {
	Status        string  `json:"status"`
	SessionID     string  `json:"sessionId"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

// HandleHealth handles GET /healthz requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		SessionID:     h.sessionID,
		UptimeSeconds: time.Since(h.started).Seconds(),
	})
}

// MetricsHandler serves the custom Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
