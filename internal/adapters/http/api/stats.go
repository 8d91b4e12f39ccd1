package api

import (
	"context"
	"net/http"

	"github.com/okian/powerstream/internal/domain/types"
)

// StatsHandler handles stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.statsProvider.GetStats())
}

// InstanceLister lists instance summaries.
type InstanceLister interface {
	Instances(ctx context.Context) []types.InstanceSummary
}

// InstancesHandler handles GET /instances.
type InstancesHandler struct {
	lister InstanceLister
}

// NewInstancesHandler creates a new instances handler.
func NewInstancesHandler(lister InstanceLister) *InstancesHandler {
	return &InstancesHandler{lister: lister}
}

type instancesResponse struct {
	Instances []types.InstanceSummary `json:"instances"`
}

// HandleInstances handles GET /instances requests.
func (h *InstancesHandler) HandleInstances(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, instancesResponse{Instances: h.lister.Instances(r.Context())})
}
