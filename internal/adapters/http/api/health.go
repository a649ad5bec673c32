package api

import (
	"net/http"

	"github.com/okian/copa/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsProvider reports service counters for GET /stats.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// opsHandler serves the operational endpoints: the prometheus registry on
// /healthz and the service counters on /stats.
type opsHandler struct {
	stats   StatsProvider
	metrics http.Handler
}

func newOpsHandler(stats StatsProvider) *opsHandler {
	return &opsHandler{
		stats:   stats,
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

func (h *opsHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

func (h *opsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.GetStats())
}
