package handlers

import (
	"net/http"
	"time"
)

// HealthCheck reports the factory and, when enabled, Redis health
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{} "Healthy"
// @Failure 503 {object} map[string]interface{} "Distributed store unreachable"
// @Router /health [get]
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"container": h.factory.Container(),
		"managers":  len(h.factory.Managers()),
	}

	status := http.StatusOK
	if h.distributed != nil {
		if err := h.distributed.Ping(r.Context()); err != nil {
			health["status"] = "degraded"
			health["distributed"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			health["distributed"] = "healthy"
		}
	}

	writeJSON(w, status, health)
}

// GetManagers lists the engine managers started by the factory
// @Summary List cache managers
// @Tags diagnostics
// @Produce json
// @Success 200 {array} cache.ManagerInfo
// @Router /api/managers [get]
func (h *Handlers) GetManagers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.factory.Managers())
}

// GetCreators describes the creator registry and custom templates
// @Summary List creators
// @Tags diagnostics
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/creators [get]
func (h *Handlers) GetCreators(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"creators":  h.factory.Creators(),
		"templates": h.factory.Templates(),
	})
}

// GetDistributed reports the distributed backend
// @Summary Distributed backend status
// @Tags diagnostics
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errorResponse "Distributed caches disabled"
// @Router /api/distributed [get]
func (h *Handlers) GetDistributed(w http.ResponseWriter, r *http.Request) {
	if h.distributed == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "distributed caches are disabled"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"caches":  h.distributed.Names(),
		"breaker": h.distributed.BreakerStats(),
	})
}
