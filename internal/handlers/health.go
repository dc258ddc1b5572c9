package handlers

import (
	"net/http"
	"time"
)

// Health reports liveness plus the state of the backing store. The service
// stays up when Redis is down, so a degraded store reports 200 with
// cache_store "unhealthy" rather than failing the check.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"jobs_in_flight": h.coordinator.InFlight(),
	}

	if h.redis != nil {
		if err := h.redis.Health(); err != nil {
			body["cache_store"] = "unhealthy"
		} else {
			body["cache_store"] = "healthy"
		}
	} else {
		body["cache_store"] = "local-only"
	}

	writeJSON(w, http.StatusOK, body)
}

// CacheStats exposes cache tier counters for operators.
func (h *Handlers) CacheStats(w http.ResponseWriter, r *http.Request) {
	localEntries, storeHealthy := h.cache.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"local_entries":  localEntries,
		"store_healthy":  storeHealthy,
		"store_attached": h.redis != nil,
	})
}

// ClearCache drops every cached artifact across both tiers. Debug operation
// for operators; regular invalidation is per-article.
func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.cache.Clear(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
