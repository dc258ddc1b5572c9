// Package handlers implements the HTTP API surface.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"news-enricher/internal/cache"
	apperrors "news-enricher/internal/common/errors"
	"news-enricher/internal/config"
	"news-enricher/internal/enrichment"
	"news-enricher/internal/jobs"
	"news-enricher/internal/redis"
)

type Handlers struct {
	service     *enrichment.Service
	coordinator *jobs.Coordinator
	cache       *cache.TieredCache
	redis       *redis.Client // nil when running cache-local only
	config      *config.Config
	startedAt   time.Time
	threshold   float64
}

func New(service *enrichment.Service, coordinator *jobs.Coordinator, tc *cache.TieredCache, redisClient *redis.Client, cfg *config.Config) *Handlers {
	return &Handlers{
		service:     service,
		coordinator: coordinator,
		cache:       tc,
		redis:       redisClient,
		config:      cfg,
		startedAt:   time.Now(),
		threshold:   cfg.SimilarityThresholdValue(),
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps the error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperrors.IsType(err, apperrors.ErrTypeInvalidIdentifier):
		status = http.StatusBadRequest
	case apperrors.IsType(err, apperrors.ErrTypeNotFound):
		status = http.StatusNotFound
	case apperrors.IsType(err, apperrors.ErrTypeRateLimit):
		status = http.StatusTooManyRequests
	case apperrors.IsType(err, apperrors.ErrTypeGenerationTimeout):
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
