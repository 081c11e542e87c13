package api

import (
	"errors"
	"net/http"

	"github.com/florahq/trellis/internal/weather"
)

// weatherHandler serves weather advisories for outdoor plants.
type weatherHandler struct {
	client  *weather.Client
	metrics integrationMetrics
}

func newWeatherHandler(client *weather.Client, m integrationMetrics) *weatherHandler {
	return &weatherHandler{client: client, metrics: m}
}

// Advisories handles GET /api/v1/weather/advisories?location=<query>.
// The weather integration is optional; when unconfigured this endpoint
// reports the feature as unavailable.
func (h *weatherHandler) Advisories(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "weather advisories are not configured")
		return
	}

	query := r.URL.Query().Get("location")
	if query == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "location query parameter is required")
		return
	}

	loc, err := h.client.Geocode(r.Context(), query)
	if err != nil {
		if errors.Is(err, weather.ErrNoMatch) {
			writeError(w, http.StatusNotFound, "not_found", "no location matched that query")
			return
		}
		if h.metrics != nil {
			h.metrics.IncIntegrationRequest("weather", "error")
		}
		writeError(w, http.StatusBadGateway, "upstream_error", "failed to resolve location")
		return
	}

	conditions, err := h.client.Current(r.Context(), loc.Latitude, loc.Longitude)
	if err != nil {
		if h.metrics != nil {
			h.metrics.IncIntegrationRequest("weather", "error")
		}
		writeError(w, http.StatusBadGateway, "upstream_error", "failed to fetch current conditions")
		return
	}

	if h.metrics != nil {
		h.metrics.IncIntegrationRequest("weather", "ok")
	}

	advisories := weather.Advisories(conditions)
	if advisories == nil {
		advisories = []weather.Advisory{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"location":   loc,
		"conditions": conditions,
		"advisories": advisories,
	})
}
