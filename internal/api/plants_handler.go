package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/florahq/trellis/internal/activity"
	"github.com/florahq/trellis/internal/auth"
	"github.com/florahq/trellis/internal/garden"
	"github.com/florahq/trellis/internal/identify"
	"github.com/florahq/trellis/internal/plant"
)

// integrationMetrics is the optional metrics surface for outbound API calls.
type integrationMetrics interface {
	IncIntegrationRequest(integration, status string)
}

// plantsHandler groups plant HTTP handlers.
type plantsHandler struct {
	plants     *plant.Service
	gardens    *garden.Service
	identifier *identify.Client
	recorder   activityRecorder
	metrics    integrationMetrics
}

func newPlantsHandler(plants *plant.Service, gardens *garden.Service, identifier *identify.Client, recorder activityRecorder, m integrationMetrics) *plantsHandler {
	return &plantsHandler{
		plants:     plants,
		gardens:    gardens,
		identifier: identifier,
		recorder:   recorder,
		metrics:    m,
	}
}

func (h *plantsHandler) record(ev activity.Event) {
	if h.recorder != nil {
		h.recorder.Record(ev)
	}
}

// CreatePlant handles POST /api/v1/plants.
func (h *plantsHandler) CreatePlant(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())

	var input plant.CreatePlantInput
	if err := readJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	p, err := h.plants.Create(r.Context(), u.ID, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "plant.create", "plant", p.ID)
	writeJSON(w, http.StatusCreated, p)
}

// ListPlants handles GET /api/v1/plants, returning active plants owned by the caller.
func (h *plantsHandler) ListPlants(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())

	plants, err := h.plants.List(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if plants == nil {
		plants = []*plant.Plant{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"plants": plants})
}

// GetPlant handles GET /api/v1/plants/{id}.
func (h *plantsHandler) GetPlant(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	plantID := chi.URLParam(r, "id")

	p, err := h.plants.Get(r.Context(), u.ID, plantID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// UpdatePlant handles PUT /api/v1/plants/{id}. Only the plant's owner may
// edit core fields, regardless of garden roles.
func (h *plantsHandler) UpdatePlant(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	plantID := chi.URLParam(r, "id")

	var input plant.UpdatePlantInput
	if err := readJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	p, err := h.plants.Update(r.Context(), u.ID, plantID, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "plant.update", "plant", p.ID)
	writeJSON(w, http.StatusOK, p)
}

// DeletePlant handles DELETE /api/v1/plants/{id} (soft delete).
func (h *plantsHandler) DeletePlant(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	plantID := chi.URLParam(r, "id")

	if err := h.plants.Delete(r.Context(), u.ID, plantID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "plant.delete", "plant", plantID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ListGardenPlants handles GET /api/v1/gardens/{id}/plants.
func (h *plantsHandler) ListGardenPlants(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	gardenID := chi.URLParam(r, "id")

	plants, err := h.gardens.Plants(r.Context(), u.ID, gardenID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if plants == nil {
		plants = []*plant.Plant{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"plants": plants})
}

// AddPlantToGarden handles POST /api/v1/gardens/{id}/plants with body {plant_id}.
func (h *plantsHandler) AddPlantToGarden(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	gardenID := chi.URLParam(r, "id")

	var req struct {
		PlantID string `json:"plant_id"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.PlantID == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "plant_id is required")
		return
	}

	p, err := h.gardens.AddPlant(r.Context(), u.ID, gardenID, req.PlantID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.record(activity.Event{
		GardenID:   gardenID,
		ActorID:    u.ID,
		Action:     activity.ActionPlantAdded,
		TargetType: "plant",
		TargetID:   p.ID,
		Detail:     p.Name,
	})
	auditLog(r, "garden.add_plant", "garden", gardenID, "plant_id", p.ID)
	writeJSON(w, http.StatusOK, p)
}

// RemovePlantFromGarden handles DELETE /api/v1/gardens/{id}/plants with body {plant_id}.
func (h *plantsHandler) RemovePlantFromGarden(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	gardenID := chi.URLParam(r, "id")

	var req struct {
		PlantID string `json:"plant_id"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.PlantID == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "plant_id is required")
		return
	}

	p, err := h.gardens.RemovePlant(r.Context(), u.ID, gardenID, req.PlantID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.record(activity.Event{
		GardenID:   gardenID,
		ActorID:    u.ID,
		Action:     activity.ActionPlantRemoved,
		TargetType: "plant",
		TargetID:   p.ID,
		Detail:     p.Name,
	})
	auditLog(r, "garden.remove_plant", "garden", gardenID, "plant_id", p.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// IdentifyPlant handles POST /api/v1/plants/identify with body {image} (base64).
// The identification service is optional; when unconfigured this endpoint
// reports the feature as unavailable rather than failing CRUD paths.
func (h *plantsHandler) IdentifyPlant(w http.ResponseWriter, r *http.Request) {
	if h.identifier == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "plant identification is not configured")
		return
	}

	var req struct {
		Image string `json:"image"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "image is required")
		return
	}

	suggestions, err := h.identifier.Identify(r.Context(), req.Image)
	if err != nil {
		if h.metrics != nil {
			h.metrics.IncIntegrationRequest("identify", "error")
		}
		writeError(w, http.StatusBadGateway, "upstream_error", "identification service failed")
		return
	}

	if h.metrics != nil {
		h.metrics.IncIntegrationRequest("identify", "ok")
	}
	if suggestions == nil {
		suggestions = []identify.Suggestion{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}
