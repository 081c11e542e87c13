package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/florahq/trellis/internal/activity"
	"github.com/florahq/trellis/internal/auth"
	"github.com/florahq/trellis/internal/garden"
)

// maxActivityLimit caps the page size for activity feed listings.
const maxActivityLimit = 200

// activityRecorder is the interface used to record garden activity events.
// Recording is fire-and-forget; handlers never fail on it.
type activityRecorder interface {
	Record(ev activity.Event)
}

// gardensHandler groups garden HTTP handlers.
type gardensHandler struct {
	gardens  *garden.Service
	feed     *activity.Store
	recorder activityRecorder
}

func newGardensHandler(gardens *garden.Service, feed *activity.Store, recorder activityRecorder) *gardensHandler {
	return &gardensHandler{
		gardens:  gardens,
		feed:     feed,
		recorder: recorder,
	}
}

func (h *gardensHandler) record(ev activity.Event) {
	if h.recorder != nil {
		h.recorder.Record(ev)
	}
}

// CreateGarden handles POST /api/v1/gardens.
func (h *gardensHandler) CreateGarden(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())

	var input garden.CreateGardenInput
	if err := readJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	g, err := h.gardens.Create(r.Context(), u.ID, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "garden.create", "garden", g.ID)
	writeJSON(w, http.StatusCreated, g)
}

// ListGardens handles GET /api/v1/gardens, returning gardens the caller
// owns or is a member of.
func (h *gardensHandler) ListGardens(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())

	gardens, err := h.gardens.ListMine(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if gardens == nil {
		gardens = []*garden.GardenWithRole{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"gardens": gardens})
}

// GetGarden handles GET /api/v1/gardens/{id}.
func (h *gardensHandler) GetGarden(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	gardenID := chi.URLParam(r, "id")

	g, err := h.gardens.Get(r.Context(), u.ID, gardenID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, g)
}

// UpdateGarden handles PUT /api/v1/gardens/{id}.
func (h *gardensHandler) UpdateGarden(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	gardenID := chi.URLParam(r, "id")

	var input garden.UpdateGardenInput
	if err := readJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	g, err := h.gardens.Update(r.Context(), u.ID, gardenID, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.record(activity.Event{
		GardenID:   g.ID,
		ActorID:    u.ID,
		Action:     activity.ActionGardenEdited,
		TargetType: "garden",
		TargetID:   g.ID,
	})
	auditLog(r, "garden.update", "garden", g.ID)
	writeJSON(w, http.StatusOK, g)
}

// DeleteGarden handles DELETE /api/v1/gardens/{id}. Member rows go with the
// garden; plants are detached, never deleted.
func (h *gardensHandler) DeleteGarden(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	gardenID := chi.URLParam(r, "id")

	if err := h.gardens.Delete(r.Context(), u.ID, gardenID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	auditLog(r, "garden.delete", "garden", gardenID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ListActivity handles GET /api/v1/gardens/{id}/activity.
func (h *gardensHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	gardenID := chi.URLParam(r, "id")

	// Any role may read the feed; the Get call enforces view access and
	// returns not-found when the caller has no role.
	if _, err := h.gardens.Get(r.Context(), u.ID, gardenID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "validation_error", "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	events, err := h.feed.ListByGarden(r.Context(), gardenID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if events == nil {
		events = []*activity.Event{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}
