package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/florahq/trellis/internal/activity"
	"github.com/florahq/trellis/internal/auth"
	"github.com/florahq/trellis/internal/plant"
)

// reminderMetrics is the optional metrics surface for due-status serving.
type reminderMetrics interface {
	IncReminderClassification(status string)
}

// schedulesHandler groups care log and care schedule HTTP handlers.
type schedulesHandler struct {
	plants   *plant.Service
	recorder activityRecorder
	metrics  reminderMetrics
}

func newSchedulesHandler(plants *plant.Service, recorder activityRecorder, m reminderMetrics) *schedulesHandler {
	return &schedulesHandler{plants: plants, recorder: recorder, metrics: m}
}

func (h *schedulesHandler) countClassification(status string) {
	if h.metrics != nil {
		h.metrics.IncReminderClassification(status)
	}
}

// CreateCareLog handles POST /api/v1/plants/{id}/care-logs.
func (h *schedulesHandler) CreateCareLog(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	plantID := chi.URLParam(r, "id")

	var input plant.CreateCareLogInput
	if err := readJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	input.PlantID = plantID

	log, err := h.plants.LogCare(r.Context(), u.ID, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Care on a garden-shared plant shows up in that garden's feed.
	if p, perr := h.plants.Get(r.Context(), u.ID, plantID); perr == nil && p.GardenID != nil && h.recorder != nil {
		h.recorder.Record(activity.Event{
			GardenID:   *p.GardenID,
			ActorID:    u.ID,
			Action:     activity.ActionCareLogged,
			TargetType: "plant",
			TargetID:   p.ID,
			Detail:     string(log.Type),
		})
	}

	auditLog(r, "plant.log_care", "plant", plantID, "care_type", log.Type)
	writeJSON(w, http.StatusCreated, log)
}

// ListCareLogs handles GET /api/v1/plants/{id}/care-logs.
func (h *schedulesHandler) ListCareLogs(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	plantID := chi.URLParam(r, "id")

	logs, err := h.plants.ListCare(r.Context(), u.ID, plantID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if logs == nil {
		logs = []*plant.CareLog{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"care_logs": logs})
}

// UpsertSchedule handles POST /api/v1/plants/{id}/care-schedules. Re-saving
// an existing care type updates it in place rather than duplicating.
func (h *schedulesHandler) UpsertSchedule(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	plantID := chi.URLParam(r, "id")

	var input plant.UpsertScheduleInput
	if err := readJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	input.PlantID = plantID

	sched, err := h.plants.SaveSchedule(r.Context(), u.ID, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.countClassification(sched.Due.Status)
	auditLog(r, "plant.save_schedule", "plant", plantID, "care_type", sched.CareType)
	writeJSON(w, http.StatusOK, sched)
}

// ListSchedules handles GET /api/v1/plants/{id}/care-schedules.
func (h *schedulesHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	plantID := chi.URLParam(r, "id")

	scheds, err := h.plants.ListSchedules(r.Context(), u.ID, plantID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if scheds == nil {
		scheds = []*plant.ScheduleWithStatus{}
	}

	for _, s := range scheds {
		h.countClassification(s.Due.Status)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"care_schedules": scheds})
}

// UpcomingCare handles GET /api/v1/care/upcoming. It returns every enabled
// schedule on the caller's active plants, classified and sorted soonest first.
func (h *schedulesHandler) UpcomingCare(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())

	items, err := h.plants.UpcomingCare(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []*plant.OwnerSchedule{}
	}

	for _, it := range items {
		h.countClassification(it.Due.Status)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"upcoming": items})
}

// CareTypes handles GET /api/v1/care/types, returning the known care types
// with their suggested interval presets.
func (h *schedulesHandler) CareTypes(w http.ResponseWriter, r *http.Request) {
	types := []plant.CareType{
		plant.CareWatering,
		plant.CareFertilizing,
		plant.CareRepotting,
		plant.CarePruning,
		plant.CarePestTreatment,
		plant.CareOther,
	}

	out := make([]map[string]interface{}, 0, len(types))
	for _, ct := range types {
		out = append(out, map[string]interface{}{
			"care_type":          ct,
			"suggested_intervals": plant.SuggestedIntervals(ct),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"care_types": out})
}
