package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/florahq/trellis/internal/activity"
	"github.com/florahq/trellis/internal/auth"
	"github.com/florahq/trellis/internal/garden"
)

// membersHandler groups garden membership HTTP handlers.
type membersHandler struct {
	gardens  *garden.Service
	recorder activityRecorder
}

func newMembersHandler(gardens *garden.Service, recorder activityRecorder) *membersHandler {
	return &membersHandler{gardens: gardens, recorder: recorder}
}

func (h *membersHandler) record(ev activity.Event) {
	if h.recorder != nil {
		h.recorder.Record(ev)
	}
}

// ListMembers handles GET /api/v1/gardens/{id}/members.
func (h *membersHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	gardenID := chi.URLParam(r, "id")

	list, err := h.gardens.Members(r.Context(), u.ID, gardenID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list.Members == nil {
		list.Members = []*garden.Member{}
	}

	writeJSON(w, http.StatusOK, list)
}

// InviteMember handles POST /api/v1/gardens/{id}/members.
func (h *membersHandler) InviteMember(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	gardenID := chi.URLParam(r, "id")

	var input garden.InviteInput
	if err := readJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if input.Email == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "email is required")
		return
	}

	member, err := h.gardens.Invite(r.Context(), u.ID, gardenID, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.record(activity.Event{
		GardenID:   gardenID,
		ActorID:    u.ID,
		Action:     activity.ActionMemberInvited,
		TargetType: "user",
		TargetID:   member.UserID,
		Detail:     string(member.Role),
	})
	auditLog(r, "garden.invite_member", "garden", gardenID, "member_id", member.UserID, "member_role", member.Role)
	writeJSON(w, http.StatusCreated, member)
}

// RemoveMember handles DELETE /api/v1/gardens/{id}/members/{userID}.
// Any member may remove themselves; removing others requires the owner.
func (h *membersHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	gardenID := chi.URLParam(r, "id")
	targetID := chi.URLParam(r, "userID")

	if err := h.gardens.RemoveMember(r.Context(), u.ID, gardenID, targetID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	action := activity.ActionMemberRemoved
	if targetID == u.ID {
		action = activity.ActionMemberLeft
	}
	h.record(activity.Event{
		GardenID:   gardenID,
		ActorID:    u.ID,
		Action:     action,
		TargetType: "user",
		TargetID:   targetID,
	})
	auditLog(r, "garden.remove_member", "garden", gardenID, "member_id", targetID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Leave handles POST /api/v1/gardens/{id}/leave.
func (h *membersHandler) Leave(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	gardenID := chi.URLParam(r, "id")

	if err := h.gardens.Leave(r.Context(), u.ID, gardenID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.record(activity.Event{
		GardenID:   gardenID,
		ActorID:    u.ID,
		Action:     activity.ActionMemberLeft,
		TargetType: "user",
		TargetID:   u.ID,
	})
	auditLog(r, "garden.leave", "garden", gardenID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
