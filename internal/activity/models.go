package activity

import "time"

// Actions recorded in the garden activity feed.
const (
	ActionMemberInvited = "member_invited"
	ActionMemberRemoved = "member_removed"
	ActionMemberLeft    = "member_left"
	ActionPlantAdded    = "plant_added"
	ActionPlantRemoved  = "plant_removed"
	ActionGardenEdited  = "garden_edited"
	ActionCareLogged    = "care_logged"
)

// Event is a single entry in a garden's activity feed.
type Event struct {
	ID         string    `json:"id"`
	GardenID   string    `json:"garden_id"`
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
