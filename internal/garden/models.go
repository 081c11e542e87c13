package garden

import "time"

// Garden is a named, shared collection of plants with exactly one owner.
type Garden struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GardenWithRole pairs a garden with the viewing user's effective role.
type GardenWithRole struct {
	*Garden
	Role Role `json:"role"`
}

// Member is a stored membership row granting a non-owner user a role.
// The owner never appears as a Member; it is presented separately.
type Member struct {
	GardenID  string    `json:"garden_id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	InvitedAt time.Time `json:"invited_at"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Image     string    `json:"image,omitempty"`
}

// OwnerEntry is the owner's non-removable entry in a member listing.
type OwnerEntry struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Image  string `json:"image,omitempty"`
}

// MemberList is the response shape for listing a garden's participants.
type MemberList struct {
	Owner   *OwnerEntry `json:"owner"`
	Members []*Member   `json:"members"`
}

// CreateGardenInput holds the fields required to create a garden.
type CreateGardenInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     string `json:"-"`
}

// UpdateGardenInput holds optional fields for a partial garden update.
type UpdateGardenInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// InviteInput holds the fields for inviting a member by email.
type InviteInput struct {
	Email string `json:"email"`
	Role  Role   `json:"member_role"`
}
