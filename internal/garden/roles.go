package garden

// Role is a garden-scoped permission level. OWNER is never stored per-user;
// it is derived by comparing the garden's owner id to the acting user.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleViewer Role = "VIEWER"
)

// ValidMemberRole reports whether r can be stored on a membership row.
// OWNER is not a storable member role.
func ValidMemberRole(r Role) bool {
	return r == RoleAdmin || r == RoleViewer
}

// Capability is a single permitted action gated by role.
type Capability string

const (
	CapView          Capability = "view"
	CapAddPlants     Capability = "add_plants"
	CapRemovePlants  Capability = "remove_plants"
	CapEditGarden    Capability = "edit_garden"
	CapManageMembers Capability = "manage_members"
	CapDeleteGarden  Capability = "delete_garden"
)

// capabilityMatrix is the fixed permission table. It is not configurable.
var capabilityMatrix = map[Capability]map[Role]bool{
	CapView:          {RoleViewer: true, RoleAdmin: true, RoleOwner: true},
	CapAddPlants:     {RoleAdmin: true, RoleOwner: true},
	CapRemovePlants:  {RoleAdmin: true, RoleOwner: true},
	CapEditGarden:    {RoleAdmin: true, RoleOwner: true},
	CapManageMembers: {RoleOwner: true},
	CapDeleteGarden:  {RoleOwner: true},
}

// HasCapability reports whether the given role grants the capability.
// An empty role (no access) grants nothing.
func HasCapability(role Role, cap Capability) bool {
	return capabilityMatrix[cap][role]
}
