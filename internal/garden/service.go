package garden

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/florahq/trellis/internal/plant"
)

// Errors returned by the Service layer. Handlers map ErrNotFound-family
// errors to 404 so existence is never revealed to users without a role.
var (
	ErrNotFound         = errors.New("garden not found")
	ErrForbidden        = errors.New("insufficient role for this action")
	ErrUserNotFound     = errors.New("no user with that email")
	ErrAlreadyOwner     = errors.New("user is the garden owner")
	ErrAlreadyMember    = errors.New("user is already a member")
	ErrMemberNotFound   = errors.New("user is not a member of this garden")
	ErrOwnerCannotLeave = errors.New("owner cannot leave; delete the garden instead")
	ErrInvalidRole      = errors.New("member role must be VIEWER or ADMIN")
	ErrPlantNotOwned    = errors.New("plant not found")
	ErrPlantNotInGarden = errors.New("plant is not in this garden")
)

// ValidationErrors aggregates per-field input problems.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return strings.Join(msgs, "; ")
}

// UserRef is the minimal user projection used when resolving invitees.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

// GardenStore is the persistence interface consumed by the Service.
type GardenStore interface {
	Create(ctx context.Context, input CreateGardenInput) (*Garden, error)
	GetByID(ctx context.Context, id string) (*Garden, error)
	Update(ctx context.Context, id string, input UpdateGardenInput) (*Garden, error)
	DeleteCascade(ctx context.Context, id string) error
	ListForUser(ctx context.Context, userID string) ([]*GardenWithRole, error)
	ResolveRole(ctx context.Context, userID, gardenID string) (Role, error)
	AddMember(ctx context.Context, gardenID, userID string, role Role) (*Member, error)
	RemoveMember(ctx context.Context, gardenID, userID string) error
	ListMembers(ctx context.Context, gardenID string) ([]*Member, error)
	GetOwnerEntry(ctx context.Context, gardenID string) (*OwnerEntry, error)
	FindUserByEmail(ctx context.Context, email string) (*UserRef, error)
}

// PlantDirectory is the slice of the plant store the garden service needs for
// attaching and detaching plants. Assignments change garden_id only.
type PlantDirectory interface {
	GetActive(ctx context.Context, id string) (*plant.Plant, error)
	SetGarden(ctx context.Context, id string, gardenID *string) (*plant.Plant, error)
	ListByGarden(ctx context.Context, gardenID string) ([]*plant.Plant, error)
}

// PermissionMetrics is an optional interface for counting denied capability
// checks.
type PermissionMetrics interface {
	IncPermissionDenial(capability string)
}

// Service implements the garden collaboration rules on top of the store.
// Every mutating operation resolves the acting user's role before touching
// state; role lookups are never cached across calls.
type Service struct {
	store   GardenStore
	plants  PlantDirectory
	metrics PermissionMetrics
}

// NewService creates a new Service.
func NewService(store GardenStore, plants PlantDirectory) *Service {
	return &Service{store: store, plants: plants}
}

// SetMetrics sets the optional permission metrics recorder.
func (s *Service) SetMetrics(m PermissionMetrics) {
	s.metrics = m
}

// Create validates the input and creates a garden owned by the acting user.
func (s *Service) Create(ctx context.Context, actorID string, input CreateGardenInput) (*Garden, error) {
	if errs := ValidateGardenData(input.Name, input.Description); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	input.Name = strings.TrimSpace(input.Name)
	input.OwnerID = actorID
	return s.store.Create(ctx, input)
}

// Get returns the garden with the acting user's role, or ErrNotFound when the
// user has no role (indistinguishable from a missing garden).
func (s *Service) Get(ctx context.Context, actorID, gardenID string) (*GardenWithRole, error) {
	role, err := s.requireRole(ctx, actorID, gardenID, CapView)
	if err != nil {
		return nil, err
	}
	g, err := s.store.GetByID(ctx, gardenID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &GardenWithRole{Garden: g, Role: role}, nil
}

// ListMine returns all gardens the acting user owns or belongs to.
func (s *Service) ListMine(ctx context.Context, actorID string) ([]*GardenWithRole, error) {
	return s.store.ListForUser(ctx, actorID)
}

// Update edits name/description. Requires edit_garden (ADMIN or OWNER).
func (s *Service) Update(ctx context.Context, actorID, gardenID string, input UpdateGardenInput) (*Garden, error) {
	if _, err := s.requireRole(ctx, actorID, gardenID, CapEditGarden); err != nil {
		return nil, err
	}
	var errs []FieldError
	if input.Name != nil {
		if fe := ValidateGardenName(*input.Name); fe != nil {
			errs = append(errs, *fe)
		} else {
			trimmed := strings.TrimSpace(*input.Name)
			input.Name = &trimmed
		}
	}
	if input.Description != nil {
		if fe := ValidateGardenDescription(*input.Description); fe != nil {
			errs = append(errs, *fe)
		}
	}
	if len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	g, err := s.store.Update(ctx, gardenID, input)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

// Delete removes the garden. OWNER only. Member plants are detached, never
// deleted; the store performs the cascade in one transaction.
func (s *Service) Delete(ctx context.Context, actorID, gardenID string) error {
	if _, err := s.requireRole(ctx, actorID, gardenID, CapDeleteGarden); err != nil {
		return err
	}
	err := s.store.DeleteCascade(ctx, gardenID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Invite adds a user as a member by email. OWNER only. The role defaults to
// VIEWER; only VIEWER and ADMIN are accepted. The pre-checks produce friendly
// conflict errors, while the store's unique constraint guards against races.
func (s *Service) Invite(ctx context.Context, actorID, gardenID string, input InviteInput) (*Member, error) {
	if _, err := s.requireRole(ctx, actorID, gardenID, CapManageMembers); err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = RoleViewer
	}
	if !ValidMemberRole(role) {
		return nil, ErrInvalidRole
	}

	target, err := s.store.FindUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("resolving invitee: %w", err)
	}

	switch existing, err := s.store.ResolveRole(ctx, target.ID, gardenID); {
	case err != nil:
		return nil, err
	case existing == RoleOwner:
		return nil, ErrAlreadyOwner
	case existing != "":
		return nil, ErrAlreadyMember
	}

	return s.store.AddMember(ctx, gardenID, target.ID, role)
}

// Members lists the owner (as a separate, non-removable entry) plus all
// stored members ordered by invitation time. Requires any role.
func (s *Service) Members(ctx context.Context, actorID, gardenID string) (*MemberList, error) {
	if _, err := s.requireRole(ctx, actorID, gardenID, CapView); err != nil {
		return nil, err
	}
	owner, err := s.store.GetOwnerEntry(ctx, gardenID)
	if err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, gardenID)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []*Member{}
	}
	return &MemberList{Owner: owner, Members: members}, nil
}

// RemoveMember removes targetID from the garden. Self-removal (leaving) is
// always allowed for members of any role; removing someone else requires
// manage_members. The owner cannot be removed through this path.
func (s *Service) RemoveMember(ctx context.Context, actorID, gardenID, targetID string) error {
	actorRole, err := s.store.ResolveRole(ctx, actorID, gardenID)
	if err != nil {
		return err
	}
	if actorRole == "" {
		return ErrNotFound
	}

	if actorID == targetID {
		if actorRole == RoleOwner {
			return ErrOwnerCannotLeave
		}
	} else if !HasCapability(actorRole, CapManageMembers) {
		if s.metrics != nil {
			s.metrics.IncPermissionDenial(string(CapManageMembers))
		}
		return ErrForbidden
	}

	err = s.store.RemoveMember(ctx, gardenID, targetID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrMemberNotFound
	}
	return err
}

// Leave removes the acting user's own membership.
func (s *Service) Leave(ctx context.Context, actorID, gardenID string) error {
	return s.RemoveMember(ctx, actorID, gardenID, actorID)
}

// AddPlant places a plant in the garden. Requires add_plants, and the plant
// must be owned by the acting user: an ADMIN cannot add a co-member's plant.
// A plant already in another garden is re-assigned.
func (s *Service) AddPlant(ctx context.Context, actorID, gardenID, plantID string) (*plant.Plant, error) {
	if _, err := s.requireRole(ctx, actorID, gardenID, CapAddPlants); err != nil {
		return nil, err
	}
	p, err := s.plants.GetActive(ctx, plantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlantNotOwned
		}
		return nil, err
	}
	if p.OwnerID != actorID {
		return nil, ErrPlantNotOwned
	}
	return s.plants.SetGarden(ctx, plantID, &gardenID)
}

// RemovePlant detaches a plant from the garden. Requires remove_plants; the
// plant must currently belong to this garden.
func (s *Service) RemovePlant(ctx context.Context, actorID, gardenID, plantID string) (*plant.Plant, error) {
	if _, err := s.requireRole(ctx, actorID, gardenID, CapRemovePlants); err != nil {
		return nil, err
	}
	p, err := s.plants.GetActive(ctx, plantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlantNotInGarden
		}
		return nil, err
	}
	if p.GardenID == nil || *p.GardenID != gardenID {
		return nil, ErrPlantNotInGarden
	}
	return s.plants.SetGarden(ctx, plantID, nil)
}

// Plants lists the garden's active plants. Requires any role.
func (s *Service) Plants(ctx context.Context, actorID, gardenID string) ([]*plant.Plant, error) {
	if _, err := s.requireRole(ctx, actorID, gardenID, CapView); err != nil {
		return nil, err
	}
	return s.plants.ListByGarden(ctx, gardenID)
}

// requireRole resolves the acting user's role and checks the capability. No
// role at all maps to ErrNotFound so the garden's existence stays hidden; a
// resolved role without the capability maps to ErrForbidden.
func (s *Service) requireRole(ctx context.Context, actorID, gardenID string, cap Capability) (Role, error) {
	role, err := s.store.ResolveRole(ctx, actorID, gardenID)
	if err != nil {
		return "", err
	}
	if role == "" {
		return "", ErrNotFound
	}
	if !HasCapability(role, cap) {
		if s.metrics != nil {
			s.metrics.IncPermissionDenial(string(cap))
		}
		return "", ErrForbidden
	}
	return role, nil
}
