package plant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// Validation errors returned by the Service layer.
var (
	ErrNotFound           = errors.New("plant not found")
	ErrNameRequired       = errors.New("name is required")
	ErrInvalidLocation    = errors.New("location must be INDOOR or OUTDOOR")
	ErrInvalidCareType    = errors.New("care_type must be one of: WATERING, FERTILIZING, REPOTTING, PRUNING, PEST_TREATMENT, OTHER")
	ErrIntervalOutOfRange = errors.New("interval_days must be between 1 and 365")
)

// PlantStore is the persistence interface consumed by the Service. It exists
// to allow testing the ownership and validation rules without a database.
type PlantStore interface {
	Create(ctx context.Context, input CreatePlantInput) (*Plant, error)
	GetActive(ctx context.Context, id string) (*Plant, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Plant, error)
	Update(ctx context.Context, id string, input UpdatePlantInput) (*Plant, error)
	SoftDelete(ctx context.Context, id string) error
	CreateCareLog(ctx context.Context, input CreateCareLogInput) (*CareLog, error)
	ListCareLogs(ctx context.Context, plantID string) ([]*CareLog, error)
	UpsertSchedule(ctx context.Context, input UpsertScheduleInput) (*CareSchedule, error)
	ListSchedules(ctx context.Context, plantID string) ([]*CareSchedule, error)
	ListSchedulesForOwner(ctx context.Context, ownerID string) ([]*OwnerSchedule, error)
}

// Service provides ownership-scoped business logic over the plant store.
// Garden-based read access is handled separately by the garden package; every
// operation here requires the acting user to be the plant's owner. Ownership
// failures surface as ErrNotFound so existence is never leaked.
type Service struct {
	store PlantStore
}

// NewService creates a new Service wrapping the given store.
func NewService(store PlantStore) *Service {
	return &Service{store: store}
}

// Create validates the input and creates a plant owned by the acting user.
func (s *Service) Create(ctx context.Context, actorID string, input CreatePlantInput) (*Plant, error) {
	input.OwnerID = actorID
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrNameRequired
	}
	if input.Location == "" {
		input.Location = LocationIndoor
	}
	if input.Location != LocationIndoor && input.Location != LocationOutdoor {
		return nil, ErrInvalidLocation
	}
	return s.store.Create(ctx, input)
}

// Get returns the plant if it is active and owned by the acting user.
func (s *Service) Get(ctx context.Context, actorID, id string) (*Plant, error) {
	return s.getOwned(ctx, actorID, id)
}

// List returns all active plants owned by the acting user.
func (s *Service) List(ctx context.Context, actorID string) ([]*Plant, error) {
	return s.store.ListByOwner(ctx, actorID)
}

// Update validates and applies a partial update to an owned plant.
func (s *Service) Update(ctx context.Context, actorID, id string, input UpdatePlantInput) (*Plant, error) {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, ErrNameRequired
	}
	if input.Location != nil && *input.Location != LocationIndoor && *input.Location != LocationOutdoor {
		return nil, ErrInvalidLocation
	}
	if _, err := s.getOwned(ctx, actorID, id); err != nil {
		return nil, err
	}
	p, err := s.store.Update(ctx, id, input)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return p, nil
}

// Delete soft-deletes an owned plant. The row is kept with deleted_at set.
func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	if _, err := s.getOwned(ctx, actorID, id); err != nil {
		return err
	}
	return mapNotFound(s.store.SoftDelete(ctx, id))
}

// LogCare appends a care log entry to an owned plant.
func (s *Service) LogCare(ctx context.Context, actorID string, input CreateCareLogInput) (*CareLog, error) {
	if !ValidCareType(input.Type) {
		return nil, ErrInvalidCareType
	}
	if _, err := s.getOwned(ctx, actorID, input.PlantID); err != nil {
		return nil, err
	}
	return s.store.CreateCareLog(ctx, input)
}

// ListCare returns an owned plant's care history.
func (s *Service) ListCare(ctx context.Context, actorID, plantID string) ([]*CareLog, error) {
	if _, err := s.getOwned(ctx, actorID, plantID); err != nil {
		return nil, err
	}
	return s.store.ListCareLogs(ctx, plantID)
}

// SaveSchedule validates and upserts the schedule for (plant, care type),
// returning it with the computed due status. Re-saving an existing type
// updates it in place rather than creating a duplicate.
func (s *Service) SaveSchedule(ctx context.Context, actorID string, input UpsertScheduleInput) (*ScheduleWithStatus, error) {
	if !ValidCareType(input.CareType) {
		return nil, ErrInvalidCareType
	}
	if !ValidInterval(input.IntervalDays) {
		return nil, ErrIntervalOutOfRange
	}
	if _, err := s.getOwned(ctx, actorID, input.PlantID); err != nil {
		return nil, err
	}
	cs, err := s.store.UpsertSchedule(ctx, input)
	if err != nil {
		return nil, err
	}
	return &ScheduleWithStatus{
		CareSchedule: cs,
		Due:          ClassifyDueStatus(cs.NextDueAt, time.Now()),
	}, nil
}

// ListSchedules returns an owned plant's schedules with computed statuses.
func (s *Service) ListSchedules(ctx context.Context, actorID, plantID string) ([]*ScheduleWithStatus, error) {
	if _, err := s.getOwned(ctx, actorID, plantID); err != nil {
		return nil, err
	}
	schedules, err := s.store.ListSchedules(ctx, plantID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]*ScheduleWithStatus, 0, len(schedules))
	for _, cs := range schedules {
		out = append(out, &ScheduleWithStatus{
			CareSchedule: cs,
			Due:          ClassifyDueStatus(cs.NextDueAt, now),
		})
	}
	return out, nil
}

// UpcomingCare returns the acting user's enabled schedules across all active
// plants, soonest first, each classified against now.
func (s *Service) UpcomingCare(ctx context.Context, actorID string) ([]*OwnerSchedule, error) {
	items, err := s.store.ListSchedulesForOwner(ctx, actorID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for _, item := range items {
		item.Due = ClassifyDueStatus(item.Schedule.NextDueAt, now)
	}
	return items, nil
}

// getOwned loads an active plant and verifies ownership.
func (s *Service) getOwned(ctx context.Context, actorID, id string) (*Plant, error) {
	p, err := s.store.GetActive(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if p.OwnerID != actorID {
		return nil, ErrNotFound
	}
	return p, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
