package plant

import "time"

// Location says where a plant lives.
type Location string

const (
	LocationIndoor  Location = "INDOOR"
	LocationOutdoor Location = "OUTDOOR"
)

// CareType identifies a kind of recurring care action.
type CareType string

const (
	CareWatering      CareType = "WATERING"
	CareFertilizing   CareType = "FERTILIZING"
	CareRepotting     CareType = "REPOTTING"
	CarePruning       CareType = "PRUNING"
	CarePestTreatment CareType = "PEST_TREATMENT"
	CareOther         CareType = "OTHER"
)

// validCareTypes is the set of accepted care_type values.
var validCareTypes = map[CareType]bool{
	CareWatering:      true,
	CareFertilizing:   true,
	CareRepotting:     true,
	CarePruning:       true,
	CarePestTreatment: true,
	CareOther:         true,
}

// ValidCareType reports whether ct is one of the six known care types.
func ValidCareType(ct CareType) bool {
	return validCareTypes[ct]
}

// Plant represents a tracked specimen. OwnerID is the original creator and
// never changes, even when the plant is placed in a shared garden.
type Plant struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	GardenID   *string    `json:"garden_id"`
	Name       string     `json:"name"`
	Nickname   string     `json:"nickname,omitempty"`
	SpeciesID  *string    `json:"species_id,omitempty"`
	Location   Location   `json:"location"`
	Area       string     `json:"area,omitempty"`
	AcquiredAt *time.Time `json:"acquired_at,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"-"`
}

// CreatePlantInput holds the fields required to create a new plant.
type CreatePlantInput struct {
	OwnerID    string     `json:"-"`
	Name       string     `json:"name"`
	Nickname   string     `json:"nickname"`
	SpeciesID  *string    `json:"species_id"`
	Location   Location   `json:"location"`
	Area       string     `json:"area"`
	AcquiredAt *time.Time `json:"acquired_at"`
	Notes      string     `json:"notes"`
}

// UpdatePlantInput holds optional fields for a partial plant update.
type UpdatePlantInput struct {
	Name       *string    `json:"name,omitempty"`
	Nickname   *string    `json:"nickname,omitempty"`
	SpeciesID  *string    `json:"species_id,omitempty"`
	Location   *Location  `json:"location,omitempty"`
	Area       *string    `json:"area,omitempty"`
	AcquiredAt *time.Time `json:"acquired_at,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
}

// CareLog is an immutable record that a care action occurred.
type CareLog struct {
	ID        string    `json:"id"`
	PlantID   string    `json:"plant_id"`
	Type      CareType  `json:"type"`
	LoggedAt  time.Time `json:"logged_at"`
	Amount    *string   `json:"amount,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCareLogInput holds the fields for appending a care log entry.
type CreateCareLogInput struct {
	PlantID  string     `json:"-"`
	Type     CareType   `json:"type"`
	LoggedAt *time.Time `json:"logged_at"`
	Amount   *string    `json:"amount"`
	Notes    string     `json:"notes"`
}

// CareSchedule is the recurring reminder configuration for one
// (plant, care type) pair.
type CareSchedule struct {
	ID           string    `json:"id"`
	PlantID      string    `json:"plant_id"`
	CareType     CareType  `json:"care_type"`
	IntervalDays int       `json:"interval_days"`
	NextDueAt    time.Time `json:"next_due_at"`
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UpsertScheduleInput holds the fields for creating or updating a schedule.
type UpsertScheduleInput struct {
	PlantID      string     `json:"-"`
	CareType     CareType   `json:"care_type"`
	IntervalDays int        `json:"interval_days"`
	NextDueAt    *time.Time `json:"next_due_at"`
	Enabled      *bool      `json:"enabled"`
}

// ScheduleWithStatus pairs a schedule with its computed due status.
type ScheduleWithStatus struct {
	*CareSchedule
	Due DueStatus `json:"due"`
}

// OwnerSchedule is a schedule row joined with its plant, used for the
// upcoming-care overview across all of a user's plants.
type OwnerSchedule struct {
	Schedule  *CareSchedule `json:"schedule"`
	PlantID   string        `json:"plant_id"`
	PlantName string        `json:"plant_name"`
	Nickname  string        `json:"nickname,omitempty"`
	Due       DueStatus     `json:"due"`
}
