package plant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides database operations for plants, care logs and schedules.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// plantColumns is the full list of columns used in SELECT statements.
const plantColumns = `id, owner_id, garden_id, name, nickname, species_id,
	location, area, acquired_at, notes, created_at, updated_at, deleted_at`

// scanPlant scans a single plant row into a Plant struct.
func scanPlant(row pgx.Row) (*Plant, error) {
	var p Plant
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.GardenID,
		&p.Name,
		&p.Nickname,
		&p.SpeciesID,
		&p.Location,
		&p.Area,
		&p.AcquiredAt,
		&p.Notes,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new plant and returns the full row.
func (s *Store) Create(ctx context.Context, input CreatePlantInput) (*Plant, error) {
	query := fmt.Sprintf(`INSERT INTO plants
		(owner_id, name, nickname, species_id, location, area, acquired_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s`, plantColumns)

	row := s.pool.QueryRow(ctx, query,
		input.OwnerID,
		input.Name,
		input.Nickname,
		input.SpeciesID,
		input.Location,
		input.Area,
		input.AcquiredAt,
		input.Notes,
	)
	p, err := scanPlant(row)
	if err != nil {
		return nil, fmt.Errorf("creating plant: %w", err)
	}
	return p, nil
}

// GetActive retrieves a plant by its ID, excluding soft-deleted rows.
func (s *Store) GetActive(ctx context.Context, id string) (*Plant, error) {
	query := fmt.Sprintf(`SELECT %s FROM plants WHERE id = $1 AND deleted_at IS NULL`, plantColumns)
	return scanPlant(s.pool.QueryRow(ctx, query, id))
}

// ListByOwner returns the owner's active plants, newest first.
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]*Plant, error) {
	query := fmt.Sprintf(`SELECT %s FROM plants
		WHERE owner_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC`, plantColumns)
	return s.list(ctx, query, ownerID)
}

// ListByGarden returns the active plants currently assigned to a garden.
func (s *Store) ListByGarden(ctx context.Context, gardenID string) ([]*Plant, error) {
	query := fmt.Sprintf(`SELECT %s FROM plants
		WHERE garden_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC`, plantColumns)
	return s.list(ctx, query, gardenID)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*Plant, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing plants: %w", err)
	}
	defer rows.Close()

	var plants []*Plant
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning plant: %w", err)
		}
		plants = append(plants, p)
	}
	return plants, rows.Err()
}

// Update applies a partial update to an active plant and returns the updated row.
func (s *Store) Update(ctx context.Context, id string, input UpdatePlantInput) (*Plant, error) {
	setClauses := []string{}
	args := []any{}
	argIdx := 1

	if input.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *input.Name)
		argIdx++
	}
	if input.Nickname != nil {
		setClauses = append(setClauses, fmt.Sprintf("nickname = $%d", argIdx))
		args = append(args, *input.Nickname)
		argIdx++
	}
	if input.SpeciesID != nil {
		setClauses = append(setClauses, fmt.Sprintf("species_id = $%d", argIdx))
		args = append(args, *input.SpeciesID)
		argIdx++
	}
	if input.Location != nil {
		setClauses = append(setClauses, fmt.Sprintf("location = $%d", argIdx))
		args = append(args, *input.Location)
		argIdx++
	}
	if input.Area != nil {
		setClauses = append(setClauses, fmt.Sprintf("area = $%d", argIdx))
		args = append(args, *input.Area)
		argIdx++
	}
	if input.AcquiredAt != nil {
		setClauses = append(setClauses, fmt.Sprintf("acquired_at = $%d", argIdx))
		args = append(args, *input.AcquiredAt)
		argIdx++
	}
	if input.Notes != nil {
		setClauses = append(setClauses, fmt.Sprintf("notes = $%d", argIdx))
		args = append(args, *input.Notes)
		argIdx++
	}

	if len(setClauses) == 0 {
		return s.GetActive(ctx, id)
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argIdx))
	args = append(args, time.Now().UTC())
	argIdx++

	args = append(args, id)

	query := fmt.Sprintf(`UPDATE plants SET %s WHERE id = $%d AND deleted_at IS NULL RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, plantColumns)

	return scanPlant(s.pool.QueryRow(ctx, query, args...))
}

// SoftDelete marks a plant as deleted. The row is preserved.
func (s *Store) SoftDelete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE plants SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("deleting plant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetGarden assigns the plant to a garden, or detaches it when gardenID is nil.
// Owner and all other fields are untouched.
func (s *Store) SetGarden(ctx context.Context, id string, gardenID *string) (*Plant, error) {
	query := fmt.Sprintf(`UPDATE plants SET garden_id = $1, updated_at = now()
		WHERE id = $2 AND deleted_at IS NULL RETURNING %s`, plantColumns)
	return scanPlant(s.pool.QueryRow(ctx, query, gardenID, id))
}

// CreateCareLog appends an immutable care log entry.
func (s *Store) CreateCareLog(ctx context.Context, input CreateCareLogInput) (*CareLog, error) {
	loggedAt := time.Now().UTC()
	if input.LoggedAt != nil {
		loggedAt = *input.LoggedAt
	}

	var l CareLog
	err := s.pool.QueryRow(ctx,
		`INSERT INTO care_logs (plant_id, type, logged_at, amount, notes)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, plant_id, type, logged_at, amount, notes, created_at`,
		input.PlantID, input.Type, loggedAt, input.Amount, input.Notes,
	).Scan(&l.ID, &l.PlantID, &l.Type, &l.LoggedAt, &l.Amount, &l.Notes, &l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating care log: %w", err)
	}
	return &l, nil
}

// ListCareLogs returns a plant's care logs, most recent first.
func (s *Store) ListCareLogs(ctx context.Context, plantID string) ([]*CareLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, plant_id, type, logged_at, amount, notes, created_at
		 FROM care_logs WHERE plant_id = $1
		 ORDER BY logged_at DESC, id DESC`, plantID)
	if err != nil {
		return nil, fmt.Errorf("listing care logs: %w", err)
	}
	defer rows.Close()

	var logs []*CareLog
	for rows.Next() {
		var l CareLog
		if err := rows.Scan(&l.ID, &l.PlantID, &l.Type, &l.LoggedAt, &l.Amount, &l.Notes, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning care log: %w", err)
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}

const scheduleColumns = `id, plant_id, care_type, interval_days, next_due_at, enabled, created_at, updated_at`

func scanSchedule(row pgx.Row) (*CareSchedule, error) {
	var cs CareSchedule
	err := row.Scan(
		&cs.ID,
		&cs.PlantID,
		&cs.CareType,
		&cs.IntervalDays,
		&cs.NextDueAt,
		&cs.Enabled,
		&cs.CreatedAt,
		&cs.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cs, nil
}

// UpsertSchedule creates or updates the schedule for (plant_id, care_type).
// The unique constraint plus ON CONFLICT makes concurrent upserts for the same
// pair converge on a single row.
func (s *Store) UpsertSchedule(ctx context.Context, input UpsertScheduleInput) (*CareSchedule, error) {
	nextDue := time.Now().UTC().AddDate(0, 0, input.IntervalDays)
	if input.NextDueAt != nil {
		nextDue = *input.NextDueAt
	}
	enabled := true
	if input.Enabled != nil {
		enabled = *input.Enabled
	}

	query := fmt.Sprintf(`INSERT INTO care_schedules (plant_id, care_type, interval_days, next_due_at, enabled)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (plant_id, care_type) DO UPDATE
		SET interval_days = EXCLUDED.interval_days,
		    next_due_at = EXCLUDED.next_due_at,
		    enabled = EXCLUDED.enabled,
		    updated_at = now()
		RETURNING %s`, scheduleColumns)

	cs, err := scanSchedule(s.pool.QueryRow(ctx, query,
		input.PlantID, input.CareType, input.IntervalDays, nextDue, enabled))
	if err != nil {
		return nil, fmt.Errorf("upserting care schedule: %w", err)
	}
	return cs, nil
}

// ListSchedules returns a plant's schedules ordered by care type.
func (s *Store) ListSchedules(ctx context.Context, plantID string) ([]*CareSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM care_schedules WHERE plant_id = $1 ORDER BY care_type`, scheduleColumns)
	rows, err := s.pool.Query(ctx, query, plantID)
	if err != nil {
		return nil, fmt.Errorf("listing care schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*CareSchedule
	for rows.Next() {
		cs, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning care schedule: %w", err)
		}
		schedules = append(schedules, cs)
	}
	return schedules, rows.Err()
}

// ListSchedulesForOwner returns all enabled schedules across an owner's active
// plants, soonest due first, joined with the plant's display fields.
func (s *Store) ListSchedulesForOwner(ctx context.Context, ownerID string) ([]*OwnerSchedule, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT cs.id, cs.plant_id, cs.care_type, cs.interval_days, cs.next_due_at,
		        cs.enabled, cs.created_at, cs.updated_at, p.name, p.nickname
		 FROM care_schedules cs
		 JOIN plants p ON p.id = cs.plant_id
		 WHERE p.owner_id = $1 AND p.deleted_at IS NULL AND cs.enabled
		 ORDER BY cs.next_due_at ASC, cs.id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing owner schedules: %w", err)
	}
	defer rows.Close()

	var out []*OwnerSchedule
	for rows.Next() {
		var cs CareSchedule
		var name, nickname string
		err := rows.Scan(
			&cs.ID, &cs.PlantID, &cs.CareType, &cs.IntervalDays, &cs.NextDueAt,
			&cs.Enabled, &cs.CreatedAt, &cs.UpdatedAt, &name, &nickname,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning owner schedule: %w", err)
		}
		out = append(out, &OwnerSchedule{
			Schedule:  &cs,
			PlantID:   cs.PlantID,
			PlantName: name,
			Nickname:  nickname,
		})
	}
	return out, rows.Err()
}
