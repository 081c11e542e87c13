package garden

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// Store provides database operations for gardens and memberships.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// gardenColumns is the full list of columns used in SELECT statements.
const gardenColumns = `id, name, description, owner_id, created_at, updated_at`

// scanGarden scans a single garden row into a Garden struct.
func scanGarden(row pgx.Row) (*Garden, error) {
	var g Garden
	err := row.Scan(
		&g.ID,
		&g.Name,
		&g.Description,
		&g.OwnerID,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Create inserts a new garden owned by input.OwnerID.
func (s *Store) Create(ctx context.Context, input CreateGardenInput) (*Garden, error) {
	query := fmt.Sprintf(`INSERT INTO gardens (name, description, owner_id)
		VALUES ($1, $2, $3) RETURNING %s`, gardenColumns)
	g, err := scanGarden(s.pool.QueryRow(ctx, query, input.Name, input.Description, input.OwnerID))
	if err != nil {
		return nil, fmt.Errorf("creating garden: %w", err)
	}
	return g, nil
}

// GetByID retrieves a garden by its ID.
func (s *Store) GetByID(ctx context.Context, id string) (*Garden, error) {
	query := fmt.Sprintf(`SELECT %s FROM gardens WHERE id = $1`, gardenColumns)
	return scanGarden(s.pool.QueryRow(ctx, query, id))
}

// Update applies a partial update to a garden and returns the updated row.
func (s *Store) Update(ctx context.Context, id string, input UpdateGardenInput) (*Garden, error) {
	setClauses := []string{}
	args := []any{}
	argIdx := 1

	if input.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *input.Name)
		argIdx++
	}
	if input.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, *input.Description)
		argIdx++
	}

	if len(setClauses) == 0 {
		return s.GetByID(ctx, id)
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argIdx))
	args = append(args, time.Now().UTC())
	argIdx++

	args = append(args, id)

	query := fmt.Sprintf(`UPDATE gardens SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, gardenColumns)

	return scanGarden(s.pool.QueryRow(ctx, query, args...))
}

// DeleteCascade removes a garden inside a single transaction: member plants
// are detached (garden_id cleared, rows preserved), membership rows are
// deleted, and the garden row is removed last. Plants are never deleted.
func (s *Store) DeleteCascade(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`UPDATE plants SET garden_id = NULL, updated_at = now() WHERE garden_id = $1`, id); err != nil {
		return fmt.Errorf("detaching plants: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM garden_members WHERE garden_id = $1`, id); err != nil {
		return fmt.Errorf("removing members: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM gardens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting garden: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}

// ListForUser returns all gardens the user owns or is a member of, each with
// the user's effective role, newest first.
func (s *Store) ListForUser(ctx context.Context, userID string) ([]*GardenWithRole, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT g.id, g.name, g.description, g.owner_id, g.created_at, g.updated_at,
		        CASE WHEN g.owner_id = $1 THEN 'OWNER' ELSE gm.role END AS role
		 FROM gardens g
		 LEFT JOIN garden_members gm ON gm.garden_id = g.id AND gm.user_id = $1
		 WHERE g.owner_id = $1 OR gm.user_id IS NOT NULL
		 ORDER BY g.created_at DESC, g.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing gardens: %w", err)
	}
	defer rows.Close()

	var out []*GardenWithRole
	for rows.Next() {
		var g Garden
		var role Role
		err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.OwnerID, &g.CreatedAt, &g.UpdatedAt, &role)
		if err != nil {
			return nil, fmt.Errorf("scanning garden: %w", err)
		}
		out = append(out, &GardenWithRole{Garden: &g, Role: role})
	}
	return out, rows.Err()
}

// ResolveRole determines the user's effective role in one combined lookup:
// owner-id match wins, else the membership row's role. It returns an empty
// role both when the garden does not exist and when the user has no access,
// so callers cannot distinguish the two.
func (s *Store) ResolveRole(ctx context.Context, userID, gardenID string) (Role, error) {
	var role Role
	err := s.pool.QueryRow(ctx,
		`SELECT CASE WHEN g.owner_id = $1 THEN 'OWNER' ELSE COALESCE(gm.role, '') END
		 FROM gardens g
		 LEFT JOIN garden_members gm ON gm.garden_id = g.id AND gm.user_id = $1
		 WHERE g.id = $2`, userID, gardenID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolving role: %w", err)
	}
	return role, nil
}

// AddMember inserts a membership row. The unique (garden_id, user_id)
// constraint is the final guard against concurrent duplicate invites; a
// violation surfaces as ErrAlreadyMember.
func (s *Store) AddMember(ctx context.Context, gardenID, userID string, role Role) (*Member, error) {
	var m Member
	err := s.pool.QueryRow(ctx,
		`INSERT INTO garden_members (garden_id, user_id, role)
		 VALUES ($1, $2, $3)
		 RETURNING garden_id, user_id, role, invited_at`,
		gardenID, userID, role,
	).Scan(&m.GardenID, &m.UserID, &m.Role, &m.InvitedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("adding member: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`SELECT name, email, image FROM users WHERE id = $1`, userID,
	).Scan(&m.Name, &m.Email, &m.Image)
	if err != nil {
		return nil, fmt.Errorf("loading member user: %w", err)
	}
	return &m, nil
}

// RemoveMember deletes a membership row.
func (s *Store) RemoveMember(ctx context.Context, gardenID, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM garden_members WHERE garden_id = $1 AND user_id = $2`, gardenID, userID)
	if err != nil {
		return fmt.Errorf("removing member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListMembers returns the garden's stored members joined with user display
// fields, ordered by invitation time ascending. The owner is not included.
func (s *Store) ListMembers(ctx context.Context, gardenID string) ([]*Member, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT gm.garden_id, gm.user_id, gm.role, gm.invited_at, u.name, u.email, u.image
		 FROM garden_members gm
		 JOIN users u ON u.id = gm.user_id
		 WHERE gm.garden_id = $1
		 ORDER BY gm.invited_at ASC, gm.user_id ASC`, gardenID)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		var m Member
		err := rows.Scan(&m.GardenID, &m.UserID, &m.Role, &m.InvitedAt, &m.Name, &m.Email, &m.Image)
		if err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

// GetOwnerEntry resolves the garden's owner via its owner relation, distinct
// from the member list.
func (s *Store) GetOwnerEntry(ctx context.Context, gardenID string) (*OwnerEntry, error) {
	var e OwnerEntry
	err := s.pool.QueryRow(ctx,
		`SELECT u.id, u.name, u.email, u.image
		 FROM gardens g JOIN users u ON u.id = g.owner_id
		 WHERE g.id = $1`, gardenID,
	).Scan(&e.UserID, &e.Name, &e.Email, &e.Image)
	if err != nil {
		return nil, fmt.Errorf("loading garden owner: %w", err)
	}
	e.Role = RoleOwner
	return &e, nil
}

// FindUserByEmail resolves a user by case-insensitive email match.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*UserRef, error) {
	var u UserRef
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, image FROM users WHERE lower(email) = lower($1)`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Image)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
