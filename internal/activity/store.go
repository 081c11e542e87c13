package activity

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides database operations for activity events.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// BatchInsert writes a batch of events in a single round trip.
func (s *Store) BatchInsert(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, ev := range events {
		batch.Queue(
			`INSERT INTO activity_events (id, garden_id, actor_id, action, target_type, target_id, detail, occurred_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			ev.ID, ev.GardenID, ev.ActorID, ev.Action, ev.TargetType, ev.TargetID, ev.Detail, ev.OccurredAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("inserting activity events: %w", err)
		}
	}
	return nil
}

// ListByGarden returns the garden's most recent events, newest first.
func (s *Store) ListByGarden(ctx context.Context, gardenID string, limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, garden_id, actor_id, action, target_type, target_id, detail, occurred_at
		 FROM activity_events
		 WHERE garden_id = $1
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $2`, gardenID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing activity events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var ev Event
		err := rows.Scan(&ev.ID, &ev.GardenID, &ev.ActorID, &ev.Action, &ev.TargetType, &ev.TargetID, &ev.Detail, &ev.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("scanning activity event: %w", err)
		}
		events = append(events, &ev)
	}
	return events, rows.Err()
}
