// Package eventlog persists system lifecycle events (startup, shutdown,
// sensor faults, lockout trips) separately from the access audit trail.
package eventlog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wardgate/wardgate-core/internal/infrastructure/database"
)

// defaultListLimit caps unbounded List queries.
const defaultListLimit = 100

// Event is one system event row.
type Event struct {
	ID         string    `json:"id"`
	Level      string    `json:"level"`
	Component  string    `json:"component"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Repository provides SQLite persistence for system events.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new system event repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Record appends a system event.
func (r *Repository) Record(ctx context.Context, level, component, message string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO system_events (id, level, component, message, occurred_at)
		VALUES (?, ?, ?, ?, ?)`,
		"evt-"+uuid.NewString()[:8],
		level,
		component,
		message,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording system event: %w", err)
	}
	return nil
}

// List retrieves the most recent events, newest first.
func (r *Repository) List(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := r.db.DB.QueryContext(ctx, `
		SELECT id, level, component, message, occurred_at
		FROM system_events
		ORDER BY occurred_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing system events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e          Event
			occurredAt string
		)
		if err := rows.Scan(&e.ID, &e.Level, &e.Component, &e.Message, &occurredAt); err != nil {
			return nil, fmt.Errorf("scanning system event row: %w", err)
		}
		e.OccurredAt, _ = time.Parse(time.RFC3339Nano, occurredAt) //nolint:errcheck // Format is controlled
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating system events: %w", err)
	}
	return events, nil
}
