package accesslog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wardgate/wardgate-core/internal/infrastructure/database"
)

// defaultListLimit caps unbounded List queries.
const defaultListLimit = 100

// Repository provides SQLite persistence for the audit trail.
//
// The table is append-only from the application's point of view:
// there are no update or delete methods.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new audit trail repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Insert appends one entry to the trail.
func (r *Repository) Insert(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = NewEntryID()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if e.EventType == "" {
		e.EventType = EventEntry
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO access_logs
			(id, identity_id, identity_name, event_type, result, failure_reason,
			 face_match, fingerprint_match, confidence, note, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		nullIfEmpty(e.IdentityID),
		nullIfEmpty(e.IdentityName),
		string(e.EventType),
		e.Result,
		nullIfEmpty(e.FailureReason),
		boolToInt(e.FaceMatch),
		boolToInt(e.FingerprintMatch),
		e.Confidence,
		nullIfEmpty(e.Note),
		e.OccurredAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting access log entry: %w", err)
	}
	return nil
}

// List retrieves entries matching the filter, newest first.
func (r *Repository) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		conds []string
		args  []any
	)
	if !f.From.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, f.From.UTC().Format(time.RFC3339Nano))
	}
	if !f.To.IsZero() {
		conds = append(conds, "occurred_at < ?")
		args = append(args, f.To.UTC().Format(time.RFC3339Nano))
	}
	if f.IdentityID != "" {
		conds = append(conds, "identity_id = ?")
		args = append(args, f.IdentityID)
	}
	if f.Result != "" {
		conds = append(conds, "result = ?")
		args = append(args, f.Result)
	}

	query := `
		SELECT id, identity_id, identity_name, event_type, result, failure_reason,
		       face_match, fingerprint_match, confidence, note, occurred_at
		FROM access_logs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY occurred_at DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing access log entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			identityID *string
			name       *string
			reason     *string
			note       *string
			eventType  string
			faceMatch  int
			fpMatch    int
			occurredAt string
		)
		if err := rows.Scan(&e.ID, &identityID, &name, &eventType, &e.Result, &reason,
			&faceMatch, &fpMatch, &e.Confidence, &note, &occurredAt); err != nil {
			return nil, fmt.Errorf("scanning access log row: %w", err)
		}
		if identityID != nil {
			e.IdentityID = *identityID
		}
		if name != nil {
			e.IdentityName = *name
		}
		if reason != nil {
			e.FailureReason = *reason
		}
		if note != nil {
			e.Note = *note
		}
		e.EventType = EventType(eventType)
		e.FaceMatch = faceMatch != 0
		e.FingerprintMatch = fpMatch != 0
		e.OccurredAt, _ = time.Parse(time.RFC3339Nano, occurredAt) //nolint:errcheck // Format is controlled
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating access log entries: %w", err)
	}
	return entries, nil
}

// GetStats aggregates attempt counts by result since the given time.
func (r *Repository) GetStats(ctx context.Context, since time.Time) (*Stats, error) {
	rows, err := r.db.DB.QueryContext(ctx, `
		SELECT result, COUNT(*)
		FROM access_logs
		WHERE occurred_at >= ?
		GROUP BY result`,
		since.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("aggregating access log stats: %w", err)
	}
	defer rows.Close()

	stats := &Stats{Since: since.UTC()}
	for rows.Next() {
		var (
			result string
			count  int
		)
		if err := rows.Scan(&result, &count); err != nil {
			return nil, fmt.Errorf("scanning stats row: %w", err)
		}
		stats.Total += count
		switch result {
		case "GRANTED":
			stats.Granted = count
		case "DENIED":
			stats.Denied = count
		case "FAILED":
			stats.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stats rows: %w", err)
	}
	return stats, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
