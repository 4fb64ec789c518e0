package identity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/wardgate/wardgate-core/internal/infrastructure/database"
)

// Repository provides SQLite persistence for identities and templates.
//
// All methods are safe for concurrent use; SQLite serialises writes via
// the single-connection pool configured in the database package.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new identity repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new identity.
// Returns ErrExists if the ID is already taken.
func (r *Repository) Create(ctx context.Context, ident *Identity) error {
	if err := ident.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	ident.CreatedAt = now
	ident.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO identities (id, name, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		ident.ID,
		ident.Name,
		boolToInt(ident.Active),
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrExists, ident.ID)
		}
		return fmt.Errorf("creating identity: %w", err)
	}
	return nil
}

// GetByID retrieves an identity by ID.
// Returns ErrNotFound if the identity does not exist.
func (r *Repository) GetByID(ctx context.Context, id string) (*Identity, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, active, created_at, updated_at
		FROM identities WHERE id = ?`, id)

	ident, err := scanIdentity(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting identity: %w", err)
	}
	return ident, nil
}

// List retrieves all identities ordered by name.
func (r *Repository) List(ctx context.Context) ([]Identity, error) {
	rows, err := r.db.DB.QueryContext(ctx, `
		SELECT id, name, active, created_at, updated_at
		FROM identities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing identities: %w", err)
	}
	defer rows.Close()

	var identities []Identity
	for rows.Next() {
		ident, err := scanIdentity(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning identity row: %w", err)
		}
		identities = append(identities, *ident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating identities: %w", err)
	}
	return identities, nil
}

// SetActive enables or disables an identity.
// Returns ErrNotFound if the identity does not exist.
func (r *Repository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE identities SET active = ?, updated_at = ? WHERE id = ?`,
		boolToInt(active),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating identity: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Delete removes an identity and its templates (via ON DELETE CASCADE).
// Returns ErrNotFound if the identity does not exist.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM identities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting identity: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// AddFaceTemplate stores a face encoding for an identity.
// The integrity hash is computed here, not trusted from the caller.
func (r *Repository) AddFaceTemplate(ctx context.Context, tpl *FaceTemplate) error {
	encoded, err := json.Marshal(tpl.Encoding)
	if err != nil {
		return fmt.Errorf("encoding face template: %w", err)
	}

	tpl.EncodingHash = HashEncoding(tpl.Encoding)
	tpl.CreatedAt = time.Now().UTC()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO face_templates (id, identity_id, encoding, encoding_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		tpl.ID,
		tpl.IdentityID,
		encoded,
		tpl.EncodingHash,
		tpl.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("storing face template: %w", err)
	}
	return nil
}

// ListFaceTemplates retrieves all face templates, verifying each one's
// integrity hash. Corrupt templates are skipped and reported.
func (r *Repository) ListFaceTemplates(ctx context.Context) ([]FaceTemplate, error) {
	rows, err := r.db.DB.QueryContext(ctx, `
		SELECT id, identity_id, encoding, encoding_hash, created_at
		FROM face_templates`)
	if err != nil {
		return nil, fmt.Errorf("listing face templates: %w", err)
	}
	defer rows.Close()

	var templates []FaceTemplate
	for rows.Next() {
		var (
			tpl       FaceTemplate
			raw       []byte
			createdAt string
		)
		if err := rows.Scan(&tpl.ID, &tpl.IdentityID, &raw, &tpl.EncodingHash, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning face template row: %w", err)
		}
		if err := json.Unmarshal(raw, &tpl.Encoding); err != nil {
			return nil, fmt.Errorf("decoding face template %s: %w", tpl.ID, err)
		}
		tpl.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled

		if err := tpl.VerifyIntegrity(); err != nil {
			return nil, fmt.Errorf("face template %s: %w", tpl.ID, err)
		}
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating face templates: %w", err)
	}
	return templates, nil
}

// AddFingerprintTemplate records a sensor slot assignment for an identity.
// Returns ErrSlotTaken if the slot is already assigned.
func (r *Repository) AddFingerprintTemplate(ctx context.Context, tpl *FingerprintTemplate) error {
	tpl.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fingerprint_templates (id, identity_id, sensor_slot, template_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		tpl.ID,
		tpl.IdentityID,
		tpl.SensorSlot,
		tpl.TemplateHash,
		tpl.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: slot %d", ErrSlotTaken, tpl.SensorSlot)
		}
		return fmt.Errorf("storing fingerprint template: %w", err)
	}
	return nil
}

// ListFingerprintTemplates retrieves all fingerprint slot assignments.
func (r *Repository) ListFingerprintTemplates(ctx context.Context) ([]FingerprintTemplate, error) {
	rows, err := r.db.DB.QueryContext(ctx, `
		SELECT id, identity_id, sensor_slot, template_hash, created_at
		FROM fingerprint_templates`)
	if err != nil {
		return nil, fmt.Errorf("listing fingerprint templates: %w", err)
	}
	defer rows.Close()

	var templates []FingerprintTemplate
	for rows.Next() {
		var (
			tpl       FingerprintTemplate
			createdAt string
		)
		if err := rows.Scan(&tpl.ID, &tpl.IdentityID, &tpl.SensorSlot, &tpl.TemplateHash, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning fingerprint template row: %w", err)
		}
		tpl.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fingerprint templates: %w", err)
	}
	return templates, nil
}

// scanIdentity scans an identity from a row scan function.
func scanIdentity(scan func(...any) error) (*Identity, error) {
	var (
		ident     Identity
		active    int
		createdAt string
		updatedAt string
	)
	if err := scan(&ident.ID, &ident.Name, &active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	ident.Active = active != 0
	ident.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled
	ident.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // Format is controlled
	return &ident, nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint error.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
