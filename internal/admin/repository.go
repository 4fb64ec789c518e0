package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/wardgate/wardgate-core/internal/infrastructure/database"
)

// Repository provides SQLite persistence and authentication for admins.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new admin repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new admin with a freshly hashed password.
// Returns ErrExists if the username is already taken.
func (r *Repository) Create(ctx context.Context, username, password string) (*Admin, error) {
	if username == "" {
		return nil, fmt.Errorf("admin: username must not be empty")
	}
	if len(password) < 8 { //nolint:mnd // minimum password length
		return nil, fmt.Errorf("admin: password must be at least 8 characters")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	a := &Admin{
		ID:           NewID(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO admins (id, username, password_hash, created_at)
		VALUES (?, ?, ?, ?)`,
		a.ID,
		a.Username,
		a.PasswordHash,
		a.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrExists, username)
		}
		return nil, fmt.Errorf("creating admin: %w", err)
	}
	return a, nil
}

// GetByUsername retrieves an admin by username.
// Returns ErrNotFound if no such admin exists.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*Admin, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at, last_login_at
		FROM admins WHERE username = ?`, username)

	var (
		a           Admin
		createdAt   string
		lastLoginAt sql.NullString
	)
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &createdAt, &lastLoginAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("getting admin: %w", err)
	}

	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled
	if lastLoginAt.Valid {
		t, _ := time.Parse(time.RFC3339, lastLoginAt.String) //nolint:errcheck // Format is controlled
		a.LastLoginAt = &t
	}
	return &a, nil
}

// Count returns the number of admin accounts.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting admins: %w", err)
	}
	return n, nil
}

// Authenticate verifies a username/password pair and stamps the login time.
// Unknown usernames and wrong passwords both return ErrInvalidCredentials so
// the response does not leak which usernames exist.
func (r *Repository) Authenticate(ctx context.Context, username, password string) (*Admin, error) {
	a, err := r.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := VerifyPassword(password, a.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		UPDATE admins SET last_login_at = ? WHERE id = ?`,
		now.Format(time.RFC3339), a.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating last login: %w", err)
	}
	a.LastLoginAt = &now
	return a, nil
}

// EnsureSeedAdmin creates a default admin account when the table is empty.
// Returns the created admin, or nil when accounts already exist.
func (r *Repository) EnsureSeedAdmin(ctx context.Context, username, password string) (*Admin, error) {
	n, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, nil
	}
	return r.Create(ctx, username, password)
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
