package admin

import (
	"time"

	"github.com/google/uuid"
)

// Admin is a dashboard administrator account.
//
// The password hash is never serialised to JSON.
type Admin struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// NewID generates a unique admin ID with the "adm-" prefix.
func NewID() string {
	return "adm-" + uuid.NewString()[:8]
}
