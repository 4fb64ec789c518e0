package accesslog

import (
	"time"

	"github.com/google/uuid"
)

// EventType distinguishes which side of the door an attempt came from.
// The reference installation only authenticates entry; exit uses a
// request-to-exit button wired straight to the controller.
type EventType string

const (
	// EventEntry is an authentication attempt at the outside reader.
	EventEntry EventType = "ENTRY"

	// EventExit is a request-to-exit event.
	EventExit EventType = "EXIT"
)

// Entry is one row of the audit trail.
type Entry struct {
	ID string `json:"id"`

	// IdentityID and IdentityName identify who the attempt was
	// attributed to, empty for anonymous attempts.
	IdentityID   string `json:"identity_id,omitempty"`
	IdentityName string `json:"identity_name,omitempty"`

	EventType EventType `json:"event_type"`

	// Result is the decision outcome: GRANTED, DENIED, or FAILED.
	Result string `json:"result"`

	// FailureReason holds the denial reason or the failure error text.
	FailureReason string `json:"failure_reason,omitempty"`

	// Per-factor match flags.
	FaceMatch        bool `json:"face_match"`
	FingerprintMatch bool `json:"fingerprint_match"`

	// Confidence is the combined match confidence, zero unless granted.
	Confidence float64 `json:"confidence"`

	// Note carries free-text context, such as the manual-lock operator.
	Note string `json:"note,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

// NewEntryID generates a new audit entry ID.
//
// Format: "acc-" followed by the first 8 characters of a UUID.
func NewEntryID() string {
	return "acc-" + uuid.NewString()[:8]
}

// Stats summarises attempt counts by result over a period.
type Stats struct {
	Since   time.Time `json:"since"`
	Total   int       `json:"total"`
	Granted int       `json:"granted"`
	Denied  int       `json:"denied"`
	Failed  int       `json:"failed"`
}

// Filter narrows a List query. Zero values mean "no constraint".
type Filter struct {
	From       time.Time
	To         time.Time
	IdentityID string
	Result     string
	Limit      int
	Offset     int
}
