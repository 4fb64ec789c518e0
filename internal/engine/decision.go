package engine

import (
	"time"

	"github.com/wardgate/wardgate-core/internal/sensor"
)

// Outcome is the top-level result of an authentication attempt.
type Outcome string

const (
	// OutcomeGranted means both factors agreed on an active identity.
	OutcomeGranted Outcome = "GRANTED"

	// OutcomeDenied means the attempt completed but access was refused.
	OutcomeDenied Outcome = "DENIED"

	// OutcomeFailed means the attempt could not complete (sensor fault,
	// window elapsed). Failed attempts never unlock the door.
	OutcomeFailed Outcome = "FAILED"
)

// Reason explains a denial. Empty for granted and failed decisions.
type Reason string

const (
	// ReasonNoMatch: one or both factors matched nobody.
	ReasonNoMatch Reason = "no_match"

	// ReasonIdentityMismatch: the factors matched different people.
	// This is the signature of a presentation attack and is never
	// resolved in favour of either identity.
	ReasonIdentityMismatch Reason = "identity_mismatch"

	// ReasonAccountDisabled: biometrics agreed but the identity is
	// administratively disabled.
	ReasonAccountDisabled Reason = "account_disabled"

	// ReasonLockedOut: the identity (or the anonymous bucket) is in
	// lockout cooldown.
	ReasonLockedOut Reason = "locked_out"
)

// Decision is the reconciled result of one authentication attempt.
type Decision struct {
	Outcome Outcome `json:"outcome"`

	// IdentityID and IdentityName are set when an identity was
	// established, including denied account_disabled and locked_out
	// decisions. Empty for no_match and identity_mismatch.
	IdentityID   string `json:"identity_id,omitempty"`
	IdentityName string `json:"identity_name,omitempty"`

	// Reason is set for denied decisions.
	Reason Reason `json:"reason,omitempty"`

	// Err is set for failed decisions.
	Err error `json:"-"`

	// Per-factor match flags for the audit trail.
	FaceMatched        bool `json:"face_matched"`
	FingerprintMatched bool `json:"fingerprint_matched"`

	// Confidence is the mean of the two factor confidences for granted
	// decisions, zero otherwise.
	Confidence float64 `json:"confidence"`

	DecidedAt time.Time `json:"decided_at"`
}

// Granted reports whether the decision unlocks the door.
func (d Decision) Granted() bool {
	return d.Outcome == OutcomeGranted
}

// LockoutKey returns the lockout bucket an attempt is charged to.
//
// When both factors agree the established identity is charged. A single
// matched factor charges that identity: someone is presenting that
// person's face or finger, and repeated half-matches should lock the
// target account, not the anonymous bucket. Mismatched or anonymous
// attempts are charged to the shared unknown bucket.
func LockoutKey(face, fp sensor.Verdict) string {
	switch {
	case face.Matched() && fp.Matched():
		if face.IdentityID == fp.IdentityID {
			return face.IdentityID
		}
		return UnknownKey
	case face.Matched():
		return face.IdentityID
	case fp.Matched():
		return fp.IdentityID
	default:
		return UnknownKey
	}
}
