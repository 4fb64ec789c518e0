package sensor

import (
	"context"
	"time"
)

// Sensor is a biometric capability polled by the authentication engine.
//
// Implementations must honour the context deadline: a Poll that cannot
// produce a reading in time returns a failed Verdict carrying
// ErrTimeout rather than blocking.
type Sensor interface {
	// Name identifies the capability ("face", "fingerprint").
	Name() string

	// Poll attempts one biometric reading. It never returns an error
	// directly; hardware faults and timeouts are folded into the
	// Verdict so the engine has a single result shape to reconcile.
	Poll(ctx context.Context) Verdict
}

// Verdict is the outcome of a single sensor poll.
//
// Exactly one of three shapes:
//   - matched:   Err == nil, IdentityID != ""
//   - unmatched: Err == nil, IdentityID == "" (someone was read, nobody matched)
//   - failed:    Err != nil
type Verdict struct {
	// Sensor is the name of the capability that produced this verdict.
	Sensor string `json:"sensor"`

	// IdentityID is the matched identity, or empty if no match.
	IdentityID string `json:"identity_id,omitempty"`

	// Confidence is the match confidence in [0, 1]. Zero when unmatched
	// or failed.
	Confidence float64 `json:"confidence"`

	// Err is set when the poll failed (timeout, disconnect).
	Err error `json:"-"`

	// CapturedAt is when the reading completed.
	CapturedAt time.Time `json:"captured_at"`
}

// Matched reports whether the verdict identifies someone.
func (v Verdict) Matched() bool {
	return v.Err == nil && v.IdentityID != ""
}

// Failed reports whether the poll failed outright.
func (v Verdict) Failed() bool {
	return v.Err != nil
}

// matchedVerdict builds a successful verdict.
func matchedVerdict(sensor, identityID string, confidence float64) Verdict {
	return Verdict{
		Sensor:     sensor,
		IdentityID: identityID,
		Confidence: confidence,
		CapturedAt: time.Now().UTC(),
	}
}

// unmatchedVerdict builds a verdict for a reading that matched nobody.
func unmatchedVerdict(sensor string) Verdict {
	return Verdict{
		Sensor:     sensor,
		CapturedAt: time.Now().UTC(),
	}
}

// failedVerdict builds a verdict for a failed poll.
func failedVerdict(sensor string, err error) Verdict {
	return Verdict{
		Sensor:     sensor,
		Err:        err,
		CapturedAt: time.Now().UTC(),
	}
}
