package sensor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wardgate/wardgate-core/internal/identity"
)

// fingerprintSensorName is the capability name reported in verdicts.
const fingerprintSensorName = "fingerprint"

// scoreCeiling normalises sensor match scores to a confidence.
// Optical sensors in the AS608 family report scores that rarely exceed
// this under normal skin conditions.
const scoreCeiling = 200.0

// Scanner reads one fingerprint match attempt from the sensor hardware.
//
// The sensor performs matching itself against templates in its onboard
// flash and reports only the winning slot and a score. Implementations
// wrap the serial protocol (57600 baud on the reference hardware).
type Scanner interface {
	// ReadMatch blocks until a finger is placed and matched, the sensor
	// reports no-match, or the context expires.
	//
	// Returns:
	//   - slot: onboard template slot that matched, -1 for no match
	//   - score: sensor-reported match score (meaningless when slot < 0)
	//   - err: hardware or timeout error
	ReadMatch(ctx context.Context) (slot int, score int, err error)
}

// SlotResolver maps a sensor slot back to the identity that enrolled it.
// The identity Store satisfies this.
type SlotResolver interface {
	FindBySlot(slot int) (*identity.Identity, error)
}

// AcceptMode controls how sensor-native match results are accepted.
type AcceptMode string

const (
	// AcceptAny trusts every match the sensor reports.
	AcceptAny AcceptMode = "any"

	// AcceptScore additionally requires a minimum score.
	AcceptScore AcceptMode = "score"
)

// Fingerprint resolves sensor-native matches to identities.
//
// Unlike the face capability, no matching happens here: the hardware
// decides who matched and this capability only translates the slot to
// an identity and applies the accept mode.
type Fingerprint struct {
	scanner  Scanner
	resolver SlotResolver

	mode        AcceptMode
	minScore    int
	pollTimeout time.Duration
}

// NewFingerprint creates the fingerprint capability.
func NewFingerprint(scanner Scanner, resolver SlotResolver, mode AcceptMode, minScore int, pollTimeout time.Duration) *Fingerprint {
	return &Fingerprint{
		scanner:     scanner,
		resolver:    resolver,
		mode:        mode,
		minScore:    minScore,
		pollTimeout: pollTimeout,
	}
}

// Name returns "fingerprint".
func (f *Fingerprint) Name() string { return fingerprintSensorName }

// Poll reads one match attempt from the sensor.
//
// Outcomes:
//   - matched: sensor matched a slot owned by an enrolled identity and
//     the score passed the accept mode
//   - unmatched: sensor reported no match, or the score was too low
//   - failed: timeout, serial fault, or the slot is not enrolled
func (f *Fingerprint) Poll(ctx context.Context) Verdict {
	readCtx, cancel := context.WithTimeout(ctx, f.pollTimeout)
	defer cancel()

	slot, score, err := f.scanner.ReadMatch(readCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return failedVerdict(fingerprintSensorName, fmt.Errorf("%w: no finger within %v", ErrTimeout, f.pollTimeout))
		}
		return failedVerdict(fingerprintSensorName, fmt.Errorf("%w: %w", ErrDisconnected, err))
	}

	if slot < 0 {
		return unmatchedVerdict(fingerprintSensorName)
	}

	if f.mode == AcceptScore && score < f.minScore {
		return unmatchedVerdict(fingerprintSensorName)
	}

	ident, err := f.resolver.FindBySlot(slot)
	if err != nil {
		// The sensor's flash has a template the database doesn't know
		// about. Treat as a fault, not a silent no-match, so it shows
		// up in the audit trail.
		return failedVerdict(fingerprintSensorName, fmt.Errorf("%w: slot %d", ErrUnknownSlot, slot))
	}

	return matchedVerdict(fingerprintSensorName, ident.ID, confidenceFromScore(score))
}

// confidenceFromScore normalises a sensor score to [0, 1].
func confidenceFromScore(score int) float64 {
	conf := float64(score) / scoreCeiling
	if conf > 1 {
		return 1
	}
	if conf < 0 {
		return 0
	}
	return conf
}
