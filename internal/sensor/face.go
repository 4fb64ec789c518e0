package sensor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wardgate/wardgate-core/internal/identity"
)

// faceSensorName is the capability name reported in verdicts.
const faceSensorName = "face"

// Camera captures a single face encoding from the video device.
//
// Implementations wrap the actual frame grabber and encoder pipeline.
// Capture blocks until a face is in frame or the context expires.
type Camera interface {
	// Capture returns a 128-dimension face encoding for the person in
	// frame. It returns context.DeadlineExceeded when nobody appears
	// within the deadline.
	Capture(ctx context.Context) ([]float64, error)
}

// CandidateSource supplies the enrolled face encodings to match against.
// The identity Store satisfies this.
type CandidateSource interface {
	FaceCandidates() []identity.FaceCandidate
}

// Face matches camera captures against enrolled encodings.
//
// Matching is distance-based: the probe encoding is compared with every
// candidate by Euclidean distance and the closest one wins, provided it
// is within the configured tolerance. Confidence is derived from the
// distance (closer is more confident).
type Face struct {
	camera     Camera
	candidates CandidateSource

	// tolerance is the maximum accepted distance. The reference value
	// is 0.6; lower is stricter.
	tolerance float64

	// pollTimeout bounds a single capture.
	pollTimeout time.Duration
}

// NewFace creates the face capability.
func NewFace(camera Camera, candidates CandidateSource, tolerance float64, pollTimeout time.Duration) *Face {
	return &Face{
		camera:      camera,
		candidates:  candidates,
		tolerance:   tolerance,
		pollTimeout: pollTimeout,
	}
}

// Name returns "face".
func (f *Face) Name() string { return faceSensorName }

// Poll captures one frame and matches it against enrolled encodings.
//
// Outcomes:
//   - matched: closest candidate within tolerance
//   - unmatched: a face was captured but no candidate is close enough
//   - failed: capture timed out or the camera is unreachable
func (f *Face) Poll(ctx context.Context) Verdict {
	captureCtx, cancel := context.WithTimeout(ctx, f.pollTimeout)
	defer cancel()

	probe, err := f.camera.Capture(captureCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return failedVerdict(faceSensorName, fmt.Errorf("%w: no face within %v", ErrTimeout, f.pollTimeout))
		}
		return failedVerdict(faceSensorName, fmt.Errorf("%w: %w", ErrDisconnected, err))
	}

	identityID, distance, found := f.closestCandidate(probe)
	if !found || distance > f.tolerance {
		return unmatchedVerdict(faceSensorName)
	}

	return matchedVerdict(faceSensorName, identityID, confidenceFromDistance(distance))
}

// closestCandidate finds the enrolled encoding nearest to the probe.
func (f *Face) closestCandidate(probe []float64) (identityID string, distance float64, found bool) {
	best := math.MaxFloat64
	for _, c := range f.candidates.FaceCandidates() {
		d, ok := euclideanDistance(probe, c.Encoding)
		if !ok {
			continue // dimension mismatch, skip corrupt candidate
		}
		if d < best {
			best = d
			identityID = c.IdentityID
			found = true
		}
	}
	return identityID, best, found
}

// euclideanDistance computes the L2 distance between two encodings.
// Returns ok=false when the vectors have different dimensions.
func euclideanDistance(a, b []float64) (float64, bool) {
	if len(a) != len(b) {
		return 0, false
	}
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum), true
}

// confidenceFromDistance maps an encoding distance to a confidence in
// [0, 1]. A distance of 0 is a perfect match; 1 or more is no
// confidence at all.
func confidenceFromDistance(distance float64) float64 {
	conf := 1.0 - distance
	if conf < 0 {
		return 0
	}
	if conf > 1 {
		return 1
	}
	return conf
}
