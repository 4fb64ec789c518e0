package sensor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wardgate/wardgate-core/internal/identity"
)

// mockCamera returns a fixed encoding or error.
type mockCamera struct {
	encoding []float64
	err      error
}

func (m *mockCamera) Capture(_ context.Context) ([]float64, error) {
	return m.encoding, m.err
}

// mockCandidates serves a fixed candidate set.
type mockCandidates struct {
	candidates []identity.FaceCandidate
}

func (m *mockCandidates) FaceCandidates() []identity.FaceCandidate {
	return m.candidates
}

// encodingAt returns a 128-dim encoding with every component set to v.
func encodingAt(v float64) []float64 {
	enc := make([]float64, 128)
	for i := range enc {
		enc[i] = v
	}
	return enc
}

func TestFacePoll(t *testing.T) {
	// alice sits at the origin, bob far away
	candidates := &mockCandidates{candidates: []identity.FaceCandidate{
		{IdentityID: "idn-alice", Encoding: encodingAt(0)},
		{IdentityID: "idn-bob", Encoding: encodingAt(1)},
	}}

	tests := []struct {
		name         string
		probe        []float64
		wantIdentity string
		wantMatched  bool
	}{
		{
			name:         "exact match",
			probe:        encodingAt(0),
			wantIdentity: "idn-alice",
			wantMatched:  true,
		},
		{
			name:         "close match within tolerance",
			probe:        encodingAt(0.01), // distance ~0.113
			wantIdentity: "idn-alice",
			wantMatched:  true,
		},
		{
			name:        "no candidate within tolerance",
			probe:       encodingAt(0.5), // distance ~5.66 to both
			wantMatched: false,
		},
		{
			name:         "closest candidate wins",
			probe:        encodingAt(0.99),
			wantIdentity: "idn-bob",
			wantMatched:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			face := NewFace(&mockCamera{encoding: tt.probe}, candidates, 0.6, time.Second)

			v := face.Poll(context.Background())
			if v.Failed() {
				t.Fatalf("Poll() failed: %v", v.Err)
			}
			if v.Matched() != tt.wantMatched {
				t.Errorf("Matched() = %v, want %v", v.Matched(), tt.wantMatched)
			}
			if v.IdentityID != tt.wantIdentity {
				t.Errorf("IdentityID = %q, want %q", v.IdentityID, tt.wantIdentity)
			}
		})
	}
}

func TestFacePollConfidence(t *testing.T) {
	candidates := &mockCandidates{candidates: []identity.FaceCandidate{
		{IdentityID: "idn-alice", Encoding: encodingAt(0)},
	}}
	face := NewFace(&mockCamera{encoding: encodingAt(0)}, candidates, 0.6, time.Second)

	v := face.Poll(context.Background())
	if !v.Matched() {
		t.Fatal("expected match")
	}
	if v.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0 for exact match", v.Confidence)
	}
}

func TestFacePollTimeout(t *testing.T) {
	candidates := &mockCandidates{}
	face := NewFace(&mockCamera{err: context.DeadlineExceeded}, candidates, 0.6, time.Second)

	v := face.Poll(context.Background())
	if !v.Failed() {
		t.Fatal("expected failed verdict")
	}
	if !errors.Is(v.Err, ErrTimeout) {
		t.Errorf("Err = %v, want ErrTimeout", v.Err)
	}
}

func TestFacePollDisconnected(t *testing.T) {
	candidates := &mockCandidates{}
	face := NewFace(&mockCamera{err: errors.New("v4l2: device gone")}, candidates, 0.6, time.Second)

	v := face.Poll(context.Background())
	if !errors.Is(v.Err, ErrDisconnected) {
		t.Errorf("Err = %v, want ErrDisconnected", v.Err)
	}
}

func TestFacePollSkipsDimensionMismatch(t *testing.T) {
	candidates := &mockCandidates{candidates: []identity.FaceCandidate{
		{IdentityID: "idn-corrupt", Encoding: []float64{1, 2, 3}},
		{IdentityID: "idn-alice", Encoding: encodingAt(0)},
	}}
	face := NewFace(&mockCamera{encoding: encodingAt(0)}, candidates, 0.6, time.Second)

	v := face.Poll(context.Background())
	if v.IdentityID != "idn-alice" {
		t.Errorf("IdentityID = %q, want idn-alice (mismatched candidate skipped)", v.IdentityID)
	}
}
