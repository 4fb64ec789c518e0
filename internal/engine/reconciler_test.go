package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/wardgate/wardgate-core/internal/identity"
	"github.com/wardgate/wardgate-core/internal/sensor"
)

// mockIdentityReader serves identities from a map.
type mockIdentityReader struct {
	identities map[string]*identity.Identity
}

func (m *mockIdentityReader) Get(_ context.Context, id string) (*identity.Identity, error) {
	ident, ok := m.identities[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return ident.DeepCopy(), nil
}

func newTestReader() *mockIdentityReader {
	return &mockIdentityReader{identities: map[string]*identity.Identity{
		"idn-alice": {ID: "idn-alice", Name: "Alice", Active: true},
		"idn-bob":   {ID: "idn-bob", Name: "Bob", Active: true},
		"idn-carol": {ID: "idn-carol", Name: "Carol", Active: false},
	}}
}

func matched(id string, conf float64) sensor.Verdict {
	return sensor.Verdict{IdentityID: id, Confidence: conf}
}

func unmatched() sensor.Verdict {
	return sensor.Verdict{}
}

func failed(err error) sensor.Verdict {
	return sensor.Verdict{Err: err}
}

func TestReconcile(t *testing.T) {
	r := NewReconciler(newTestReader())

	tests := []struct {
		name         string
		face         sensor.Verdict
		fp           sensor.Verdict
		wantOutcome  Outcome
		wantReason   Reason
		wantIdentity string
	}{
		{
			name:         "both match same active identity",
			face:         matched("idn-alice", 0.9),
			fp:           matched("idn-alice", 0.7),
			wantOutcome:  OutcomeGranted,
			wantIdentity: "idn-alice",
		},
		{
			name:        "face matches, fingerprint does not",
			face:        matched("idn-alice", 0.9),
			fp:          unmatched(),
			wantOutcome: OutcomeDenied,
			wantReason:  ReasonNoMatch,
		},
		{
			name:        "fingerprint matches, face does not",
			face:        unmatched(),
			fp:          matched("idn-alice", 0.8),
			wantOutcome: OutcomeDenied,
			wantReason:  ReasonNoMatch,
		},
		{
			name:        "neither matches",
			face:        unmatched(),
			fp:          unmatched(),
			wantOutcome: OutcomeDenied,
			wantReason:  ReasonNoMatch,
		},
		{
			name:        "factors disagree on identity",
			face:        matched("idn-alice", 0.9),
			fp:          matched("idn-bob", 0.9),
			wantOutcome: OutcomeDenied,
			wantReason:  ReasonIdentityMismatch,
		},
		{
			name:         "agreed identity is disabled",
			face:         matched("idn-carol", 0.9),
			fp:           matched("idn-carol", 0.9),
			wantOutcome:  OutcomeDenied,
			wantReason:   ReasonAccountDisabled,
			wantIdentity: "idn-carol",
		},
		{
			name:        "face sensor failed",
			face:        failed(sensor.ErrTimeout),
			fp:          matched("idn-alice", 0.9),
			wantOutcome: OutcomeFailed,
		},
		{
			name:        "fingerprint sensor failed",
			face:        matched("idn-alice", 0.9),
			fp:          failed(sensor.ErrDisconnected),
			wantOutcome: OutcomeFailed,
		},
		{
			name:        "matched identity missing from store",
			face:        matched("idn-ghost", 0.9),
			fp:          matched("idn-ghost", 0.9),
			wantOutcome: OutcomeFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.Reconcile(context.Background(), tt.face, tt.fp)

			if d.Outcome != tt.wantOutcome {
				t.Errorf("Outcome = %v, want %v", d.Outcome, tt.wantOutcome)
			}
			if d.Reason != tt.wantReason {
				t.Errorf("Reason = %v, want %v", d.Reason, tt.wantReason)
			}
			if d.IdentityID != tt.wantIdentity {
				t.Errorf("IdentityID = %q, want %q", d.IdentityID, tt.wantIdentity)
			}
			if tt.wantOutcome == OutcomeFailed && d.Err == nil {
				t.Error("failed decision must carry an error")
			}
		})
	}
}

func TestReconcileConfidence(t *testing.T) {
	r := NewReconciler(newTestReader())

	d := r.Reconcile(context.Background(), matched("idn-alice", 0.9), matched("idn-alice", 0.5))
	if !d.Granted() {
		t.Fatal("expected grant")
	}
	if d.Confidence != 0.7 {
		t.Errorf("Confidence = %v, want 0.7 (mean of factors)", d.Confidence)
	}
}

func TestReconcileMismatchAttributesNobody(t *testing.T) {
	r := NewReconciler(newTestReader())

	d := r.Reconcile(context.Background(), matched("idn-alice", 0.9), matched("idn-bob", 0.9))
	if d.IdentityID != "" || d.IdentityName != "" {
		t.Errorf("mismatch decision attributed identity %q/%q, want none", d.IdentityID, d.IdentityName)
	}
}

func TestReconcileFailedJoinsErrors(t *testing.T) {
	r := NewReconciler(newTestReader())

	d := r.Reconcile(context.Background(), failed(sensor.ErrTimeout), failed(sensor.ErrDisconnected))
	if !errors.Is(d.Err, sensor.ErrTimeout) {
		t.Errorf("Err = %v, want to wrap ErrTimeout", d.Err)
	}
	if !errors.Is(d.Err, sensor.ErrDisconnected) {
		t.Errorf("Err = %v, want to wrap ErrDisconnected", d.Err)
	}
}

func TestLockoutKey(t *testing.T) {
	tests := []struct {
		name string
		face sensor.Verdict
		fp   sensor.Verdict
		want string
	}{
		{"both agree", matched("idn-alice", 1), matched("idn-alice", 1), "idn-alice"},
		{"only face", matched("idn-alice", 1), unmatched(), "idn-alice"},
		{"only fingerprint", unmatched(), matched("idn-bob", 1), "idn-bob"},
		{"mismatch", matched("idn-alice", 1), matched("idn-bob", 1), UnknownKey},
		{"nobody", unmatched(), unmatched(), UnknownKey},
		{"both failed", failed(sensor.ErrTimeout), failed(sensor.ErrTimeout), UnknownKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LockoutKey(tt.face, tt.fp); got != tt.want {
				t.Errorf("LockoutKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
