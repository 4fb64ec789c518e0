package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/wardgate/wardgate-core/internal/sensor"
)

// mockDoor records grants.
type mockDoor struct {
	mu     sync.Mutex
	grants []string
	err    error
}

func (m *mockDoor) Grant(_ context.Context, identityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grants = append(m.grants, identityID)
	return m.err
}

func (m *mockDoor) grantCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.grants)
}

// mockRecorder captures recorded attempts.
type mockRecorder struct {
	mu       sync.Mutex
	attempts []Decision
}

func (m *mockRecorder) RecordAttempt(_ context.Context, d Decision, _, _ sensor.Verdict) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, d)
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attempts)
}

func (m *mockRecorder) last() Decision {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[len(m.attempts)-1]
}

// mockAlerts captures operational alerts.
type mockAlerts struct {
	mu    sync.Mutex
	kinds []string
}

func (m *mockAlerts) Alert(kind, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kinds = append(m.kinds, kind)
}

func (m *mockAlerts) has(kind string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range m.kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func newTestEngine(face, fp sensor.Sensor, door *mockDoor, rec *mockRecorder) *Engine {
	return New(
		face, fp,
		NewReconciler(newTestReader()),
		NewLockoutPolicy(5, 300*time.Second),
		door, rec,
		Config{AttemptWindow: time.Second, IdleDelay: time.Millisecond},
	)
}

func TestAttemptGrantedUnlocksDoorAndLogs(t *testing.T) {
	door := &mockDoor{}
	rec := &mockRecorder{}
	e := newTestEngine(nil, nil, door, rec)

	d := e.Attempt(context.Background(), matched("idn-alice", 0.9), matched("idn-alice", 0.7))

	if !d.Granted() {
		t.Fatalf("Outcome = %v, want GRANTED", d.Outcome)
	}
	if door.grantCount() != 1 {
		t.Errorf("door grants = %d, want 1", door.grantCount())
	}
	if rec.count() != 1 {
		t.Errorf("recorded attempts = %d, want exactly 1", rec.count())
	}
}

func TestAttemptDeniedNeverTouchesDoor(t *testing.T) {
	tests := []struct {
		name string
		face sensor.Verdict
		fp   sensor.Verdict
	}{
		{"no match", unmatched(), unmatched()},
		{"mismatch", matched("idn-alice", 0.9), matched("idn-bob", 0.9)},
		{"disabled", matched("idn-carol", 0.9), matched("idn-carol", 0.9)},
		{"sensor failure", failed(sensor.ErrTimeout), matched("idn-alice", 0.9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			door := &mockDoor{}
			rec := &mockRecorder{}
			e := newTestEngine(nil, nil, door, rec)

			e.Attempt(context.Background(), tt.face, tt.fp)

			if door.grantCount() != 0 {
				t.Errorf("door grants = %d, want 0", door.grantCount())
			}
			if rec.count() != 1 {
				t.Errorf("recorded attempts = %d, want exactly 1", rec.count())
			}
		})
	}
}

func TestAttemptActuatorFaultStillGranted(t *testing.T) {
	door := &mockDoor{err: context.DeadlineExceeded}
	rec := &mockRecorder{}
	alerts := &mockAlerts{}
	e := newTestEngine(nil, nil, door, rec)
	e.SetAlerts(alerts)

	d := e.Attempt(context.Background(), matched("idn-alice", 0.9), matched("idn-alice", 0.9))

	if !d.Granted() {
		t.Error("actuator fault reversed the decision")
	}
	if rec.last().Outcome != OutcomeGranted {
		t.Error("audit entry does not reflect the granted decision")
	}
	if !alerts.has("actuator_fault") {
		t.Error("no actuator_fault alert raised")
	}
}

func TestAttemptLockoutAfterThreshold(t *testing.T) {
	door := &mockDoor{}
	rec := &mockRecorder{}
	alerts := &mockAlerts{}
	e := newTestEngine(nil, nil, door, rec)
	e.SetAlerts(alerts)

	// Alice's face with an unmatched finger: charged to Alice.
	for i := 0; i < 5; i++ {
		d := e.Attempt(context.Background(), matched("idn-alice", 0.9), unmatched())
		if d.Reason != ReasonNoMatch {
			t.Fatalf("attempt %d: Reason = %v, want no_match", i+1, d.Reason)
		}
	}
	if !alerts.has("lockout") {
		t.Error("no lockout alert after threshold")
	}

	// Even a perfect two-factor match is refused during cooldown.
	d := e.Attempt(context.Background(), matched("idn-alice", 1), matched("idn-alice", 1))
	if d.Outcome != OutcomeDenied || d.Reason != ReasonLockedOut {
		t.Errorf("locked-out attempt: Outcome=%v Reason=%v, want DENIED/locked_out", d.Outcome, d.Reason)
	}
	if door.grantCount() != 0 {
		t.Error("door opened for locked-out identity")
	}

	// The locked-out attempt is still audited.
	if rec.count() != 6 {
		t.Errorf("recorded attempts = %d, want 6", rec.count())
	}
}

func TestAttemptGrantResetsLockoutCounter(t *testing.T) {
	rec := &mockRecorder{}
	e := newTestEngine(nil, nil, &mockDoor{}, rec)

	for i := 0; i < 4; i++ {
		e.Attempt(context.Background(), matched("idn-alice", 0.9), unmatched())
	}
	e.Attempt(context.Background(), matched("idn-alice", 0.9), matched("idn-alice", 0.9))

	// Four more failures stay under the threshold after the reset.
	for i := 0; i < 4; i++ {
		d := e.Attempt(context.Background(), matched("idn-alice", 0.9), unmatched())
		if d.Reason == ReasonLockedOut {
			t.Fatalf("locked out %d failures after grant, counter not reset", i+1)
		}
	}
}

func TestValidateHasNoSideEffects(t *testing.T) {
	door := &mockDoor{}
	rec := &mockRecorder{}
	e := newTestEngine(nil, nil, door, rec)

	d := e.Validate(context.Background(), matched("idn-alice", 0.9), matched("idn-alice", 0.9))
	if !d.Granted() {
		t.Fatal("expected granted decision")
	}
	if door.grantCount() != 0 {
		t.Error("Validate opened the door")
	}
	if rec.count() != 0 {
		t.Error("Validate wrote an audit entry")
	}
	if e.lockout.Failures("idn-alice") != 0 {
		t.Error("Validate touched the lockout counter")
	}

	// Denials do not count either.
	e.Validate(context.Background(), unmatched(), unmatched())
	if e.lockout.Failures(UnknownKey) != 0 {
		t.Error("Validate charged the unknown bucket")
	}
}

func TestRunIdleWhenNobodyPresents(t *testing.T) {
	// Both sensors time out on every poll: the loop must stay idle and
	// write no audit entries.
	face := sensor.NewSim("face", sensor.Failed(sensor.ErrTimeout))
	fp := sensor.NewSim("fingerprint", sensor.Failed(sensor.ErrTimeout))
	rec := &mockRecorder{}
	e := newTestEngine(face, fp, &mockDoor{}, rec)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	e.Run(ctx) //nolint:errcheck // returns ctx.Err() by design

	if rec.count() != 0 {
		t.Errorf("idle loop recorded %d attempts, want 0", rec.count())
	}
}

func TestRunCompletesAttemptAndStops(t *testing.T) {
	face := sensor.NewSim("face",
		sensor.Matched("idn-alice", 0.9),
		sensor.Failed(sensor.ErrTimeout),
	)
	fp := sensor.NewSim("fingerprint",
		sensor.Matched("idn-alice", 0.8),
		sensor.Failed(sensor.ErrTimeout),
	)
	door := &mockDoor{}
	rec := &mockRecorder{}
	e := newTestEngine(face, fp, door, rec)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx) //nolint:errcheck // returns ctx.Err() by design
		close(done)
	}()

	// Wait for the first (granted) attempt to land.
	deadline := time.After(2 * time.Second)
	for rec.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("no attempt recorded before deadline")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}

	if door.grantCount() == 0 {
		t.Error("granted attempt did not open the door")
	}
	if rec.attempts[0].Outcome != OutcomeGranted {
		t.Errorf("first attempt Outcome = %v, want GRANTED", rec.attempts[0].Outcome)
	}
}
