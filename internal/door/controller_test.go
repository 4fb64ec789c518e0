package door

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestGrantUnlocksAndAutoRelocks(t *testing.T) {
	act := NewSimActuator()
	c := NewController(act, 30*time.Millisecond)
	defer c.Close()

	if err := c.Grant(context.Background(), "idn-alice"); err != nil {
		t.Fatalf("Grant() error: %v", err)
	}

	status := c.Status()
	if status.State != StateUnlocked {
		t.Fatalf("State = %v, want UNLOCKED", status.State)
	}
	if status.GrantedTo != "idn-alice" {
		t.Errorf("GrantedTo = %q, want idn-alice", status.GrantedTo)
	}
	if status.TimeUntilRelock <= 0 {
		t.Error("TimeUntilRelock should be positive while unlocked")
	}

	// Wait for the auto-relock timer.
	deadline := time.After(time.Second)
	for c.Status().State != StateLocked {
		select {
		case <-deadline:
			t.Fatal("door did not relock")
		case <-time.After(5 * time.Millisecond):
		}
	}

	unlocks, locks := act.Counts()
	if unlocks != 1 || locks != 1 {
		t.Errorf("actuator calls = %d unlocks / %d locks, want 1/1", unlocks, locks)
	}
}

func TestReentrantGrantExtendsDeadline(t *testing.T) {
	act := NewSimActuator()
	c := NewController(act, 60*time.Millisecond)
	defer c.Close()

	c.Grant(context.Background(), "idn-alice") //nolint:errcheck // sim actuator cannot fail here
	first := c.Status().RelockAt

	time.Sleep(20 * time.Millisecond)

	c.Grant(context.Background(), "idn-bob") //nolint:errcheck // sim actuator cannot fail here
	second := c.Status().RelockAt

	if !second.After(first) {
		t.Error("second grant did not extend the relock deadline")
	}
	if got := c.Status().GrantedTo; got != "idn-bob" {
		t.Errorf("GrantedTo = %q, want idn-bob (latest grant wins)", got)
	}

	// The door must stay unlocked past the first deadline.
	time.Sleep(50 * time.Millisecond)
	if c.Status().State != StateUnlocked {
		t.Error("door relocked at the first deadline despite extension")
	}

	// And relock after the extended one.
	deadline := time.After(time.Second)
	for c.Status().State != StateLocked {
		select {
		case <-deadline:
			t.Fatal("door never relocked after extension")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestActuatorFaultStillTransitions(t *testing.T) {
	act := NewSimActuator()
	act.FailWith = errors.New("relay stuck")
	c := NewController(act, time.Minute)
	defer c.Close()

	err := c.Grant(context.Background(), "idn-alice")
	if err == nil {
		t.Fatal("Grant() should report the actuator fault")
	}
	if c.Status().State != StateUnlocked {
		t.Error("logical state did not transition despite reported fault")
	}
}

func TestManualLock(t *testing.T) {
	act := NewSimActuator()
	c := NewController(act, time.Minute)
	defer c.Close()

	if err := c.Lock(context.Background()); !errors.Is(err, ErrAlreadyLocked) {
		t.Errorf("Lock() on locked door = %v, want ErrAlreadyLocked", err)
	}

	c.Grant(context.Background(), "idn-alice") //nolint:errcheck // sim actuator cannot fail here
	if err := c.Lock(context.Background()); err != nil {
		t.Fatalf("Lock() error: %v", err)
	}

	status := c.Status()
	if status.State != StateLocked {
		t.Errorf("State = %v, want LOCKED", status.State)
	}
	if status.GrantedTo != "" {
		t.Errorf("GrantedTo = %q after lock, want empty", status.GrantedTo)
	}
}

func TestOnChangeNotifications(t *testing.T) {
	act := NewSimActuator()
	c := NewController(act, 20*time.Millisecond)
	defer c.Close()

	var (
		mu     sync.Mutex
		states []State
	)
	c.SetOnChange(func(s Status) {
		mu.Lock()
		states = append(states, s.State)
		mu.Unlock()
	})

	c.Grant(context.Background(), "idn-alice") //nolint:errcheck // sim actuator cannot fail here

	deadline := time.After(time.Second)
	for {
		mu.Lock()
		n := len(states)
		mu.Unlock()
		if n >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("expected unlock and relock notifications")
		case <-time.After(5 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if states[0] != StateUnlocked || states[1] != StateLocked {
		t.Errorf("notifications = %v, want [UNLOCKED LOCKED]", states)
	}
}

func TestStatusSnapshotConsistency(t *testing.T) {
	act := NewSimActuator()
	c := NewController(act, 10*time.Millisecond)
	defer c.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			c.Grant(context.Background(), "idn-alice") //nolint:errcheck // sim actuator cannot fail here
			time.Sleep(time.Millisecond)
		}
	}()

	// Concurrent readers must never observe a torn snapshot: an
	// unlocked state always carries a holder and a deadline.
	for {
		select {
		case <-done:
			return
		default:
		}
		s := c.Status()
		if s.State == StateUnlocked && (s.GrantedTo == "" || s.RelockAt.IsZero()) {
			t.Fatalf("torn snapshot: %+v", s)
		}
		if s.State == StateLocked && (s.GrantedTo != "" || !s.RelockAt.IsZero()) {
			t.Fatalf("torn snapshot: %+v", s)
		}
	}
}
