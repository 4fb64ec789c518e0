package engine

import (
	"sync"
	"testing"
	"time"
)

// fixedClock lets tests control the policy's notion of now.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestPolicy(threshold int, cooldown time.Duration) (*LockoutPolicy, *fixedClock) {
	clock := &fixedClock{t: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
	p := NewLockoutPolicy(threshold, cooldown)
	p.now = clock.now
	return p, clock
}

func TestLockoutThreshold(t *testing.T) {
	p, _ := newTestPolicy(5, 300*time.Second)

	for i := 1; i <= 4; i++ {
		if tripped := p.RecordFailure("idn-alice"); tripped {
			t.Fatalf("failure %d tripped lockout, want threshold at 5", i)
		}
		if locked, _ := p.Status("idn-alice"); locked {
			t.Fatalf("locked after %d failures, want threshold at 5", i)
		}
	}

	if tripped := p.RecordFailure("idn-alice"); !tripped {
		t.Fatal("fifth failure did not trip lockout")
	}
	locked, remaining := p.Status("idn-alice")
	if !locked {
		t.Fatal("not locked after threshold")
	}
	if remaining != 300*time.Second {
		t.Errorf("remaining = %v, want 300s", remaining)
	}
}

func TestLockoutCooldownExpiry(t *testing.T) {
	p, clock := newTestPolicy(2, 300*time.Second)

	p.RecordFailure("idn-alice")
	p.RecordFailure("idn-alice")
	if locked, _ := p.Status("idn-alice"); !locked {
		t.Fatal("expected lock")
	}

	clock.advance(301 * time.Second)

	if locked, _ := p.Status("idn-alice"); locked {
		t.Error("still locked after cooldown elapsed")
	}
	// Counter restarted: one fresh failure must not re-lock.
	if tripped := p.RecordFailure("idn-alice"); tripped {
		t.Error("single failure after expiry re-tripped lockout")
	}
}

func TestLockoutResetOnGrant(t *testing.T) {
	p, _ := newTestPolicy(5, 300*time.Second)

	for i := 0; i < 4; i++ {
		p.RecordFailure("idn-alice")
	}
	p.Reset("idn-alice")

	if got := p.Failures("idn-alice"); got != 0 {
		t.Errorf("Failures = %d after reset, want 0", got)
	}
	if tripped := p.RecordFailure("idn-alice"); tripped {
		t.Error("failure after reset tripped lockout, counter did not restart")
	}
}

func TestLockoutKeysIndependent(t *testing.T) {
	p, _ := newTestPolicy(2, 300*time.Second)

	p.RecordFailure("idn-alice")
	p.RecordFailure("idn-alice")
	p.RecordFailure(UnknownKey)

	if locked, _ := p.Status("idn-alice"); !locked {
		t.Error("alice should be locked")
	}
	if locked, _ := p.Status(UnknownKey); locked {
		t.Error("unknown bucket locked by alice's failures")
	}
	if locked, _ := p.Status("idn-bob"); locked {
		t.Error("bob locked without any failures")
	}
}

func TestLockoutFailuresDuringCooldownAbsorbed(t *testing.T) {
	p, clock := newTestPolicy(2, 300*time.Second)

	p.RecordFailure("idn-alice")
	p.RecordFailure("idn-alice")

	// Failures while locked do not extend the cooldown.
	clock.advance(200 * time.Second)
	p.RecordFailure("idn-alice")

	_, remaining := p.Status("idn-alice")
	if remaining != 100*time.Second {
		t.Errorf("remaining = %v, want 100s (cooldown not extended)", remaining)
	}
}

func TestLockoutConcurrentAccess(t *testing.T) {
	p, _ := newTestPolicy(1000, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				p.RecordFailure("idn-alice")
				p.Status("idn-alice")
			}
		}()
	}
	wg.Wait()

	if got := p.Failures("idn-alice"); got != 500 {
		t.Errorf("Failures = %d, want 500", got)
	}
}
