package engine

import (
	"sync"
	"time"
)

// UnknownKey is the shared lockout bucket for attempts that could not
// be attributed to any enrolled identity. It throttles brute-force
// probing by strangers without letting them lock out real accounts.
const UnknownKey = "unknown"

// lockoutRecord tracks consecutive failures for one key.
// Each record carries its own mutex so counting for one identity never
// contends with counting for another.
type lockoutRecord struct {
	mu          sync.Mutex
	failures    int
	lockedUntil time.Time
}

// LockoutPolicy suppresses keys that accumulate too many consecutive
// non-granted attempts.
//
// Semantics:
//   - Every denied or failed attempt increments the key's counter.
//   - Reaching the threshold starts the cooldown; further attempts are
//     refused until it elapses.
//   - A granted attempt resets the counter to zero.
//   - Cooldown expiry also resets the counter; the next failure starts
//     a fresh count.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type LockoutPolicy struct {
	threshold int
	cooldown  time.Duration

	mu      sync.Mutex // guards records map only
	records map[string]*lockoutRecord

	// now is injectable for tests.
	now func() time.Time
}

// NewLockoutPolicy creates a policy with the given threshold and cooldown.
// The reference configuration is 5 failures and a 300 second cooldown.
func NewLockoutPolicy(threshold int, cooldown time.Duration) *LockoutPolicy {
	return &LockoutPolicy{
		threshold: threshold,
		cooldown:  cooldown,
		records:   make(map[string]*lockoutRecord),
		now:       time.Now,
	}
}

// record returns the record for a key, creating it if needed.
func (p *LockoutPolicy) record(key string) *lockoutRecord {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, ok := p.records[key]
	if !ok {
		r = &lockoutRecord{}
		p.records[key] = r
	}
	return r
}

// Status reports whether a key is currently locked out and, if so, how
// long until the cooldown expires.
func (p *LockoutPolicy) Status(key string) (locked bool, remaining time.Duration) {
	r := p.record(key)
	r.mu.Lock()
	defer r.mu.Unlock()

	now := p.now()
	if r.lockedUntil.After(now) {
		return true, r.lockedUntil.Sub(now)
	}

	// Cooldown elapsed: clear any stale lock state so the next failure
	// starts a fresh count.
	if !r.lockedUntil.IsZero() {
		r.lockedUntil = time.Time{}
		r.failures = 0
	}
	return false, 0
}

// RecordFailure counts a non-granted attempt against a key.
// Returns true if this failure tripped the threshold and started the
// cooldown.
func (p *LockoutPolicy) RecordFailure(key string) bool {
	r := p.record(key)
	r.mu.Lock()
	defer r.mu.Unlock()

	now := p.now()

	// Expired lock: start fresh.
	if !r.lockedUntil.IsZero() && !r.lockedUntil.After(now) {
		r.lockedUntil = time.Time{}
		r.failures = 0
	}

	// Already locked: the failure is absorbed by the existing cooldown.
	if r.lockedUntil.After(now) {
		return false
	}

	r.failures++
	if r.failures >= p.threshold {
		r.lockedUntil = now.Add(p.cooldown)
		return true
	}
	return false
}

// Reset clears the failure count for a key after a granted attempt.
func (p *LockoutPolicy) Reset(key string) {
	r := p.record(key)
	r.mu.Lock()
	r.failures = 0
	r.lockedUntil = time.Time{}
	r.mu.Unlock()
}

// Failures returns the current consecutive failure count for a key.
// Used by tests and the admin API.
func (p *LockoutPolicy) Failures(key string) int {
	r := p.record(key)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failures
}
