// Package door owns the lock state machine and the relay that drives
// the physical strike.
//
// The Controller holds the single source of truth for logical door
// state (LOCKED or UNLOCKED) behind a mutex. A granted attempt unlocks
// the door and arms an auto-relock timer; a second grant while unlocked
// extends the deadline rather than stacking timers. The timer and any
// caller race for the same mutex, so snapshots are always consistent.
//
// Physical actuation is behind the Actuator interface. A relay write
// can fail while the logical transition still proceeds: the state
// machine reflects what the system decided, and the fault is surfaced
// to the caller for alerting.
package door
