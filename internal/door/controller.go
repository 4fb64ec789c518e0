package door

import (
	"context"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// State is the logical lock state.
type State string

const (
	// StateLocked is the rest state.
	StateLocked State = "LOCKED"

	// StateUnlocked is the transient state after a grant, ended by the
	// auto-relock timer or a manual lock.
	StateUnlocked State = "UNLOCKED"
)

// Status is a consistent snapshot of the door for dashboards.
type Status struct {
	State State `json:"state"`

	// GrantedTo is the identity holding the current unlock, empty when
	// locked.
	GrantedTo string `json:"granted_to,omitempty"`

	// RelockAt is the auto-relock deadline, zero when locked.
	RelockAt time.Time `json:"relock_at,omitempty"`

	// TimeUntilRelock is the remaining unlock time, zero when locked.
	TimeUntilRelock time.Duration `json:"time_until_relock,omitempty"`
}

// Controller owns the logical door state and the auto-relock timer.
//
// Thread Safety:
//   - All methods are safe for concurrent use. The relock timer
//     contends for the same mutex as callers, so a Grant that lands
//     just before the timer fires extends the deadline and the stale
//     timer run becomes a no-op.
type Controller struct {
	actuator       Actuator
	unlockDuration time.Duration

	mu        sync.Mutex
	state     State
	grantedTo string
	relockAt  time.Time
	timer     *time.Timer

	logger   Logger
	onChange func(Status)

	// now is injectable for tests.
	now func() time.Time
}

// NewController creates a controller in the locked state.
func NewController(actuator Actuator, unlockDuration time.Duration) *Controller {
	return &Controller{
		actuator:       actuator,
		unlockDuration: unlockDuration,
		state:          StateLocked,
		logger:         noopLogger{},
		now:            time.Now,
	}
}

// SetLogger sets the logger for the controller.
func (c *Controller) SetLogger(logger Logger) { c.logger = logger }

// SetOnChange registers a callback invoked with a snapshot after every
// state transition. The callback runs with the controller unlocked and
// must not call back into the controller synchronously.
func (c *Controller) SetOnChange(fn func(Status)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Grant unlocks the door for the configured duration.
//
// A grant while already unlocked extends the relock deadline instead of
// stacking a second countdown. The returned error reports actuator
// faults only; the logical transition to UNLOCKED always happens, so
// the audit trail and the relock timer reflect the decision that was
// made.
func (c *Controller) Grant(ctx context.Context, identityID string) error {
	c.mu.Lock()

	actErr := c.actuator.Unlock(ctx)

	wasLocked := c.state == StateLocked
	c.state = StateUnlocked
	c.grantedTo = identityID
	c.relockAt = c.now().Add(c.unlockDuration)

	// Re-arm: stop any running countdown and start a fresh one for the
	// extended deadline.
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.unlockDuration, c.autoRelock)

	status := c.statusLocked()
	c.mu.Unlock()

	if wasLocked {
		c.logger.Info("door unlocked", "identity_id", identityID, "relock_in", c.unlockDuration)
	} else {
		c.logger.Info("unlock extended", "identity_id", identityID, "relock_in", c.unlockDuration)
	}
	c.notify(status)

	if actErr != nil {
		return actErr
	}
	return nil
}

// autoRelock fires when the unlock duration elapses.
func (c *Controller) autoRelock() {
	c.mu.Lock()

	// A grant may have extended the deadline after this timer was
	// armed; the deadline check under the mutex decides the race.
	if c.state != StateUnlocked || c.now().Before(c.relockAt) {
		c.mu.Unlock()
		return
	}

	actErr := c.actuator.Lock(context.Background())
	c.state = StateLocked
	c.grantedTo = ""
	c.relockAt = time.Time{}

	status := c.statusLocked()
	c.mu.Unlock()

	if actErr != nil {
		c.logger.Error("relock actuation failed", "error", actErr)
	} else {
		c.logger.Info("door relocked")
	}
	c.notify(status)
}

// Lock relocks the door immediately (manual override).
// Returns ErrAlreadyLocked if the door is not unlocked.
func (c *Controller) Lock(ctx context.Context) error {
	c.mu.Lock()

	if c.state == StateLocked {
		c.mu.Unlock()
		return ErrAlreadyLocked
	}

	if c.timer != nil {
		c.timer.Stop()
	}

	actErr := c.actuator.Lock(ctx)
	c.state = StateLocked
	c.grantedTo = ""
	c.relockAt = time.Time{}

	status := c.statusLocked()
	c.mu.Unlock()

	c.logger.Info("door locked manually")
	c.notify(status)

	return actErr
}

// Status returns a consistent snapshot of the door.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// statusLocked builds a snapshot. Caller must hold c.mu.
func (c *Controller) statusLocked() Status {
	s := Status{State: c.state}
	if c.state == StateUnlocked {
		s.GrantedTo = c.grantedTo
		s.RelockAt = c.relockAt
		if remaining := c.relockAt.Sub(c.now()); remaining > 0 {
			s.TimeUntilRelock = remaining
		}
	}
	return s
}

// Close stops the relock timer. The logical state is left as-is; on
// shutdown the actuator's fail-secure wiring is what locks the door,
// not a last-gasp software write.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	return nil
}

// notify delivers a snapshot to the change callback if one is set.
func (c *Controller) notify(status Status) {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(status)
	}
}
