package engine

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wardgate/wardgate-core/internal/sensor"
)

// Logger defines the logging interface used by the Engine.
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

// Door is the lock the engine drives on granted decisions.
// The door Controller satisfies this.
type Door interface {
	// Grant unlocks the door for the configured duration. An error
	// means the physical actuation failed; the logical transition has
	// still happened.
	Grant(ctx context.Context, identityID string) error
}

// Recorder persists completed attempts to the audit trail.
// The accesslog Recorder satisfies this. Implementations own their
// retry and failure handling; recording must never block an attempt
// for long or reverse a decision.
type Recorder interface {
	RecordAttempt(ctx context.Context, d Decision, face, fp sensor.Verdict)
}

// AlertSink receives operational alerts (actuator faults, lockout
// trips). Implementations typically publish to MQTT.
type AlertSink interface {
	Alert(kind, message string)
}

// Telemetry receives per-attempt metrics.
type Telemetry interface {
	AttemptObserved(result string, confidence float64, pollLatency time.Duration)
}

// Notifier receives completed decisions for live distribution
// (websocket hub, MQTT attempt topic).
type Notifier interface {
	AttemptCompleted(d Decision)
}

// Config carries the engine's timing parameters.
type Config struct {
	// AttemptWindow bounds both sensor polls of one attempt.
	AttemptWindow time.Duration

	// IdleDelay is the pause between loop iterations.
	IdleDelay time.Duration
}

// Engine runs the continuous authentication loop.
//
// Thread Safety:
//   - Run is intended to be called once, from one goroutine.
//   - Validate and Attempt are safe to call concurrently with Run.
type Engine struct {
	face        sensor.Sensor
	fingerprint sensor.Sensor
	reconciler  *Reconciler
	lockout     *LockoutPolicy
	door        Door
	recorder    Recorder

	cfg    Config
	logger Logger

	// Optional sinks, nil-safe.
	alerts    AlertSink
	telemetry Telemetry
	notifier  Notifier
}

// New creates an engine. Optional sinks are attached with the Set methods.
func New(face, fingerprint sensor.Sensor, reconciler *Reconciler, lockout *LockoutPolicy, door Door, recorder Recorder, cfg Config) *Engine {
	return &Engine{
		face:        face,
		fingerprint: fingerprint,
		reconciler:  reconciler,
		lockout:     lockout,
		door:        door,
		recorder:    recorder,
		cfg:         cfg,
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger for the engine.
func (e *Engine) SetLogger(logger Logger) { e.logger = logger }

// SetAlerts attaches an operational alert sink.
func (e *Engine) SetAlerts(alerts AlertSink) { e.alerts = alerts }

// SetTelemetry attaches an attempt metrics sink.
func (e *Engine) SetTelemetry(t Telemetry) { e.telemetry = t }

// SetNotifier attaches a live decision notifier.
func (e *Engine) SetNotifier(n Notifier) { e.notifier = n }

// Run executes the authentication loop until ctx is cancelled.
//
// Each iteration either completes one attempt (polled, reconciled,
// actioned, logged) or is idle because nobody presented. A fault in one
// iteration is logged and the loop continues. When ctx is cancelled the
// in-flight attempt finishes and is logged before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("authentication engine started",
		"attempt_window", e.cfg.AttemptWindow,
		"idle_delay", e.cfg.IdleDelay,
	)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("authentication engine stopped")
			return ctx.Err()
		default:
		}

		e.iterate(ctx)

		select {
		case <-ctx.Done():
			e.logger.Info("authentication engine stopped")
			return ctx.Err()
		case <-time.After(e.cfg.IdleDelay):
		}
	}
}

// iterate runs one loop iteration with fault isolation.
func (e *Engine) iterate(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("attempt iteration panic recovered", "panic", r)
		}
	}()

	// While the anonymous bucket is locked out there is no point
	// touching the hardware: every unattributed attempt would be
	// refused anyway. Wait out the cooldown instead of spinning.
	if locked, remaining := e.lockout.Status(UnknownKey); locked {
		e.logger.Warn("anonymous attempts suppressed", "remaining", remaining)
		select {
		case <-ctx.Done():
		case <-time.After(remaining):
		}
		return
	}

	start := time.Now()
	face, fp, ok := e.pollBoth(ctx)
	if !ok {
		return // idle iteration, nobody presented
	}

	decision := e.decide(ctx, face, fp)
	e.complete(ctx, decision, face, fp, time.Since(start))
}

// pollBoth polls the two capabilities concurrently, bounded by the
// attempt window. Returns ok=false for an idle iteration: both polls
// timed out, meaning nobody presented either factor.
func (e *Engine) pollBoth(ctx context.Context) (face, fp sensor.Verdict, ok bool) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.AttemptWindow)
	defer cancel()

	g, gctx := errgroup.WithContext(attemptCtx)
	g.Go(func() error {
		face = e.face.Poll(gctx)
		return nil
	})
	g.Go(func() error {
		fp = e.fingerprint.Poll(gctx)
		return nil
	})
	g.Wait() //nolint:errcheck // poll goroutines never return errors

	bothTimedOut := errors.Is(face.Err, sensor.ErrTimeout) && errors.Is(fp.Err, sensor.ErrTimeout)
	if bothTimedOut {
		return face, fp, false
	}
	return face, fp, true
}

// decide reconciles the verdicts and applies the lockout policy.
func (e *Engine) decide(ctx context.Context, face, fp sensor.Verdict) Decision {
	decision := e.reconciler.Reconcile(ctx, face, fp)
	key := LockoutKey(face, fp)

	// A locked key turns any outcome into a lockout denial. The
	// underlying decision never reaches the door while the cooldown
	// runs, a granted biometric match included.
	if locked, _ := e.lockout.Status(key); locked {
		return Decision{
			Outcome:            OutcomeDenied,
			Reason:             ReasonLockedOut,
			IdentityID:         decision.IdentityID,
			IdentityName:       decision.IdentityName,
			FaceMatched:        decision.FaceMatched,
			FingerprintMatched: decision.FingerprintMatched,
			DecidedAt:          decision.DecidedAt,
		}
	}

	if decision.Granted() {
		e.lockout.Reset(key)
		return decision
	}

	if tripped := e.lockout.RecordFailure(key); tripped {
		e.logger.Warn("lockout threshold reached", "key", key)
		e.alert("lockout", "lockout threshold reached for "+key)
	}
	return decision
}

// complete actions the decision and records the attempt.
func (e *Engine) complete(ctx context.Context, decision Decision, face, fp sensor.Verdict, pollLatency time.Duration) {
	if decision.Granted() {
		// Actuation faults are reported but do not reverse the
		// decision; the audit trail must reflect what was decided.
		if err := e.door.Grant(ctx, decision.IdentityID); err != nil {
			e.logger.Error("door actuation failed", "error", err, "identity_id", decision.IdentityID)
			e.alert("actuator_fault", err.Error())
		}
	}

	switch decision.Outcome {
	case OutcomeGranted:
		e.logger.Info("access granted",
			"identity_id", decision.IdentityID,
			"confidence", decision.Confidence,
		)
	case OutcomeDenied:
		e.logger.Warn("access denied",
			"reason", decision.Reason,
			"identity_id", decision.IdentityID,
		)
	case OutcomeFailed:
		e.logger.Error("attempt failed", "error", decision.Err)
	}

	// The audit write must survive engine shutdown: the in-flight
	// attempt is logged even if ctx was cancelled mid-attempt.
	recordCtx := context.WithoutCancel(ctx)
	e.recorder.RecordAttempt(recordCtx, decision, face, fp)

	if e.telemetry != nil {
		e.telemetry.AttemptObserved(string(decision.Outcome), decision.Confidence, pollLatency)
	}
	if e.notifier != nil {
		e.notifier.AttemptCompleted(decision)
	}
}

// alert sends an operational alert if a sink is attached.
func (e *Engine) alert(kind, message string) {
	if e.alerts != nil {
		e.alerts.Alert(kind, message)
	}
}

// Attempt runs the full pipeline on supplied verdicts: reconcile,
// lockout bookkeeping, door actuation, audit logging. It consumes no
// sensor poll, which makes it the path for simulated attempts and for
// exercising lockout without hardware.
func (e *Engine) Attempt(ctx context.Context, face, fp sensor.Verdict) Decision {
	start := time.Now()
	decision := e.decide(ctx, face, fp)
	e.complete(ctx, decision, face, fp, time.Since(start))
	return decision
}

// Validate reconciles supplied verdicts without side effects: no
// lockout mutation, no door, no audit entry. It answers "what would
// this pair of verdicts decide" and nothing else.
func (e *Engine) Validate(ctx context.Context, face, fp sensor.Verdict) Decision {
	return e.reconciler.Reconcile(ctx, face, fp)
}
