package accesslog

import (
	"context"
	"time"

	"github.com/wardgate/wardgate-core/internal/engine"
	"github.com/wardgate/wardgate-core/internal/sensor"
)

// Retry policy for audit writes. The retries cover transient SQLite
// lock contention; anything that survives them is a real fault.
const (
	writeAttempts = 3
	retryDelay    = 50 * time.Millisecond
)

// Logger defines the logging interface used by the Recorder.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// AlertSink receives the alert raised when an entry is dropped.
type AlertSink interface {
	Alert(kind, message string)
}

// Inserter is the repository operation the recorder needs.
type Inserter interface {
	Insert(ctx context.Context, e *Entry) error
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder writes completed attempts to the audit trail with bounded
// retries. A write that keeps failing is dropped with an alert; the
// trail never blocks the door and never reverses a decision.
//
// Thread Safety:
//   - RecordAttempt is safe for concurrent use.
type Recorder struct {
	repo   Inserter
	logger Logger
	alerts AlertSink
}

// NewRecorder creates a recorder over the given repository.
func NewRecorder(repo Inserter) *Recorder {
	return &Recorder{
		repo:   repo,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the recorder.
func (r *Recorder) SetLogger(logger Logger) { r.logger = logger }

// SetAlerts attaches the sink notified when an entry is dropped.
func (r *Recorder) SetAlerts(alerts AlertSink) { r.alerts = alerts }

// RecordAttempt converts a decision into an audit entry and persists it.
// Satisfies the engine's Recorder interface.
func (r *Recorder) RecordAttempt(ctx context.Context, d engine.Decision, face, fp sensor.Verdict) {
	entry := entryFromDecision(d, face, fp)

	var err error
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		if err = r.repo.Insert(ctx, entry); err == nil {
			return
		}
		r.logger.Warn("audit write failed, retrying",
			"attempt", attempt,
			"error", err,
		)
		select {
		case <-ctx.Done():
			// Context gone: no further retries make sense.
			attempt = writeAttempts
		case <-time.After(retryDelay):
		}
	}

	// The entry is lost. This is the one condition the audit trail
	// cannot record about itself, so it goes out as an alert.
	r.logger.Error("audit entry dropped after retries",
		"entry_id", entry.ID,
		"result", entry.Result,
		"error", err,
	)
	if r.alerts != nil {
		r.alerts.Alert("log_write_failure", "audit entry dropped: "+entry.ID)
	}
}

// entryFromDecision maps a decision and its verdicts to an audit entry.
func entryFromDecision(d engine.Decision, face, fp sensor.Verdict) *Entry {
	e := &Entry{
		ID:               NewEntryID(),
		IdentityID:       d.IdentityID,
		IdentityName:     d.IdentityName,
		EventType:        EventEntry,
		Result:           string(d.Outcome),
		FaceMatch:        face.Matched(),
		FingerprintMatch: fp.Matched(),
		Confidence:       d.Confidence,
		OccurredAt:       d.DecidedAt,
	}
	switch {
	case d.Reason != "":
		e.FailureReason = string(d.Reason)
	case d.Err != nil:
		e.FailureReason = d.Err.Error()
	}
	return e
}
