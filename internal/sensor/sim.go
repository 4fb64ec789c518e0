package sensor

import (
	"context"
	"sync"
	"time"
)

// Sim is a scripted sensor for simulation mode and tests.
//
// It replays a sequence of verdicts; once the script is exhausted the
// last verdict repeats. An empty script produces timeouts, which reads
// as "nobody at the door".
//
// Thread Safety:
//   - Poll is safe for concurrent use.
type Sim struct {
	name   string
	script []Verdict
	pos    int
	mu     sync.Mutex

	// Delay simulates capture latency before each verdict is returned.
	Delay time.Duration
}

// NewSim creates a scripted sensor with the given verdict sequence.
func NewSim(name string, script ...Verdict) *Sim {
	return &Sim{
		name:   name,
		script: script,
	}
}

// Name returns the configured capability name.
func (s *Sim) Name() string { return s.name }

// Poll returns the next scripted verdict, honouring the context.
func (s *Sim) Poll(ctx context.Context) Verdict {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return failedVerdict(s.name, ctx.Err())
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.script) == 0 {
		return failedVerdict(s.name, ErrTimeout)
	}

	v := s.script[s.pos]
	if s.pos < len(s.script)-1 {
		s.pos++
	}
	v.Sensor = s.name
	if v.CapturedAt.IsZero() {
		v.CapturedAt = time.Now().UTC()
	}
	return v
}

// Reset rewinds the script to the beginning.
func (s *Sim) Reset() {
	s.mu.Lock()
	s.pos = 0
	s.mu.Unlock()
}

// Matched is a convenience constructor for scripted matched verdicts.
func Matched(identityID string, confidence float64) Verdict {
	return Verdict{IdentityID: identityID, Confidence: confidence}
}

// Unmatched is a convenience constructor for scripted no-match verdicts.
func Unmatched() Verdict {
	return Verdict{}
}

// Failed is a convenience constructor for scripted failed verdicts.
func Failed(err error) Verdict {
	return Verdict{Err: err}
}
