package retry

import (
	"math/rand"
	"time"
)

// Default backoff parameters, tuned for LLM provider recovery times.
const (
	DefaultBase            = 10 * time.Second
	DefaultMax             = 160 * time.Second
	DefaultOverloadedFloor = 60 * time.Second
)

// Policy computes how long to wait before retrying a failed call.
//
// The delay grows as Base * 2^attempt, jittered upward by a uniform factor in
// [1.1, 1.3] so concurrent callers do not retry in lockstep, and capped at
// Max. Overloaded failures are floored at OverloadedFloor regardless of the
// formula: an overloaded service needs real recovery time.
type Policy struct {
	Base            time.Duration
	Max             time.Duration
	OverloadedFloor time.Duration

	// jitter returns a factor in [1.1, 1.3). Overridable in tests.
	jitter func() float64
}

// NewPolicy returns a Policy with the given base delay and default cap,
// floor and jitter source.
func NewPolicy(base time.Duration) *Policy {
	return &Policy{
		Base:            base,
		Max:             DefaultMax,
		OverloadedFloor: DefaultOverloadedFloor,
		jitter:          defaultJitter,
	}
}

// DefaultPolicy returns a Policy with all defaults.
func DefaultPolicy() *Policy {
	return NewPolicy(DefaultBase)
}

// NextDelay returns the wait before retry number attempt (0-based) for a
// failure of the given kind. Must not be called with Fatal: fatal failures
// are never retried.
func (p *Policy) NextDelay(kind Kind, attempt int) time.Duration {
	base := p.Base
	if base <= 0 {
		base = DefaultBase
	}
	max := p.Max
	if max <= 0 {
		max = DefaultMax
	}

	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			delay = max
			break
		}
	}

	jitter := p.jitter
	if jitter == nil {
		jitter = defaultJitter
	}
	delay = time.Duration(float64(delay) * jitter())
	ceiling := time.Duration(float64(max) * 1.3)
	if delay > ceiling {
		delay = ceiling
	}

	if kind == Overloaded {
		floor := p.OverloadedFloor
		if floor <= 0 {
			floor = DefaultOverloadedFloor
		}
		if delay < floor {
			delay = floor
		}
	}
	return delay
}

func defaultJitter() float64 {
	return 1.1 + rand.Float64()*0.2
}
