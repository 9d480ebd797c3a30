package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Attempt records one invocation of a remote operation. Immutable once
// appended to the call log.
type Attempt struct {
	Index int           `json:"index"`
	Kind  Kind          `json:"kind,omitempty"`
	Delay time.Duration `json:"delay,omitempty"`
	Error string        `json:"error,omitempty"`
}

// Operation is one unit of remote work, typically a single backend invocation.
type Operation func(ctx context.Context) (string, error)

// Caller retries a single remote operation under a per-call deadline,
// classifying failures and backing off between attempts. Every remote call
// site in the system goes through a Caller; nothing bypasses it.
//
// A Caller is not safe for concurrent use: the attempt log belongs to the
// most recent call.
type Caller struct {
	Policy      *Policy
	MaxAttempts int
	CallTimeout time.Duration
	Logger      *slog.Logger

	// sleep waits between attempts. Overridable in tests.
	sleep func(ctx context.Context, d time.Duration) error

	attempts []Attempt
}

// Default call parameters, mirroring the per-call limits the pipeline was
// tuned with.
const (
	DefaultMaxAttempts = 5
	DefaultCallTimeout = 120 * time.Second
)

// NewCaller returns a Caller with the given policy and defaults for the rest.
func NewCaller(policy *Policy) *Caller {
	return &Caller{
		Policy:      policy,
		MaxAttempts: DefaultMaxAttempts,
		CallTimeout: DefaultCallTimeout,
	}
}

// Call invokes op until it succeeds, fails fatally, or the attempt cap is
// reached. The loop runs MaxAttempts+1 invocations at most: attempt indices
// 0..MaxAttempts, the last one with no further retry. The label names the
// call in logs and has no semantic effect.
func (c *Caller) Call(ctx context.Context, label string, op Operation) (string, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := c.Policy
	if policy == nil {
		policy = DefaultPolicy()
	}
	maxAttempts := c.MaxAttempts
	if maxAttempts < 0 {
		maxAttempts = 0
	}
	callTimeout := c.CallTimeout
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	sleep := c.sleep
	if sleep == nil {
		sleep = sleepWithContext
	}

	c.attempts = c.attempts[:0]
	var lastErr error

	for attempt := 0; attempt <= maxAttempts; attempt++ {
		result, err := Bounded(ctx, callTimeout, op)
		if err == nil {
			c.attempts = append(c.attempts, Attempt{Index: attempt})
			return result, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		lastErr = err
		kind := Classify(err)

		if kind == Fatal || attempt == maxAttempts {
			c.attempts = append(c.attempts, Attempt{Index: attempt, Kind: kind, Error: err.Error()})
			logger.Warn("call failed",
				"call", label, "attempt", attempt, "kind", kind, "error", err)
			return "", fmt.Errorf("%s failed after %d attempt(s): %w", label, attempt+1, err)
		}

		delay := policy.NextDelay(kind, attempt)
		c.attempts = append(c.attempts, Attempt{Index: attempt, Kind: kind, Delay: delay, Error: err.Error()})
		logger.Warn("call failed, retrying",
			"call", label, "attempt", attempt, "kind", kind, "delay", delay, "error", err)

		if err := sleep(ctx, delay); err != nil {
			return "", err
		}
	}

	// Unreachable: the loop always returns.
	return "", fmt.Errorf("%s failed: %w", label, lastErr)
}

// Attempts returns the attempt log of the most recent Call.
func (c *Caller) Attempts() []Attempt {
	out := make([]Attempt, len(c.attempts))
	copy(out, c.attempts)
	return out
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
