package retry

import (
	"testing"
	"time"
)

func fixedJitterPolicy(base time.Duration, factor float64) *Policy {
	p := NewPolicy(base)
	p.jitter = func() float64 { return factor }
	return p
}

func TestNextDelayExponentialGrowth(t *testing.T) {
	p := fixedJitterPolicy(time.Second, 1.1)
	p.Max = time.Hour

	prev := time.Duration(0)
	for attempt := 0; attempt < 5; attempt++ {
		delay := p.NextDelay(TransientOther, attempt)
		if delay <= prev {
			t.Fatalf("attempt %d: delay %s not greater than previous %s", attempt, delay, prev)
		}
		prev = delay
	}

	// Doubling: attempt 3 is exactly twice attempt 2 under fixed jitter.
	d2 := p.NextDelay(TransientOther, 2)
	d3 := p.NextDelay(TransientOther, 3)
	if d3 != 2*d2 {
		t.Fatalf("expected doubling, got %s then %s", d2, d3)
	}
}

func TestNextDelayJitterRange(t *testing.T) {
	p := NewPolicy(10 * time.Second)
	p.Max = time.Hour

	for i := 0; i < 100; i++ {
		delay := p.NextDelay(TransientOther, 0)
		if delay < 11*time.Second || delay > 13*time.Second {
			t.Fatalf("delay %s outside jittered range [11s, 13s]", delay)
		}
	}
}

func TestNextDelayJitterNeverDecreases(t *testing.T) {
	p := NewPolicy(time.Second)
	p.Max = time.Hour

	for i := 0; i < 100; i++ {
		if delay := p.NextDelay(TransientOther, 0); delay < time.Second {
			t.Fatalf("jitter decreased delay below base: %s", delay)
		}
	}
}

func TestNextDelayOverloadedFloor(t *testing.T) {
	p := fixedJitterPolicy(time.Second, 1.1)

	if delay := p.NextDelay(Overloaded, 0); delay < 60*time.Second {
		t.Fatalf("overloaded delay %s below 60s floor", delay)
	}
	// Other kinds are not floored.
	if delay := p.NextDelay(RateLimited, 0); delay >= 60*time.Second {
		t.Fatalf("rate-limited delay %s unexpectedly floored", delay)
	}
}

func TestNextDelayCap(t *testing.T) {
	p := fixedJitterPolicy(time.Second, 1.1)
	p.Max = 8 * time.Second

	delay := p.NextDelay(TransientOther, 10)
	ceiling := time.Duration(float64(8*time.Second) * 1.3)
	if delay > ceiling {
		t.Fatalf("delay %s exceeds jittered cap %s", delay, ceiling)
	}
}

func TestNextDelayZeroValueDefaults(t *testing.T) {
	var p Policy
	if delay := p.NextDelay(Overloaded, 0); delay < DefaultOverloadedFloor {
		t.Fatalf("zero-value policy delay %s below default floor", delay)
	}
}
