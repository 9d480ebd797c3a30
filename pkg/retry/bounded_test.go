package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBoundedReturnsResult(t *testing.T) {
	got, err := Bounded(context.Background(), time.Second, func(_ context.Context) (string, error) {
		return "done", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "done" {
		t.Fatalf("got %q", got)
	}
}

func TestBoundedPropagatesWorkError(t *testing.T) {
	wantErr := errors.New("boom")
	_, err := Bounded(context.Background(), time.Second, func(_ context.Context) (string, error) {
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected work error, got %v", err)
	}
}

func TestBoundedDeadline(t *testing.T) {
	budget := 50 * time.Millisecond
	start := time.Now()

	_, err := Bounded(context.Background(), budget, func(ctx context.Context) (string, error) {
		select {
		case <-time.After(5 * time.Second):
			return "too late", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	elapsed := time.Since(start)

	if !errors.Is(err, ErrDeadline) {
		t.Fatalf("expected ErrDeadline, got %v", err)
	}
	// The caller must unblock at the budget, not at the work's duration.
	if elapsed > time.Second {
		t.Fatalf("caller blocked for %s, budget was %s", elapsed, budget)
	}
}

func TestBoundedAbandonsHungWorker(t *testing.T) {
	// A worker that never observes its context must not block the caller.
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	_, err := Bounded(context.Background(), 20*time.Millisecond, func(_ context.Context) (string, error) {
		<-release
		return "late", nil
	})
	if !errors.Is(err, ErrDeadline) {
		t.Fatalf("expected ErrDeadline, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("caller blocked for %s on a hung worker", elapsed)
	}
}

func TestBoundedParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Bounded(ctx, time.Minute, func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBoundedWorkerSeesDeadline(t *testing.T) {
	_, err := Bounded(context.Background(), 20*time.Millisecond, func(ctx context.Context) (string, error) {
		deadline, ok := ctx.Deadline()
		if !ok {
			t.Error("worker context has no deadline")
		}
		if time.Until(deadline) > 25*time.Millisecond {
			t.Errorf("worker deadline %s further out than budget", time.Until(deadline))
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
