package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLinear(t *testing.T) {
	delay := Linear(100 * time.Millisecond)
	if got := delay(1); got != 100*time.Millisecond {
		t.Errorf("delay(1) = %v, want 100ms", got)
	}
	if got := delay(3); got != 300*time.Millisecond {
		t.Errorf("delay(3) = %v, want 300ms", got)
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, Linear(time.Millisecond), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, Linear(time.Millisecond), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("conflict")
	calls := 0
	start := time.Now()
	err := Do(context.Background(), 3, Linear(10*time.Millisecond), func() error {
		calls++
		return sentinel
	})
	if err == nil {
		t.Fatal("Do should fail after exhausting attempts")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("exhaustion error should wrap the last failure, got: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	// Linear backoff: 1×10ms + 2×10ms between the three attempts.
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("expected at least 30ms of backoff, got %v", elapsed)
	}
}

func TestDo_ContextCanceledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, 5, Linear(time.Hour), func() error {
		calls++
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	sentinel := errors.New("unauthorized")
	calls := 0
	err := Do(context.Background(), 5, Linear(time.Hour), func() error {
		calls++
		return Permanent(sentinel)
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected the underlying error back, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestPermanent_NilStaysNil(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), 0, Linear(time.Millisecond), func() error {
		calls++
		return errors.New("always")
	})
	if calls != 1 {
		t.Errorf("expected at least one attempt, got %d", calls)
	}
}
