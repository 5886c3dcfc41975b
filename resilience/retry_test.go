package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, BackoffFactor: 2}
}

func TestRetry_SucceedsAfterRetry(t *testing.T) {
	calls := 0
	got, err := Retry(context.Background(), fastRetry(3), func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("temporary")
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("got %q, %v", got, err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetry_ReturnsLastError(t *testing.T) {
	errPersistent := errors.New("persistent")
	calls := 0
	_, err := Retry(context.Background(), fastRetry(3), func() (int, error) {
		calls++
		return 0, errPersistent
	})
	if !errors.Is(err, errPersistent) || calls != 3 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestRetry_RetryIfStopsEarly(t *testing.T) {
	errFinal := errors.New("not retryable")
	cfg := fastRetry(5)
	cfg.RetryIf = func(err error) bool { return !errors.Is(err, errFinal) }

	calls := 0
	err := RetryFunc(context.Background(), cfg, func() error {
		calls++
		return errFinal
	})
	if !errors.Is(err, errFinal) || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestRetry_OnRetryAndContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastRetry(5)
	var retries []int
	cfg.OnRetry = func(attempt int, _ error, _ time.Duration) {
		retries = append(retries, attempt)
		if attempt == 2 {
			cancel()
		}
	}

	err := RetryFunc(ctx, cfg, func() error { return errors.New("down") })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(retries) != 2 {
		t.Errorf("retries = %v", retries)
	}
}

func TestBackoff(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, BackoffFactor: 2}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{6, time.Second},
	}
	for _, tt := range tests {
		if got := Backoff(tt.attempt, cfg); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}

	cfg.Jitter = 0.5
	for i := 0; i < 20; i++ {
		if got := Backoff(1, cfg); got < 50*time.Millisecond || got > 150*time.Millisecond {
			t.Fatalf("jittered backoff %v out of range", got)
		}
	}
}
