package mqtt

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoffSequence(t *testing.T) {
	b := NewBackoff(time.Second, 30*time.Second)

	want := []time.Duration{1, 2, 4, 8, 16, 30, 30, 30}
	var prev time.Duration
	for i, w := range want {
		got := b.Next()
		if got != w*time.Second {
			t.Errorf("Next() #%d = %v, want %v", i+1, got, w*time.Second)
		}
		if got < prev {
			t.Errorf("Next() #%d = %v decreased from %v", i+1, got, prev)
		}
		prev = got
	}

	for range 100 {
		if got := b.Next(); got > 30*time.Second {
			t.Fatalf("Next() = %v, exceeds cap", got)
		}
	}
}

func TestBackoffReset(t *testing.T) {
	b := NewBackoff(time.Second, 30*time.Second)
	b.Next()
	b.Next()
	b.Reset()

	if got := b.Next(); got != time.Second {
		t.Errorf("Next() after Reset = %v, want 1s", got)
	}
}

func TestBackoffClampsInitial(t *testing.T) {
	b := NewBackoff(time.Minute, 30*time.Second)
	if got := b.Next(); got != 30*time.Second {
		t.Errorf("Next() = %v, want 30s", got)
	}
}

func TestSleepContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := sleepContext(ctx, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("sleepContext() error = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("sleepContext() did not return promptly on cancelled context")
	}
}

func TestSleepContextElapses(t *testing.T) {
	if err := sleepContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("sleepContext() error = %v, want nil", err)
	}
}
