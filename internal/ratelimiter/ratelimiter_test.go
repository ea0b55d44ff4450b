package ratelimiter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name              string
		requestsPerSecond uint
		burst             uint
	}{
		{name: "standard rate", requestsPerSecond: 5, burst: 10},
		{name: "zero burst", requestsPerSecond: 5, burst: 0},
		{name: "unlimited", requestsPerSecond: 0, burst: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := New(tt.requestsPerSecond, tt.burst)
			if limiter == nil || limiter.limiter == nil {
				t.Fatal("New() returned an unusable limiter")
			}
			if !limiter.Allow() {
				t.Fatal("first call should always be allowed")
			}
		})
	}
}

// TestAllowExhaustsBurst verifies the bucket empties after burst calls.
func TestAllowExhaustsBurst(t *testing.T) {
	limiter := New(10, 3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow() {
			t.Fatalf("call %d should be allowed within burst", i)
		}
	}
	if limiter.Allow() {
		t.Fatal("call should be throttled once the burst is spent")
	}

	time.Sleep(120 * time.Millisecond)

	if !limiter.Allow() {
		t.Fatal("call should be allowed after a token is replenished")
	}
}

// TestWaitContextCancellation verifies that a throttled Wait honours its context.
func TestWaitContextCancellation(t *testing.T) {
	limiter := New(1, 1)
	if !limiter.Allow() {
		t.Fatal("first call should be allowed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx); err == nil {
		t.Fatal("Wait() should fail when the context expires before a token arrives")
	}
}

func TestWaitCancelledContext(t *testing.T) {
	limiter := New(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := limiter.Wait(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// TestUnlimitedRate verifies that a zero rate never throttles.
func TestUnlimitedRate(t *testing.T) {
	limiter := New(0, 0)

	for i := 0; i < 1000; i++ {
		if !limiter.Allow() {
			t.Fatalf("unlimited limiter should allow call %d", i)
		}
	}
}

// TestConcurrentWait verifies the limiter is shared safely across goroutines.
func TestConcurrentWait(t *testing.T) {
	limiter := New(1000, 50)

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- limiter.Wait(context.Background())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected wait error: %v", err)
		}
	}
}

func BenchmarkAllowParallel(b *testing.B) {
	limiter := New(1_000_000, 1_000_000)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			limiter.Allow()
		}
	})
}
