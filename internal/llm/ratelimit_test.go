package llm

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterAllowsBurstUpToCapacity(t *testing.T) {
	rl := newRateLimiter(10)
	defer rl.Close()

	for i := 0; i < 10; i++ {
		if !rl.tryAcquire() {
			t.Fatalf("acquire %d should succeed within capacity", i)
		}
	}
	if rl.tryAcquire() {
		t.Error("acquire beyond capacity should fail")
	}
}

func TestRateLimiterWaitHonorsContext(t *testing.T) {
	rl := newRateLimiter(1)
	defer rl.Close()

	// Drain the bucket.
	if !rl.tryAcquire() {
		t.Fatal("initial acquire should succeed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := rl.wait(ctx)
	if err == nil {
		t.Fatal("wait should fail when the context expires before a token refills")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("wait took %v, should return promptly after cancellation", elapsed)
	}
}

func TestRateLimiterDefaultsOnInvalidRate(t *testing.T) {
	rl := newRateLimiter(0)
	defer rl.Close()

	if rl.capacity != 60 {
		t.Errorf("capacity = %d, want default 60", rl.capacity)
	}
}
