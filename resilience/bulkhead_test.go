package resilience

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBulkhead_BoundsConcurrency(t *testing.T) {
	b := NewBulkhead("oracle", 2)

	var active, peak int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Execute(context.Background(), func() error {
				cur := atomic.AddInt64(&active, 1)
				for {
					old := atomic.LoadInt64(&peak)
					if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt64(&active, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	if p := atomic.LoadInt64(&peak); p > 2 {
		t.Errorf("expected at most 2 concurrent executions, saw %d", p)
	}
}

func TestBulkhead_CancelWhileWaiting(t *testing.T) {
	b := NewBulkhead("oracle", 1)

	release := make(chan struct{})
	go func() {
		_ = b.Execute(context.Background(), func() error {
			<-release
			return nil
		})
	}()

	// Let the first call take the slot.
	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := b.Execute(ctx, func() error { return nil })
	if err == nil {
		t.Error("expected context error while waiting for slot")
	}
	close(release)
}

func TestExecuteWithResult(t *testing.T) {
	b := NewBulkhead("oracle", 1)
	got, err := ExecuteWithResult(b, context.Background(), func() (int, error) {
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Errorf("expected 42, got %d (err %v)", got, err)
	}
}

func TestRateLimiter_AllowConsumesTokens(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Name: "oracle", Rate: 100, Burst: 2})
	if !rl.Allow() || !rl.Allow() {
		t.Fatal("expected burst of 2 to be allowed")
	}
	if rl.Allow() {
		t.Error("expected third immediate call to be limited")
	}
}

func TestRateLimiter_WaitRefills(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Name: "oracle", Rate: 100, Burst: 1})
	if !rl.Allow() {
		t.Fatal("expected first call allowed")
	}
	start := time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > 200*time.Millisecond {
		t.Error("expected refill within ~10ms at rate 100/s")
	}
}
