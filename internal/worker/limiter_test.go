package worker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1) // 100 rps, burst 1
	ctx := context.Background()

	if err := limiter.Wait(ctx, "llm:anthropic"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// Different key should also work
	if err := limiter.Wait(ctx, "llm:openai"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	if err := limiter.WaitURL(ctx, "http://example.com/booking.pdf"); err != nil {
		t.Errorf("WaitURL failed: %v", err)
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	start := time.Now()
	err := limiter.WaitWithDelay(ctx, "pipeline:pacing", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}

	duration := time.Since(start)
	if duration < 50*time.Millisecond {
		t.Errorf("expected delay >= 50ms, got %v", duration)
	}
}

func TestLimiter_WaitWithDelay_Cancelled(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := limiter.WaitWithDelay(ctx, "pipeline:pacing", time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	// 1 rps, burst 1
	limiter := NewLimiter(1, 1)
	ctx := context.Background()
	key := "llm:anthropic"

	if err := limiter.Wait(ctx, key); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// burst 1: the token is consumed
	if limiter.Allow(key) {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}

	// Providers have independent budgets
	if !limiter.Allow("llm:openai") {
		t.Errorf("expected allow for other key")
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 10; i++ {
		if !limiter.Allow("llm:ollama") {
			t.Fatalf("request %d rejected by an unlimited limiter", i)
		}
	}
}

func TestLimiter_SetRate(t *testing.T) {
	limiter := NewLimiter(10, 10) // fast default
	key := "llm:anthropic"

	limiter.SetRate(key, 0.1, 1) // very slow

	if !limiter.Allow(key) {
		t.Errorf("first request should pass")
	}
	if limiter.Allow(key) {
		t.Errorf("second request should fail")
	}
	if !limiter.Allow("llm:openai") {
		t.Errorf("other key should pass")
	}
}

func TestHostKey(t *testing.T) {
	host, err := HostKey("http://example.com/foo")
	if err != nil {
		t.Fatalf("HostKey failed: %v", err)
	}
	if host != "example.com" {
		t.Errorf("expected example.com, got %s", host)
	}

	_, err = HostKey("::invalid")
	if err == nil {
		t.Errorf("expected error for invalid URL")
	}
}
