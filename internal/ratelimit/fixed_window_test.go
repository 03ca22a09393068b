package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) *FixedWindowLimiter {
	t.Helper()
	mr := miniredis.RunT(t)
	limiter, err := NewFixedWindowLimiter(mr.Addr(), "", limit, window)
	if err != nil {
		t.Fatalf("NewFixedWindowLimiter() error = %v", err)
	}
	return limiter
}

func TestFixedWindowLimiter_AllowUpToLimit(t *testing.T) {
	limiter := newTestLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("user:1") {
			t.Fatalf("request %d denied, want allowed", i+1)
		}
	}
	if limiter.Allow("user:1") {
		t.Error("request over the limit was allowed")
	}

	// 不同 key 各有各的配額
	if !limiter.Allow("user:2") {
		t.Error("independent key was denied")
	}
}

func TestFixedWindowLimiter_WindowReset(t *testing.T) {
	mr := miniredis.RunT(t)
	limiter, err := NewFixedWindowLimiter(mr.Addr(), "", 1, time.Second)
	if err != nil {
		t.Fatal(err)
	}

	if !limiter.Allow("user:1") {
		t.Fatal("first request denied")
	}
	if limiter.Allow("user:1") {
		t.Fatal("second request in window allowed")
	}

	// miniredis 的時間要手動快轉
	mr.FastForward(2 * time.Second)

	if !limiter.Allow("user:1") {
		t.Error("request after window expiry denied")
	}
}

func TestFixedWindowLimiter_FailsClosedOnRedisError(t *testing.T) {
	mr := miniredis.RunT(t)
	limiter, err := NewFixedWindowLimiter(mr.Addr(), "", 10, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	mr.Close()

	if limiter.Allow("user:1") {
		t.Error("limiter must deny when redis is unreachable")
	}
}

func TestNewFixedWindowLimiterValidation(t *testing.T) {
	cases := []struct {
		name   string
		addr   string
		limit  int
		window time.Duration
	}{
		{"empty addr", "", 10, time.Minute},
		{"zero limit", "localhost:6379", 0, time.Minute},
		{"zero window", "localhost:6379", 10, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewFixedWindowLimiter(tc.addr, "", tc.limit, tc.window); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
