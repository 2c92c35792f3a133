package services

import (
	"context"
	"testing"
	"time"

	"cafe-order/store"
)

func TestLoginThrottle(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	th := NewLoginThrottle(store.NewMemory(), clock.Now)
	const user = "admin"

	wait := func() time.Duration {
		t.Helper()
		w, err := th.Wait(ctx, user)
		if err != nil {
			t.Fatalf("Wait: %v", err)
		}
		return w
	}

	// 1) No history, no wait
	if w := wait(); w != 0 {
		t.Errorf("fresh user: wait = %v, want 0", w)
	}

	// 2) Failed attempt sets a 2s cooldown
	if err := th.RecordFailed(ctx, user); err != nil {
		t.Fatal(err)
	}
	if w := wait(); w != 2*time.Second {
		t.Errorf("after one fail: wait = %v, want 2s", w)
	}

	// 3) Other users are unaffected
	if w, _ := th.Wait(ctx, "kasir"); w != 0 {
		t.Errorf("other user: wait = %v, want 0", w)
	}

	// 4) Cooldown expires
	clock.Advance(3 * time.Second)
	if w := wait(); w != 0 {
		t.Errorf("after cooldown: wait = %v, want 0", w)
	}

	// 5) Second failure doubles the cooldown
	th.RecordFailed(ctx, user)
	if w := wait(); w != 4*time.Second {
		t.Errorf("after two fails: wait = %v, want 4s", w)
	}

	// 6) Success resets
	th.RecordSuccess(ctx, user)
	if w := wait(); w != 0 {
		t.Errorf("after success: wait = %v, want 0", w)
	}

	// 7) Cap at 30s
	for i := 0; i < 8; i++ {
		th.RecordFailed(ctx, user)
	}
	if w := wait(); w != 30*time.Second {
		t.Errorf("after 8 fails: wait = %v, want 30s (cap)", w)
	}
}

func TestLoginThrottleSharedThroughStore(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	st := store.NewMemory()
	if err := NewLoginThrottle(st, clock.Now).RecordFailed(ctx, "admin"); err != nil {
		t.Fatal(err)
	}
	// A fresh throttle over the same store, as after a restart.
	if w, _ := NewLoginThrottle(st, clock.Now).Wait(ctx, "admin"); w != 2*time.Second {
		t.Errorf("wait after restart = %v, want 2s", w)
	}
}

func TestCeilSeconds(t *testing.T) {
	tests := []struct {
		in, want time.Duration
	}{
		{0, 0},
		{300 * time.Millisecond, time.Second},
		{2 * time.Second, 2 * time.Second},
		{2*time.Second + time.Nanosecond, 3 * time.Second},
	}
	for _, tt := range tests {
		if got := ceilSeconds(tt.in); got != tt.want {
			t.Errorf("ceilSeconds(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
