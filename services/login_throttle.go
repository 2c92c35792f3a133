package services

import (
	"context"
	"time"

	"cafe-order/store"
)

// LoginThrottle slows down password guessing per username: every failure
// sets a cooldown of min(30, 2^failCount) seconds. Success clears it. State
// lives in the store so a restart does not reset it.
type LoginThrottle struct {
	store store.ThrottleStore
	now   func() time.Time
}

func NewLoginThrottle(st store.ThrottleStore, now func() time.Time) *LoginThrottle {
	if now == nil {
		now = time.Now
	}
	return &LoginThrottle{store: st, now: now}
}

// Wait returns how long the user must wait before trying again (0 if no cooldown).
func (t *LoginThrottle) Wait(ctx context.Context, username string) (time.Duration, error) {
	until, err := t.store.LoginCooldownUntil(ctx, username)
	if err != nil || until.IsZero() {
		return 0, err
	}
	if d := until.Sub(t.now()); d > 0 {
		return d, nil
	}
	return 0, nil
}

// RecordFailed increments the fail count and sets the cooldown.
func (t *LoginThrottle) RecordFailed(ctx context.Context, username string) error {
	return t.store.RecordLoginFailure(ctx, username, t.now().UTC().Truncate(time.Microsecond))
}

// RecordSuccess forgets previous failures for the user.
func (t *LoginThrottle) RecordSuccess(ctx context.Context, username string) error {
	return t.store.ResetLoginFailures(ctx, username)
}

// ceilSeconds rounds d up to a whole second so a short remaining cooldown
// is never reported as zero.
func ceilSeconds(d time.Duration) time.Duration {
	if r := d % time.Second; r != 0 {
		d += time.Second - r
	}
	return d
}
