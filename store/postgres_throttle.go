package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

func (p *Postgres) LoginCooldownUntil(ctx context.Context, username string) (time.Time, error) {
	var cooldownUntil *time.Time
	err := p.pool.QueryRow(ctx, `
		SELECT cooldown_until FROM login_throttle WHERE username = $1`,
		username,
	).Scan(&cooldownUntil)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil // no row = no throttle
	}
	if err != nil {
		return time.Time{}, err
	}
	if cooldownUntil == nil {
		return time.Time{}, nil
	}
	return cooldownUntil.UTC(), nil
}

// RecordLoginFailure upserts the row. The exponent is capped at 5 so the
// ::int cast cannot overflow; 2^5 already exceeds the 30 second cap.
func (p *Postgres) RecordLoginFailure(ctx context.Context, username string, at time.Time) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO login_throttle (username, fail_count, last_failed_at, cooldown_until, updated_at)
		VALUES ($1, 1, $2::timestamptz, $2::timestamptz + (LEAST(30, POWER(2, 1)::int) || ' seconds')::interval, now())
		ON CONFLICT (username) DO UPDATE SET
			fail_count = login_throttle.fail_count + 1,
			last_failed_at = $2::timestamptz,
			cooldown_until = $2::timestamptz + (LEAST(30, POWER(2, LEAST(login_throttle.fail_count + 1, 5))::int) || ' seconds')::interval,
			updated_at = now()`,
		username, at,
	)
	return err
}

func (p *Postgres) ResetLoginFailures(ctx context.Context, username string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO login_throttle (username, fail_count, last_failed_at, cooldown_until, updated_at)
		VALUES ($1, 0, NULL, NULL, now())
		ON CONFLICT (username) DO UPDATE SET
			fail_count = 0,
			last_failed_at = NULL,
			cooldown_until = NULL,
			updated_at = now()`,
		username,
	)
	return err
}
