package store

import (
	"context"
	"errors"

	"cafe-order/models"

	"github.com/jackc/pgx/v5"
)

func (p *Postgres) GetAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var u models.AdminUser
	err := p.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, created_at FROM admin_users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (p *Postgres) InsertAdmin(ctx context.Context, u *models.AdminUser) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO admin_users (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (p *Postgres) DeleteAdmin(ctx context.Context, username string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM admin_users WHERE username = $1`, username)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
