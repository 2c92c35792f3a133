package store

import (
	"context"
	"errors"
	"fmt"

	"cafe-order/models"

	"github.com/jackc/pgx/v5"
)

const menuColumns = `id, name, category, price, image_url, description, available, created_at`

func scanMenuItem(row pgx.Row) (*models.MenuItem, error) {
	var it models.MenuItem
	if err := row.Scan(&it.ID, &it.Name, &it.Category, &it.Price, &it.ImageURL, &it.Description, &it.Available, &it.CreatedAt); err != nil {
		return nil, err
	}
	it.CreatedAt = it.CreatedAt.UTC()
	return &it, nil
}

func (p *Postgres) ListMenuItems(ctx context.Context, onlyAvailable bool) ([]models.MenuItem, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+menuColumns+` FROM menu_items
		WHERE (NOT $1::boolean OR available)
		ORDER BY category, created_at, id`,
		onlyAvailable,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.MenuItem{}
	for rows.Next() {
		it, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (p *Postgres) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	it, err := scanMenuItem(p.pool.QueryRow(ctx, `SELECT `+menuColumns+` FROM menu_items WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return it, err
}

func (p *Postgres) InsertMenuItem(ctx context.Context, item *models.MenuItem) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO menu_items (`+menuColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID, item.Name, item.Category, item.Price, item.ImageURL, item.Description, item.Available, item.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (p *Postgres) UpdateMenuItem(ctx context.Context, id string, patch models.MenuItemPatch) (*models.MenuItem, error) {
	it, err := scanMenuItem(p.pool.QueryRow(ctx, `
		UPDATE menu_items SET
			name = COALESCE($2::text, name),
			category = COALESCE($3::text, category),
			price = COALESCE($4::bigint, price),
			image_url = COALESCE($5::text, image_url),
			description = COALESCE($6::text, description),
			available = COALESCE($7::boolean, available)
		WHERE id = $1
		RETURNING `+menuColumns,
		id, patch.Name, patch.Category, patch.Price, patch.ImageURL, patch.Description, patch.Available,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update menu item %s: %w", id, err)
	}
	return it, nil
}

func (p *Postgres) DeleteMenuItem(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) CountMenuItems(ctx context.Context) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*)::int FROM menu_items`).Scan(&n)
	return n, err
}
