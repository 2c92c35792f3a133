package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cafe-order/models"

	"github.com/jackc/pgx/v5"
)

const orderColumns = `id, customer_name, table_number, items, total, status, created_at, updated_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	var itemsJSON []byte
	if err := row.Scan(&o.ID, &o.CustomerName, &o.TableNumber, &itemsJSON, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal order items: %w", err)
		}
	}
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return &o, nil
}

// whereOrders renders f as a WHERE clause starting at placeholder $1.
func whereOrders(f models.OrderFilter) (string, []any) {
	var conds []string
	var args []any
	if !f.CreatedFrom.IsZero() {
		args = append(args, f.CreatedFrom)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !f.CreatedBefore.IsZero() {
		args = append(args, f.CreatedBefore)
		conds = append(conds, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if f.ExcludeStatus != "" {
		args = append(args, f.ExcludeStatus)
		conds = append(conds, fmt.Sprintf("status <> $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (p *Postgres) InsertOrder(ctx context.Context, o *models.Order) error {
	items := o.Items
	if items == nil {
		items = []models.OrderItem{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.CustomerName, o.TableNumber, itemsJSON, o.Total, o.Status, o.CreatedAt, o.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (p *Postgres) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	o, err := scanOrder(p.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

func (p *Postgres) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	where, args := whereOrders(f)
	rows, err := p.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders`+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (p *Postgres) UpdateOrderStatus(ctx context.Context, id, status string, updatedAt time.Time) (*models.Order, error) {
	o, err := scanOrder(p.pool.QueryRow(ctx, `
		UPDATE orders SET status = $1, updated_at = $2
		WHERE id = $3
		RETURNING `+orderColumns,
		status, updatedAt, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

func (p *Postgres) OrderTotals(ctx context.Context, f models.OrderFilter) (int, int64, error) {
	where, args := whereOrders(f)
	var count int
	var revenue int64
	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*)::int, COALESCE(SUM(total), 0)::bigint
		FROM orders`+where,
		args...,
	).Scan(&count, &revenue)
	return count, revenue, err
}
