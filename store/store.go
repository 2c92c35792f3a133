// Package store persists menu items, orders and admin users.
//
// Two implementations exist: Postgres, backed by a pgx pool with order lines
// kept in a JSONB column, and Memory, used by tests and single-box demos.
// Both treat every write as a single-document update; there are no
// multi-document transactions and no version checks, so concurrent status
// updates on the same order resolve as last write wins.
package store

import (
	"context"
	"errors"
	"time"

	"cafe-order/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type MenuStore interface {
	ListMenuItems(ctx context.Context, onlyAvailable bool) ([]models.MenuItem, error)
	GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error)
	InsertMenuItem(ctx context.Context, item *models.MenuItem) error
	UpdateMenuItem(ctx context.Context, id string, patch models.MenuItemPatch) (*models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id string) error
	CountMenuItems(ctx context.Context) (int, error)
}

type OrderStore interface {
	InsertOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	// ListOrders returns matching orders, newest first.
	ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id, status string, updatedAt time.Time) (*models.Order, error)
	// OrderTotals returns the number of matching orders and the sum of their totals.
	OrderTotals(ctx context.Context, f models.OrderFilter) (count int, revenue int64, err error)
}

type AdminStore interface {
	GetAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	InsertAdmin(ctx context.Context, u *models.AdminUser) error
	DeleteAdmin(ctx context.Context, username string) error
}

// ThrottleStore tracks failed admin logins per username so the cooldown
// survives restarts.
type ThrottleStore interface {
	// LoginCooldownUntil returns when username may try again. The zero time
	// means no cooldown is recorded.
	LoginCooldownUntil(ctx context.Context, username string) (time.Time, error)
	// RecordLoginFailure increments the fail count and sets the cooldown to
	// at + CooldownSecondsForFailCount(failCount).
	RecordLoginFailure(ctx context.Context, username string, at time.Time) error
	// ResetLoginFailures clears the fail count and the cooldown.
	ResetLoginFailures(ctx context.Context, username string) error
}

type Store interface {
	MenuStore
	OrderStore
	AdminStore
	ThrottleStore
	Ping(ctx context.Context) error
}
