package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"cafe-order/models"
)

// Memory is an in-process Store. Every call copies in and out so callers
// never share slices with the stored documents.
type Memory struct {
	mu       sync.RWMutex
	menu     map[string]models.MenuItem
	orders   map[string]models.Order
	admins   map[string]models.AdminUser // by username
	throttle map[string]throttleEntry    // login failures by username
}

type throttleEntry struct {
	failCount     int
	cooldownUntil time.Time
}

func NewMemory() *Memory {
	return &Memory{
		menu:     make(map[string]models.MenuItem),
		orders:   make(map[string]models.Order),
		admins:   make(map[string]models.AdminUser),
		throttle: make(map[string]throttleEntry),
	}
}

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

func (m *Memory) ListMenuItems(ctx context.Context, onlyAvailable bool) ([]models.MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]models.MenuItem, 0, len(m.menu))
	for _, it := range m.menu {
		if onlyAvailable && !it.Available {
			continue
		}
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (m *Memory) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.menu[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &it, nil
}

func (m *Memory) InsertMenuItem(ctx context.Context, item *models.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.menu[item.ID]; ok {
		return ErrConflict
	}
	m.menu[item.ID] = *item
	return nil
}

func (m *Memory) UpdateMenuItem(ctx context.Context, id string, patch models.MenuItemPatch) (*models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.menu[id]
	if !ok {
		return nil, ErrNotFound
	}
	patch.Apply(&it)
	m.menu[id] = it
	return &it, nil
}

func (m *Memory) DeleteMenuItem(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.menu[id]; !ok {
		return ErrNotFound
	}
	delete(m.menu, id)
	return nil
}

func (m *Memory) CountMenuItems(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.menu), nil
}

func (m *Memory) InsertOrder(ctx context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; ok {
		return ErrConflict
	}
	m.orders[o.ID] = o.Clone()
	return nil
}

func (m *Memory) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := o.Clone()
	return &c, nil
}

func (m *Memory) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	orders := make([]models.Order, 0, len(m.orders))
	for _, o := range m.orders {
		if f.Matches(o) {
			orders = append(orders, o.Clone())
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
	return orders, nil
}

func (m *Memory) UpdateOrderStatus(ctx context.Context, id, status string, updatedAt time.Time) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = updatedAt
	m.orders[id] = o
	c := o.Clone()
	return &c, nil
}

func (m *Memory) OrderTotals(ctx context.Context, f models.OrderFilter) (int, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int
	var revenue int64
	for _, o := range m.orders {
		if f.Matches(o) {
			count++
			revenue += o.Total
		}
	}
	return count, revenue, nil
}

func (m *Memory) GetAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.admins[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) InsertAdmin(ctx context.Context, u *models.AdminUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.admins[u.Username]; ok {
		return ErrConflict
	}
	m.admins[u.Username] = *u
	return nil
}

func (m *Memory) DeleteAdmin(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.admins[username]; !ok {
		return ErrNotFound
	}
	delete(m.admins, username)
	return nil
}

func (m *Memory) LoginCooldownUntil(ctx context.Context, username string) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.throttle[username].cooldownUntil, nil
}

func (m *Memory) RecordLoginFailure(ctx context.Context, username string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.throttle[username]
	e.failCount++
	e.cooldownUntil = at.UTC().Add(time.Duration(CooldownSecondsForFailCount(e.failCount)) * time.Second)
	m.throttle[username] = e
	return nil
}

func (m *Memory) ResetLoginFailures(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.throttle, username)
	return nil
}
