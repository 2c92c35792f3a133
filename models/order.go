package models

import "time"

// OrderItem is a line of an order. Name and Price are copied from the menu
// at order time and never follow later menu edits.
type OrderItem struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	Quantity   int    `json:"quantity"`
}

type Order struct {
	ID           string      `json:"id"`
	CustomerName string      `json:"customer_name"`
	TableNumber  *string     `json:"table_number"`
	Items        []OrderItem `json:"items"`
	Total        int64       `json:"total"`
	Status       string      `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type CreateOrderInput struct {
	CustomerName string      `json:"customer_name"`
	TableNumber  *string     `json:"table_number"`
	Items        []OrderItem `json:"items"`
	Total        int64       `json:"total"`
}

// OrderStatusEvent is the payload pushed to customers and admins when an
// order changes status.
type OrderStatusEvent struct {
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderFilter narrows an order scan. Zero values match everything.
type OrderFilter struct {
	CreatedFrom   time.Time
	CreatedBefore time.Time
	ExcludeStatus string
}

type DailyStats struct {
	TotalOrders  int       `json:"total_orders"`
	TotalRevenue int64     `json:"total_revenue"`
	Date         time.Time `json:"date"`
}

// Clone returns a deep copy so callers cannot alias stored items.
func (o Order) Clone() Order {
	c := o
	if o.TableNumber != nil {
		t := *o.TableNumber
		c.TableNumber = &t
	}
	if o.Items != nil {
		c.Items = make([]OrderItem, len(o.Items))
		copy(c.Items, o.Items)
	}
	return c
}

// Matches reports whether the order passes the filter.
func (f OrderFilter) Matches(o Order) bool {
	if !f.CreatedFrom.IsZero() && o.CreatedAt.Before(f.CreatedFrom) {
		return false
	}
	if !f.CreatedBefore.IsZero() && !o.CreatedAt.Before(f.CreatedBefore) {
		return false
	}
	if f.ExcludeStatus != "" && o.Status == f.ExcludeStatus {
		return false
	}
	return true
}
