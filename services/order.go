package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cafe-order/metrics"
	"cafe-order/models"
	"cafe-order/store"

	"github.com/google/uuid"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusAccepted  = "accepted"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

var orderStatuses = []string{
	OrderStatusPending,
	OrderStatusAccepted,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// statusFlow is the strict-mode transition table.
var statusFlow = map[string][]string{
	OrderStatusPending:   {OrderStatusAccepted, OrderStatusCancelled},
	OrderStatusAccepted:  {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:     {OrderStatusCompleted},
}

// OrderStatuses lists the known statuses in lifecycle order.
func OrderStatuses() []string {
	return append([]string(nil), orderStatuses...)
}

func IsValidOrderStatus(s string) bool {
	for _, st := range orderStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// ValidStatusTransition reports whether strict mode allows from -> to.
func ValidStatusTransition(from, to string) bool {
	for _, next := range statusFlow[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Publisher queues an event for asynchronous delivery.
type Publisher interface {
	Enqueue(room string, ev Event)
}

type OrderOptions struct {
	// StrictTransitions rejects status changes outside statusFlow.
	StrictTransitions bool
	// Location sets the day boundary for DailyAnalytics. Defaults to UTC.
	Location *time.Location
	Now      func() time.Time
	Log      *slog.Logger
	Metrics  *metrics.Metrics
}

// OrderService owns the order lifecycle: it persists state changes and then
// announces them on the real-time channel.
type OrderService struct {
	store   store.OrderStore
	events  Publisher
	strict  bool
	loc     *time.Location
	now     func() time.Time
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewOrderService(st store.OrderStore, events Publisher, opts OrderOptions) *OrderService {
	s := &OrderService{
		store:   st,
		events:  events,
		strict:  opts.StrictTransitions,
		loc:     opts.Location,
		now:     opts.Now,
		log:     opts.Log,
		metrics: opts.Metrics,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// stamp returns the current time at the precision the database keeps.
func (s *OrderService) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func validateCreateOrder(in models.CreateOrderInput) error {
	if strings.TrimSpace(in.CustomerName) == "" {
		return invalid("customer_name", "is required")
	}
	if len(in.Items) == 0 {
		return invalid("items", "at least one item is required")
	}
	for i, it := range in.Items {
		field := fmt.Sprintf("items[%d]", i)
		if it.MenuItemID == "" {
			return invalid(field+".menu_item_id", "is required")
		}
		if strings.TrimSpace(it.Name) == "" {
			return invalid(field+".name", "is required")
		}
		if it.Price < 0 {
			return invalid(field+".price", "must be >= 0")
		}
		if it.Quantity <= 0 {
			return invalid(field+".quantity", "must be > 0")
		}
	}
	if in.Total < 0 {
		return invalid("total", "must be >= 0")
	}
	return nil
}

// Create places a new pending order and announces it to the admin room.
// The total is stored as given.
func (s *OrderService) Create(ctx context.Context, in models.CreateOrderInput) (*models.Order, error) {
	if err := validateCreateOrder(in); err != nil {
		return nil, err
	}
	now := s.stamp()
	o := models.Order{
		ID:           uuid.NewString(),
		CustomerName: strings.TrimSpace(in.CustomerName),
		TableNumber:  in.TableNumber,
		Items:        in.Items,
		Total:        in.Total,
		Status:       OrderStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	o = o.Clone()
	if err := s.store.InsertOrder(ctx, &o); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	s.metrics.OrderCreated()
	s.log.Info("order created", "order_id", o.ID, "customer", o.CustomerName, "total", o.Total, "items", len(o.Items))

	s.events.Enqueue(RoomAdmin, Event{Name: EventNewOrder, Data: o.Clone()})
	return &o, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order", id, "get order")
	}
	return o, nil
}

// List returns every order, newest first.
func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	orders, err := s.store.ListOrders(ctx, models.OrderFilter{})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus overwrites the order status and announces the change to the
// order's room and the admin room. Concurrent updates of the same order are
// not serialized: the last write wins.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*models.Order, error) {
	status = strings.TrimSpace(status)
	if !IsValidOrderStatus(status) {
		return nil, invalid("status", fmt.Sprintf("unknown status %q", status))
	}
	cur, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order", id, "get order")
	}
	if s.strict && !ValidStatusTransition(cur.Status, status) {
		return nil, invalid("status", fmt.Sprintf("cannot change status from %s to %s", cur.Status, status))
	}

	updatedAt := s.stamp()
	if !updatedAt.After(cur.UpdatedAt) {
		updatedAt = cur.UpdatedAt.Add(time.Microsecond)
	}
	o, err := s.store.UpdateOrderStatus(ctx, id, status, updatedAt)
	if err != nil {
		return nil, notFound(err, "order", id, "update order status")
	}
	s.metrics.StatusUpdated(status)
	s.log.Info("order status updated", "order_id", id, "from", cur.Status, "to", status)

	payload := models.OrderStatusEvent{OrderID: id, Status: status, UpdatedAt: updatedAt}
	s.events.Enqueue(OrderRoom(id), Event{Name: EventOrderStatusUpdated, Data: payload})
	s.events.Enqueue(RoomAdmin, Event{Name: EventOrderUpdated, Data: payload})
	return o, nil
}

// DailyAnalytics counts today's orders that were not cancelled and sums
// their totals. "Today" starts at midnight in the café's time zone.
func (s *OrderService) DailyAnalytics(ctx context.Context) (*models.DailyStats, error) {
	now := s.now().In(s.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	count, revenue, err := s.store.OrderTotals(ctx, models.OrderFilter{
		CreatedFrom:   start.UTC(),
		ExcludeStatus: OrderStatusCancelled,
	})
	if err != nil {
		return nil, fmt.Errorf("daily analytics: %w", err)
	}
	return &models.DailyStats{TotalOrders: count, TotalRevenue: revenue, Date: start}, nil
}
