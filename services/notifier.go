package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cafe-order/metrics"
)

// Rooms and event names used on the real-time channel.
const (
	RoomAdmin = "admin"

	EventNewOrder           = "new_order"
	EventOrderStatusUpdated = "order_status_updated"
	EventOrderUpdated       = "order_updated"
)

// OrderRoom is the room customers join to follow one order.
func OrderRoom(orderID string) string {
	return "order_" + orderID
}

type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// Notifier delivers an event to everyone currently in room. Delivery is
// best effort; absent subscribers simply miss it.
type Notifier interface {
	Publish(ctx context.Context, room string, ev Event) error
}

// MultiNotifier publishes to every notifier and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Publish(ctx context.Context, room string, ev Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Publish(ctx, room, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Publishers fans an event out to several queues, so a slow sink on one
// queue never holds up the others.
type Publishers []Publisher

func (p Publishers) Enqueue(room string, ev Event) {
	for _, q := range p {
		if q != nil {
			q.Enqueue(room, ev)
		}
	}
}

type delivery struct {
	room string
	ev   Event
}

// Dispatcher takes publishes off the request path. Events go into a bounded
// queue drained by one worker, so per-process ordering is kept. A full queue
// drops the event. Failures are logged and counted, never returned.
type Dispatcher struct {
	notifier Notifier
	log      *slog.Logger
	metrics  *metrics.Metrics
	timeout  time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan delivery
	done   chan struct{}
}

func NewDispatcher(n Notifier, queueSize int, timeout time.Duration, log *slog.Logger, m *metrics.Metrics) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	d := &Dispatcher{
		notifier: n,
		log:      log,
		metrics:  m,
		timeout:  timeout,
		queue:    make(chan delivery, queueSize),
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

// Enqueue schedules ev for room and returns immediately.
func (d *Dispatcher) Enqueue(room string, ev Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("notification after close dropped", "room", room, "event", ev.Name)
		d.metrics.Notification(ev.Name, "dropped")
		return
	}
	select {
	case d.queue <- delivery{room: room, ev: ev}:
	default:
		d.log.Warn("notification queue full, event dropped", "room", room, "event", ev.Name)
		d.metrics.Notification(ev.Name, "dropped")
	}
}

// Close stops accepting events and waits until queued ones are delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for dl := range d.queue {
		d.deliver(dl)
	}
}

func (d *Dispatcher) deliver(dl delivery) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	err := d.safePublish(ctx, dl)
	if err != nil {
		d.log.Error("publish event", "room", dl.room, "event", dl.ev.Name, "error", err)
		d.metrics.Notification(dl.ev.Name, "failed")
		return
	}
	d.metrics.Notification(dl.ev.Name, "sent")
}

func (d *Dispatcher) safePublish(ctx context.Context, dl delivery) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return d.notifier.Publish(ctx, dl.room, dl.ev)
}
