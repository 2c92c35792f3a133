package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cafe-order/logger"
	"cafe-order/models"
	"cafe-order/store"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type published struct {
	Room  string
	Event Event
}

// recordingNotifier remembers every publish. If fail is set every publish
// returns it after recording.
type recordingNotifier struct {
	mu     sync.Mutex
	events []published
	fail   error
}

func (r *recordingNotifier) Publish(ctx context.Context, room string, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{Room: room, Event: ev})
	return r.fail
}

func (r *recordingNotifier) Events() []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]published(nil), r.events...)
}

// countingStore wraps Memory and counts order writes.
type countingStore struct {
	*store.Memory
	writes atomic.Int32
}

func (c *countingStore) InsertOrder(ctx context.Context, o *models.Order) error {
	c.writes.Add(1)
	return c.Memory.InsertOrder(ctx, o)
}

func (c *countingStore) UpdateOrderStatus(ctx context.Context, id, status string, at time.Time) (*models.Order, error) {
	c.writes.Add(1)
	return c.Memory.UpdateOrderStatus(ctx, id, status, at)
}

type orderFixture struct {
	clock    *fakeClock
	store    *store.Memory
	notifier *recordingNotifier
	events   *Dispatcher
	orders   *OrderService
	menu     *MenuService
}

func newOrderFixture(t *testing.T, strict bool) *orderFixture {
	t.Helper()
	f := &orderFixture{
		clock:    newFakeClock(time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)),
		store:    store.NewMemory(),
		notifier: &recordingNotifier{},
	}
	log := logger.Discard()
	f.events = NewDispatcher(f.notifier, 64, time.Second, log, nil)
	t.Cleanup(f.events.Close)
	f.orders = NewOrderService(f.store, f.events, OrderOptions{
		StrictTransitions: strict,
		Now:               f.clock.Now,
		Log:               log,
	})
	f.menu = NewMenuService(f.store, log)
	f.menu.now = f.clock.Now
	return f
}

// flush waits until every queued event has reached the notifier.
func (f *orderFixture) flush() []published {
	f.events.Close()
	return f.notifier.Events()
}

func asValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func asNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func asAuth(err error) bool {
	var a *AuthError
	return errors.As(err, &a)
}
