package services

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"cafe-order/logger"
	"cafe-order/models"
	"cafe-order/store"
)

func budiOrder() models.CreateOrderInput {
	return models.CreateOrderInput{
		CustomerName: "Budi",
		Items:        []models.OrderItem{{MenuItemID: "m1", Name: "Kopi Hitam", Price: 10000, Quantity: 2}},
		Total:        20000,
	}
}

func TestValidStatusTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{OrderStatusPending, OrderStatusAccepted, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusReady, false},
		{OrderStatusAccepted, OrderStatusPreparing, true},
		{OrderStatusAccepted, OrderStatusPending, false},
		{OrderStatusPreparing, OrderStatusReady, true},
		{OrderStatusPreparing, OrderStatusCompleted, false},
		{OrderStatusReady, OrderStatusCompleted, true},
		{OrderStatusReady, OrderStatusCancelled, false},
		{OrderStatusCompleted, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusPending, OrderStatusPending, false},
		{"", OrderStatusPending, false},
		{OrderStatusPending, "", false},
	}
	for _, tt := range tests {
		got := ValidStatusTransition(tt.from, tt.to)
		if got != tt.want {
			t.Errorf("ValidStatusTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestCreateOrder(t *testing.T) {
	f := newOrderFixture(t, false)
	ctx := context.Background()

	o, err := f.orders.Create(ctx, budiOrder())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if o.ID == "" {
		t.Error("Create should assign an id")
	}
	if o.Status != OrderStatusPending {
		t.Errorf("Status = %q, want pending", o.Status)
	}
	if !o.CreatedAt.Equal(o.UpdatedAt) {
		t.Errorf("CreatedAt %v != UpdatedAt %v", o.CreatedAt, o.UpdatedAt)
	}
	if o.Total != 20000 || len(o.Items) != 1 || o.Items[0].Name != "Kopi Hitam" {
		t.Errorf("unexpected order: %+v", o)
	}

	got, err := f.orders.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, o) {
		t.Errorf("Get after Create differs:\n got %+v\nwant %+v", got, o)
	}

	events := f.flush()
	if len(events) != 1 {
		t.Fatalf("published %d events, want 1", len(events))
	}
	if events[0].Room != RoomAdmin || events[0].Event.Name != EventNewOrder {
		t.Errorf("published %s to %s, want new_order to admin", events[0].Event.Name, events[0].Room)
	}
	if data, ok := events[0].Event.Data.(models.Order); !ok || data.ID != o.ID {
		t.Errorf("new_order payload = %#v, want the full order", events[0].Event.Data)
	}
}

func TestCreateOrderKeepsCallerTotal(t *testing.T) {
	f := newOrderFixture(t, false)
	in := budiOrder()
	in.Total = 1 // deliberately not the item sum
	o, err := f.orders.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if o.Total != 1 {
		t.Errorf("Total = %d, want the caller's 1", o.Total)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.CreateOrderInput)
	}{
		{"missing customer", func(in *models.CreateOrderInput) { in.CustomerName = "  " }},
		{"no items", func(in *models.CreateOrderInput) { in.Items = nil }},
		{"zero quantity", func(in *models.CreateOrderInput) { in.Items[0].Quantity = 0 }},
		{"missing menu item id", func(in *models.CreateOrderInput) { in.Items[0].MenuItemID = "" }},
		{"missing item name", func(in *models.CreateOrderInput) { in.Items[0].Name = "" }},
		{"negative price", func(in *models.CreateOrderInput) { in.Items[0].Price = -1 }},
		{"negative total", func(in *models.CreateOrderInput) { in.Total = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(t, false)
			in := budiOrder()
			tt.mutate(&in)
			_, err := f.orders.Create(context.Background(), in)
			if !asValidation(err) {
				t.Fatalf("Create: err = %v, want ValidationError", err)
			}
			if n := len(f.flush()); n != 0 {
				t.Errorf("published %d events for a rejected order", n)
			}
		})
	}
}

func TestUpdateStatusScenario(t *testing.T) {
	f := newOrderFixture(t, false)
	ctx := context.Background()

	o, err := f.orders.Create(ctx, budiOrder())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f.clock.Advance(time.Minute)
	if _, err := f.orders.UpdateStatus(ctx, o.ID, OrderStatusAccepted); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	got, err := f.orders.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != OrderStatusAccepted {
		t.Errorf("Status = %q, want accepted", got.Status)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Errorf("UpdatedAt %v should be after CreatedAt %v", got.UpdatedAt, got.CreatedAt)
	}

	events := f.flush()
	if len(events) != 3 {
		t.Fatalf("published %d events, want 3", len(events))
	}
	want := []struct{ room, name string }{
		{RoomAdmin, EventNewOrder},
		{OrderRoom(o.ID), EventOrderStatusUpdated},
		{RoomAdmin, EventOrderUpdated},
	}
	for i, w := range want {
		if events[i].Room != w.room || events[i].Event.Name != w.name {
			t.Errorf("event %d = %s@%s, want %s@%s", i, events[i].Event.Name, events[i].Room, w.name, w.room)
		}
	}
	payload, ok := events[1].Event.Data.(models.OrderStatusEvent)
	if !ok {
		t.Fatalf("status payload type %T", events[1].Event.Data)
	}
	if payload.OrderID != o.ID || payload.Status != OrderStatusAccepted || !payload.UpdatedAt.Equal(got.UpdatedAt) {
		t.Errorf("status payload = %+v", payload)
	}
	if events[2].Event.Data != events[1].Event.Data {
		t.Error("admin and order room should carry the same payload")
	}
}

func TestUpdateStatusAnyTransitionWhenPermissive(t *testing.T) {
	f := newOrderFixture(t, false)
	ctx := context.Background()
	o, err := f.orders.Create(ctx, budiOrder())
	if err != nil {
		t.Fatal(err)
	}
	prev := o.UpdatedAt
	// The clock never moves: updated_at must still strictly increase.
	for _, st := range []string{OrderStatusCompleted, OrderStatusPending, OrderStatusCancelled, OrderStatusReady, OrderStatusReady} {
		upd, err := f.orders.UpdateStatus(ctx, o.ID, st)
		if err != nil {
			t.Fatalf("UpdateStatus(%s): %v", st, err)
		}
		if upd.Status != st {
			t.Errorf("Status = %q, want %q", upd.Status, st)
		}
		if !upd.UpdatedAt.After(prev) {
			t.Errorf("UpdatedAt %v not after previous %v", upd.UpdatedAt, prev)
		}
		prev = upd.UpdatedAt
	}
}

func TestUpdateStatusStrict(t *testing.T) {
	f := newOrderFixture(t, true)
	ctx := context.Background()
	o, err := f.orders.Create(ctx, budiOrder())
	if err != nil {
		t.Fatal(err)
	}
	for _, st := range []string{OrderStatusAccepted, OrderStatusPreparing, OrderStatusReady, OrderStatusCompleted} {
		if _, err := f.orders.UpdateStatus(ctx, o.ID, st); err != nil {
			t.Fatalf("UpdateStatus(%s): %v", st, err)
		}
	}
	_, err = f.orders.UpdateStatus(ctx, o.ID, OrderStatusPending)
	if !asValidation(err) {
		t.Fatalf("completed -> pending: err = %v, want ValidationError", err)
	}
	got, _ := f.orders.Get(ctx, o.ID)
	if got.Status != OrderStatusCompleted {
		t.Errorf("rejected transition changed status to %q", got.Status)
	}
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	f := newOrderFixture(t, false)
	ctx := context.Background()
	o, _ := f.orders.Create(ctx, budiOrder())
	if _, err := f.orders.UpdateStatus(ctx, o.ID, "delivered"); !asValidation(err) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	got, _ := f.orders.Get(ctx, o.ID)
	if got.Status != OrderStatusPending || !got.UpdatedAt.Equal(o.UpdatedAt) {
		t.Errorf("order changed after rejected status: %+v", got)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	st := &countingStore{Memory: store.NewMemory()}
	rec := &recordingNotifier{}
	d := NewDispatcher(rec, 8, time.Second, logger.Discard(), nil)
	svc := NewOrderService(st, d, OrderOptions{Log: logger.Discard()})

	_, err := svc.UpdateStatus(context.Background(), "no-such-order", OrderStatusAccepted)
	if !asNotFound(err) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
	d.Close()
	if n := st.writes.Load(); n != 0 {
		t.Errorf("store writes = %d, want 0", n)
	}
	if n := len(rec.Events()); n != 0 {
		t.Errorf("published %d events, want 0", n)
	}
}

func TestUpdateStatusSurvivesNotifierFailure(t *testing.T) {
	rec := &recordingNotifier{fail: errors.New("socket gone")}
	d := NewDispatcher(rec, 8, time.Second, logger.Discard(), nil)
	svc := NewOrderService(store.NewMemory(), d, OrderOptions{Log: logger.Discard()})
	ctx := context.Background()

	o, err := svc.Create(ctx, budiOrder())
	if err != nil {
		t.Fatalf("Create with failing notifier: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, o.ID, OrderStatusReady); err != nil {
		t.Fatalf("UpdateStatus with failing notifier: %v", err)
	}
	d.Close()
	got, _ := svc.Get(ctx, o.ID)
	if got.Status != OrderStatusReady {
		t.Errorf("status = %q, want ready (notification failure must not roll back)", got.Status)
	}
	if n := len(rec.Events()); n != 3 {
		t.Errorf("attempted %d publishes, want 3", n)
	}
}

// Concurrent updates of one order are not serialized; whichever write lands
// last is what Get returns. This pins the known race rather than fixing it.
func TestUpdateStatusConcurrentLastWriteWins(t *testing.T) {
	f := newOrderFixture(t, false)
	ctx := context.Background()
	o, _ := f.orders.Create(ctx, budiOrder())

	statuses := []string{OrderStatusAccepted, OrderStatusPreparing, OrderStatusReady, OrderStatusCancelled}
	var wg sync.WaitGroup
	for _, st := range statuses {
		wg.Add(1)
		go func(st string) {
			defer wg.Done()
			if _, err := f.orders.UpdateStatus(ctx, o.ID, st); err != nil {
				t.Errorf("UpdateStatus(%s): %v", st, err)
			}
		}(st)
	}
	wg.Wait()

	got, _ := f.orders.Get(ctx, o.ID)
	found := false
	for _, st := range statuses {
		if got.Status == st {
			found = true
		}
	}
	if !found {
		t.Errorf("final status %q is none of the written values", got.Status)
	}
	if n := len(f.flush()); n != 1+2*len(statuses) {
		t.Errorf("published %d events, want %d", n, 1+2*len(statuses))
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	f := newOrderFixture(t, false)
	ctx := context.Background()
	var ids []string
	for i := 0; i < 3; i++ {
		o, err := f.orders.Create(ctx, budiOrder())
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, o.ID)
		f.clock.Advance(time.Second)
	}
	list, err := f.orders.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 || list[0].ID != ids[2] || list[2].ID != ids[0] {
		t.Errorf("List order wrong: %v", list)
	}
}

func TestSnapshotSurvivesMenuDelete(t *testing.T) {
	f := newOrderFixture(t, false)
	ctx := context.Background()

	item, err := f.menu.Create(ctx, MenuItemInput{Name: "Kopi Hitam", Category: "drink", Price: 10000})
	if err != nil {
		t.Fatalf("menu Create: %v", err)
	}
	in := budiOrder()
	in.Items[0].MenuItemID = item.ID
	o, err := f.orders.Create(ctx, in)
	if err != nil {
		t.Fatalf("order Create: %v", err)
	}
	before, _ := f.orders.Get(ctx, o.ID)

	newName := "Kopi Luwak"
	newPrice := int64(50000)
	if _, err := f.menu.Update(ctx, item.ID, models.MenuItemPatch{Name: &newName, Price: &newPrice}); err != nil {
		t.Fatalf("menu Update: %v", err)
	}
	if err := f.menu.Delete(ctx, item.ID); err != nil {
		t.Fatalf("menu Delete: %v", err)
	}

	after, err := f.orders.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("Get after menu delete: %v", err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Errorf("order changed after menu edit/delete:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestDailyAnalytics(t *testing.T) {
	f := newOrderFixture(t, false)
	ctx := context.Background()

	// Yesterday's order must not count.
	f.clock.Advance(-24 * time.Hour)
	if _, err := f.orders.Create(ctx, models.CreateOrderInput{CustomerName: "Kemarin", Items: budiOrder().Items, Total: 99000}); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(24 * time.Hour)

	var cancelID string
	for _, total := range []int64{10000, 20000, 5000} {
		in := budiOrder()
		in.Total = total
		o, err := f.orders.Create(ctx, in)
		if err != nil {
			t.Fatal(err)
		}
		if total == 5000 {
			cancelID = o.ID
		}
	}
	if _, err := f.orders.UpdateStatus(ctx, cancelID, OrderStatusCancelled); err != nil {
		t.Fatal(err)
	}

	stats, err := f.orders.DailyAnalytics(ctx)
	if err != nil {
		t.Fatalf("DailyAnalytics: %v", err)
	}
	if stats.TotalOrders != 2 || stats.TotalRevenue != 30000 {
		t.Errorf("DailyAnalytics = %d orders / %d revenue, want 2 / 30000", stats.TotalOrders, stats.TotalRevenue)
	}
	if want := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC); !stats.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", stats.Date, want)
	}
}

func TestDailyAnalyticsUsesCafeTimeZone(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	// 2026-10-17 01:00 WIB is still 2026-10-16 in UTC.
	clock := newFakeClock(time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC))
	st := store.NewMemory()
	d := NewDispatcher(&recordingNotifier{}, 8, time.Second, logger.Discard(), nil)
	defer d.Close()
	svc := NewOrderService(st, d, OrderOptions{Location: jakarta, Now: clock.Now, Log: logger.Discard()})
	ctx := context.Background()

	clock.Advance(-2 * time.Hour) // 23:00 WIB on the 16th
	if _, err := svc.Create(ctx, budiOrder()); err != nil {
		t.Fatal(err)
	}
	clock.Advance(2 * time.Hour)
	if _, err := svc.Create(ctx, budiOrder()); err != nil {
		t.Fatal(err)
	}
	stats, err := svc.DailyAnalytics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalOrders != 1 || stats.TotalRevenue != 20000 {
		t.Errorf("DailyAnalytics = %+v, want one order since WIB midnight", stats)
	}
}
