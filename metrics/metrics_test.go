package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.OrderCreated()
	m.StatusUpdated("ready")
	m.Notification("new_order", "sent")
	m.ClientConnected()
	m.ClientDisconnected()
	m.LoginAttempt("ok")
	if m.Registry() != nil {
		t.Error("nil Metrics should have nil registry")
	}
}

func TestCounters(t *testing.T) {
	m := New()
	m.OrderCreated()
	m.OrderCreated()
	m.StatusUpdated("ready")
	m.Notification("order_updated", "failed")

	if got := testutil.ToFloat64(m.ordersCreated); got != 2 {
		t.Errorf("orders_created_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.statusUpdates.WithLabelValues("ready")); got != 1 {
		t.Errorf("order_status_updates_total{ready} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.notifications.WithLabelValues("order_updated", "failed")); got != 1 {
		t.Errorf("notifications_total = %v, want 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.OrderCreated()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "cafe_orders_created_total 1") {
		t.Errorf("metrics output missing counter:\n%s", body)
	}
}
