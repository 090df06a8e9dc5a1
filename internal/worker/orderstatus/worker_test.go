package orderstatus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corray333/gamesbakery/internal/dal/interfaces/iuow"
	"github.com/corray333/gamesbakery/internal/dal/memory"
	"github.com/corray333/gamesbakery/internal/metrics"
	"github.com/corray333/gamesbakery/internal/service/lifecycle"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/event"
	"github.com/corray333/gamesbakery/internal/service/models/order"
	"github.com/corray333/gamesbakery/internal/service/models/orderitem"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

// seedOrder stores a pending order placed age ago with one item per key.
// A nil key leaves the item without a key.
func seedOrder(t *testing.T, store *memory.Store, age time.Duration, keys ...*string) *order.Order {
	t.Helper()
	ctx := context.Background()
	sys := authz.System()

	o, err := order.New(uuid.New(), now.Add(-age), 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Orders().Insert(ctx, sys, o); err != nil {
		t.Fatal(err)
	}

	ids := make([]uuid.UUID, 0, len(keys))
	for _, k := range keys {
		it, err := orderitem.New(uuid.New(), uuid.New(), k)
		if err != nil {
			t.Fatal(err)
		}
		if err := store.OrderItems().Insert(ctx, sys, it); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, it.ID)
	}
	if len(ids) > 0 {
		if err := store.OrderItems().AttachToOrder(ctx, sys, ids, o.ID); err != nil {
			t.Fatal(err)
		}
	}
	return o
}

func key(s string) *string { return &s }

func newWorker(t *testing.T, store *memory.Store, opts ...option) *Worker {
	t.Helper()
	opts = append([]option{
		WithClock(func() time.Time { return now }),
		WithPolicy(lifecycle.Policy{OverdueAfter: 14 * 24 * time.Hour, Precedence: lifecycle.OverdueFirst}),
		WithBatchSize(2),
		WithEvents(EventsConfig{Topic: "orders", Producer: "test", MaxRetries: 3}),
	}, opts...)

	w, err := NewWorker(store, store.Orders(), store.OrderItems(), opts...)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	return w
}

func status(t *testing.T, store *memory.Store, id uuid.UUID) *order.Order {
	t.Helper()
	o, err := store.Orders().GetByID(context.Background(), authz.System(), id)
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func TestSweep_Transitions(t *testing.T) {
	store := memory.NewStore()
	day := 24 * time.Hour

	keyed := seedOrder(t, store, day, key("A"), key("B"))
	partial := seedOrder(t, store, day, key("A"), nil)
	stale := seedOrder(t, store, 15*day, nil)
	staleKeyed := seedOrder(t, store, 20*day, key("A"))
	empty := seedOrder(t, store, day)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	w := newWorker(t, store, WithMetrics(m.Scheduler))

	report := w.Sweep(context.Background())

	want := Report{Scanned: 5, Completed: 2, Overdue: 2, Unchanged: 1}
	if report != want {
		t.Errorf("report = %+v, want %+v", report, want)
	}

	cases := []struct {
		name string
		id   uuid.UUID
		want order.Status
	}{
		{"all keys", keyed.ID, order.StatusCompleted},
		{"missing key", partial.ID, order.StatusPending},
		{"expired", stale.ID, order.StatusOverdue},
		{"expired with keys, overdue first", staleKeyed.ID, order.StatusOverdue},
		{"no items", empty.ID, order.StatusCompleted},
	}
	for _, tc := range cases {
		if got := status(t, store, tc.id).Status; got != tc.want {
			t.Errorf("%s: status = %s, want %s", tc.name, got, tc.want)
		}
	}

	if got := testutil.ToFloat64(m.Scheduler.Transitions.WithLabelValues("completed")); got != 2 {
		t.Errorf("completed transitions metric = %v, want 2", got)
	}

	msgs := store.Outbox().Messages()
	if len(msgs) != 4 {
		t.Fatalf("outbox has %d messages, want 4", len(msgs))
	}
	routes := map[string]int{}
	for _, msg := range msgs {
		routes[msg.RoutingKey]++
	}
	if routes[event.RoutingOrderCompleted] != 2 || routes[event.RoutingOrderOverdue] != 2 {
		t.Errorf("unexpected routing keys %v", routes)
	}
}

func TestSweep_IsIdempotent(t *testing.T) {
	store := memory.NewStore()
	seedOrder(t, store, time.Hour, key("A"))
	w := newWorker(t, store)

	first := w.Sweep(context.Background())
	second := w.Sweep(context.Background())

	if first.Completed != 1 {
		t.Errorf("first sweep completed %d, want 1", first.Completed)
	}
	if second != (Report{}) {
		t.Errorf("second sweep = %+v, want nothing to do", second)
	}
	if n := len(store.Outbox().Messages()); n != 1 {
		t.Errorf("outbox has %d messages, want 1", n)
	}
}

func TestSweep_CompletionFirst(t *testing.T) {
	store := memory.NewStore()
	o := seedOrder(t, store, 30*24*time.Hour, key("A"))
	w := newWorker(t, store, WithPolicy(lifecycle.Policy{
		OverdueAfter: 14 * 24 * time.Hour,
		Precedence:   lifecycle.CompletionFirst,
	}))

	w.Sweep(context.Background())

	if got := status(t, store, o.ID).Status; got != order.StatusCompleted {
		t.Errorf("status = %s, want Completed", got)
	}
}

// staleOrders hands out a version that no longer matches storage.
type staleOrders struct {
	*memory.OrderRepository
}

func (s staleOrders) ListPending(ctx context.Context, p authz.Principal, afterID uuid.UUID, limit int) ([]order.Order, error) {
	orders, err := s.OrderRepository.ListPending(ctx, p, afterID, limit)
	for i := range orders {
		orders[i].Version += 100
	}
	return orders, err
}

func TestSweep_ConflictLeavesOrderForNextTick(t *testing.T) {
	store := memory.NewStore()
	o := seedOrder(t, store, time.Hour, key("A"))

	w, err := NewWorker(store, staleOrders{store.Orders()}, store.OrderItems(),
		WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatal(err)
	}

	report := w.Sweep(context.Background())
	if report.Conflicts != 1 || report.Completed != 0 {
		t.Errorf("report = %+v, want one conflict", report)
	}
	if got := status(t, store, o.ID).Status; got != order.StatusPending {
		t.Errorf("status = %s, want Pending", got)
	}

	retry := newWorker(t, store)
	if r := retry.Sweep(context.Background()); r.Completed != 1 {
		t.Errorf("retry report = %+v, want one completion", r)
	}
}

// flakyFactory fails the first Begin call.
type flakyFactory struct {
	iuow.IFactory
	calls int
}

func (f *flakyFactory) Begin(ctx context.Context) (iuow.IUnitOfWork, error) {
	f.calls++
	if f.calls == 1 {
		return nil, errors.New("connection reset")
	}
	return f.IFactory.Begin(ctx)
}

func TestSweep_IsolatesFailures(t *testing.T) {
	store := memory.NewStore()
	for i := 0; i < 3; i++ {
		seedOrder(t, store, time.Hour, key("A"))
	}

	w, err := NewWorker(&flakyFactory{IFactory: store}, store.Orders(), store.OrderItems(),
		WithClock(func() time.Time { return now }),
		WithBatchSize(1))
	if err != nil {
		t.Fatal(err)
	}

	report := w.Sweep(context.Background())
	if report.Failed != 1 || report.Completed != 2 {
		t.Errorf("report = %+v, want 1 failed and 2 completed", report)
	}
}

func TestStop_IsIdempotent(t *testing.T) {
	w := newWorker(t, memory.NewStore())

	done := make(chan struct{})
	go func() {
		w.Start(context.Background())
		close(done)
	}()

	w.Stop()
	w.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
}
