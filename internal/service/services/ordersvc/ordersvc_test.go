package ordersvc

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/corray333/gamesbakery/internal/dal/memory"
	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/event"
	"github.com/corray333/gamesbakery/internal/service/models/game"
	"github.com/corray333/gamesbakery/internal/service/models/order"
	"github.com/corray333/gamesbakery/internal/service/models/orderitem"
	"github.com/corray333/gamesbakery/internal/service/models/user"
	"github.com/google/uuid"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store  *memory.Store
	svc    *OrderService
	user   *user.User
	game   *game.Game
	items  []*orderitem.OrderItem
	seller uuid.UUID
}

func newFixture(t *testing.T, balanceCents int64, priceCents int64, itemCount int) *fixture {
	t.Helper()
	ctx := context.Background()
	sys := authz.System()
	store := memory.NewStore()

	u, err := user.New("alice", "alice@example.com", "NL", "hash", fixedNow)
	if err != nil {
		t.Fatalf("user.New: %v", err)
	}
	u.BalanceCents = balanceCents
	if err := store.Users().Insert(ctx, sys, u); err != nil {
		t.Fatalf("insert user: %v", err)
	}

	g, err := game.New(uuid.New(), "Factorio", priceCents, fixedNow, "Factory builder", "Wube")
	if err != nil {
		t.Fatalf("game.New: %v", err)
	}
	g.SetForSale(true)
	if err := store.Games().Insert(ctx, sys, g); err != nil {
		t.Fatalf("insert game: %v", err)
	}

	f := &fixture{store: store, user: u, game: g, seller: uuid.New()}
	for i := 0; i < itemCount; i++ {
		item, err := orderitem.New(g.ID, f.seller, nil)
		if err != nil {
			t.Fatalf("orderitem.New: %v", err)
		}
		if err := store.OrderItems().Insert(ctx, sys, item); err != nil {
			t.Fatalf("insert item: %v", err)
		}
		f.items = append(f.items, item)
		f.addToCart(t, item.ID)
	}

	f.svc = MustNewOrderService(
		WithOrderRepository(store.Orders()),
		WithOrderItemRepository(store.OrderItems()),
		WithUnitOfWork(store),
		WithClock(func() time.Time { return fixedNow }),
		WithEvents(EventsConfig{Topic: "orders", Producer: "test", MaxRetries: 3}),
	)

	return f
}

func (f *fixture) addToCart(t *testing.T, itemID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	p := authz.User(f.user.ID)
	c, err := f.store.Carts().GetOrCreate(ctx, p, f.user.ID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	it, _, err := c.AddItem(itemID)
	if err != nil {
		t.Fatalf("cart add: %v", err)
	}
	if err := f.store.Carts().AddItem(ctx, p, c, it); err != nil {
		t.Fatalf("store cart item: %v", err)
	}
}

func TestCheckout_PlacesOrder(t *testing.T) {
	f := newFixture(t, 10_000, 2_500, 2)
	ctx := context.Background()
	p := authz.User(f.user.ID)

	o, err := f.svc.Checkout(ctx, p, f.user.ID)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if o.TotalCents != 5_000 {
		t.Errorf("total = %d, want 5000", o.TotalCents)
	}
	if o.Status != order.StatusPending || o.IsCompleted || o.IsOverdue {
		t.Errorf("new order should be pending, got %+v", o.Summary())
	}
	if len(o.Items) != 2 {
		t.Fatalf("order has %d items, want 2", len(o.Items))
	}

	u, _ := f.store.Users().GetByID(ctx, p, f.user.ID)
	if u.BalanceCents != 5_000 || u.TotalSpentCents != 5_000 {
		t.Errorf("balance=%d spent=%d, want 5000/5000", u.BalanceCents, u.TotalSpentCents)
	}

	c, _ := f.store.Carts().GetOrCreate(ctx, p, f.user.ID)
	if len(c.Items) != 0 {
		t.Errorf("cart should be empty, has %d items", len(c.Items))
	}

	items, _ := f.store.OrderItems().ListByOrderIDs(ctx, authz.System(), []uuid.UUID{o.ID})
	if len(items) != 2 {
		t.Errorf("stored order has %d items, want 2", len(items))
	}

	msgs := f.store.Outbox().Messages()
	if len(msgs) != 1 {
		t.Fatalf("outbox has %d messages, want 1", len(msgs))
	}
	if msgs[0].RoutingKey != event.RoutingOrderCreated || msgs[0].Topic != "orders" {
		t.Errorf("unexpected outbox message %+v", msgs[0])
	}
	var env event.Envelope
	if err := json.Unmarshal(msgs[0].Payload, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	payload, err := event.Decode[event.OrderCreated](env)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.OrderID != o.ID.String() || len(payload.OrderItemIDs) != 2 {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestCheckout_InsufficientFundsRollsBack(t *testing.T) {
	f := newFixture(t, 1_000, 2_500, 1)
	ctx := context.Background()
	p := authz.User(f.user.ID)

	_, err := f.svc.Checkout(ctx, p, f.user.ID)
	if !errors.Is(err, apperr.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	orders, _ := f.store.Orders().ListByUser(ctx, p, f.user.ID)
	if len(orders) != 0 {
		t.Errorf("no order should exist, got %d", len(orders))
	}
	c, _ := f.store.Carts().GetOrCreate(ctx, p, f.user.ID)
	if len(c.Items) != 1 {
		t.Errorf("cart should be untouched, has %d items", len(c.Items))
	}
	if n := len(f.store.Outbox().Messages()); n != 0 {
		t.Errorf("outbox should be empty, has %d", n)
	}
}

func TestCheckout_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cart", func(t *testing.T) {
		f := newFixture(t, 10_000, 100, 0)
		_, err := f.svc.Checkout(ctx, authz.User(f.user.ID), f.user.ID)
		if !apperr.IsValidation(err) {
			t.Errorf("err = %v, want validation error", err)
		}
	})

	t.Run("game withdrawn", func(t *testing.T) {
		f := newFixture(t, 10_000, 100, 1)
		if err := f.store.Games().SetForSale(ctx, authz.System(), f.game.ID, false); err != nil {
			t.Fatal(err)
		}
		_, err := f.svc.Checkout(ctx, authz.User(f.user.ID), f.user.ID)
		if !errors.Is(err, apperr.ErrConflict) {
			t.Errorf("err = %v, want ErrConflict", err)
		}
	})

	t.Run("blocked user", func(t *testing.T) {
		f := newFixture(t, 10_000, 100, 1)
		f.user.Block()
		if err := f.store.Users().Update(ctx, authz.System(), f.user); err != nil {
			t.Fatal(err)
		}
		_, err := f.svc.Checkout(ctx, authz.User(f.user.ID), f.user.ID)
		if !errors.Is(err, apperr.ErrBlocked) {
			t.Errorf("err = %v, want ErrBlocked", err)
		}
	})

	t.Run("other user", func(t *testing.T) {
		f := newFixture(t, 10_000, 100, 1)
		_, err := f.svc.Checkout(ctx, authz.User(uuid.New()), f.user.ID)
		if !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("err = %v, want ErrForbidden", err)
		}
	})
}

type mapCache struct {
	entries map[uuid.UUID]order.Summary
}

func (c *mapCache) Get(_ context.Context, id uuid.UUID) (order.Summary, bool, error) {
	s, ok := c.entries[id]
	return s, ok, nil
}

func (c *mapCache) Set(_ context.Context, s order.Summary) error {
	c.entries[s.ID] = s
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, id uuid.UUID) error {
	delete(c.entries, id)
	return nil
}

func TestStatus_CachesOnlyTerminalSummaries(t *testing.T) {
	f := newFixture(t, 10_000, 100, 1)
	ctx := context.Background()
	owner := authz.User(f.user.ID)
	cache := &mapCache{entries: map[uuid.UUID]order.Summary{}}
	f.svc.cache = cache

	o, err := f.svc.Checkout(ctx, owner, f.user.ID)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	got, err := f.svc.Status(ctx, owner, o.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if got.Status != order.StatusPending {
		t.Errorf("status = %s, want Pending", got.Status)
	}
	if _, ok := cache.entries[o.ID]; ok {
		t.Fatal("pending summary should not be cached")
	}

	stored, err := f.store.Orders().GetByID(ctx, authz.System(), o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := stored.Complete(); err != nil {
		t.Fatal(err)
	}
	if err := f.store.Orders().UpdateLifecycle(ctx, authz.System(), stored); err != nil {
		t.Fatal(err)
	}

	got, err = f.svc.Status(ctx, owner, o.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if got.Status != order.StatusCompleted {
		t.Errorf("status = %s, want Completed", got.Status)
	}
	cached, ok := cache.entries[o.ID]
	if !ok || cached.Status != order.StatusCompleted {
		t.Errorf("cached = %+v, %v, want Completed summary", cached, ok)
	}
}

func TestStatus_UsesCacheOnlyForOwner(t *testing.T) {
	f := newFixture(t, 10_000, 100, 1)
	ctx := context.Background()
	owner := authz.User(f.user.ID)
	cache := &mapCache{entries: map[uuid.UUID]order.Summary{}}
	f.svc.cache = cache

	o, err := f.svc.Checkout(ctx, owner, f.user.ID)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	summary := o.Summary()
	summary.Status = order.StatusCompleted
	summary.IsCompleted = true
	cache.entries[o.ID] = summary

	got, err := f.svc.Status(ctx, owner, o.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if got.Status != order.StatusCompleted {
		t.Errorf("status = %s, want cached Completed", got.Status)
	}

	if _, err := f.svc.Status(ctx, authz.User(uuid.New()), o.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("stranger err = %v, want ErrNotFound", err)
	}
}

func TestListByUser_AttachesItems(t *testing.T) {
	f := newFixture(t, 10_000, 100, 3)
	ctx := context.Background()
	p := authz.User(f.user.ID)

	if _, err := f.svc.Checkout(ctx, p, f.user.ID); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	orders, err := f.svc.ListByUser(ctx, p, f.user.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(orders) != 1 || len(orders[0].Items) != 3 {
		t.Fatalf("unexpected orders %+v", orders)
	}
}
