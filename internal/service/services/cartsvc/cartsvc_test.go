package cartsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corray333/gamesbakery/internal/dal/memory"
	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/game"
	"github.com/corray333/gamesbakery/internal/service/models/order"
	"github.com/corray333/gamesbakery/internal/service/models/orderitem"
	"github.com/google/uuid"
)

func setup(t *testing.T) (*memory.Store, *CartService, *game.Game) {
	t.Helper()
	store := memory.NewStore()
	g, err := game.New(uuid.New(), "Celeste", 1_999, time.Now(), "Climbing", "Maddy Makes Games")
	if err != nil {
		t.Fatal(err)
	}
	g.SetForSale(true)
	if err := store.Games().Insert(context.Background(), authz.System(), g); err != nil {
		t.Fatal(err)
	}

	svc := MustNewCartService(
		WithCartRepository(store.Carts()),
		WithOrderItemRepository(store.OrderItems()),
		WithGameRepository(store.Games()),
	)
	return store, svc, g
}

func newItem(t *testing.T, store *memory.Store, gameID uuid.UUID) *orderitem.OrderItem {
	t.Helper()
	it, err := orderitem.New(gameID, uuid.New(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.OrderItems().Insert(context.Background(), authz.System(), it); err != nil {
		t.Fatal(err)
	}
	return it
}

func TestAddItem_ListAndTotal(t *testing.T) {
	store, svc, g := setup(t)
	ctx := context.Background()
	userID := uuid.New()
	p := authz.User(userID)

	a := newItem(t, store, g.ID)
	b := newItem(t, store, g.ID)

	for _, id := range []uuid.UUID{a.ID, b.ID, a.ID} {
		if err := svc.AddItem(ctx, p, userID, id); err != nil {
			t.Fatalf("AddItem(%s): %v", id, err)
		}
	}

	lines, err := svc.List(ctx, p, userID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (duplicate add is a no-op)", len(lines))
	}
	if lines[0].Title != "Celeste" || lines[0].PriceCents != 1_999 {
		t.Errorf("unexpected line %+v", lines[0])
	}

	total, err := svc.Total(ctx, p, userID)
	if err != nil {
		t.Fatalf("Total: %v", err)
	}
	if total != 3_998 {
		t.Errorf("total = %d, want 3998", total)
	}
}

func TestAddItem_RejectsSoldItem(t *testing.T) {
	store, svc, g := setup(t)
	ctx := context.Background()
	buyer := uuid.New()

	it := newItem(t, store, g.ID)
	o, _ := order.New(buyer, time.Now(), 0)
	if err := store.Orders().Insert(ctx, authz.System(), o); err != nil {
		t.Fatal(err)
	}
	if err := store.OrderItems().AttachToOrder(ctx, authz.System(), []uuid.UUID{it.ID}, o.ID); err != nil {
		t.Fatal(err)
	}

	err := svc.AddItem(ctx, authz.User(buyer), buyer, it.ID)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("buyer err = %v, want ErrConflict", err)
	}

	other := uuid.New()
	err = svc.AddItem(ctx, authz.User(other), other, it.ID)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("stranger err = %v, want ErrNotFound", err)
	}
}

func TestList_DropsItemsSoldMeanwhile(t *testing.T) {
	store, svc, g := setup(t)
	ctx := context.Background()
	userID := uuid.New()
	p := authz.User(userID)

	it := newItem(t, store, g.ID)
	if err := svc.AddItem(ctx, p, userID, it.ID); err != nil {
		t.Fatal(err)
	}

	o, _ := order.New(uuid.New(), time.Now(), 0)
	if err := store.Orders().Insert(ctx, authz.System(), o); err != nil {
		t.Fatal(err)
	}
	if err := store.OrderItems().AttachToOrder(ctx, authz.System(), []uuid.UUID{it.ID}, o.ID); err != nil {
		t.Fatal(err)
	}

	lines, err := svc.List(ctx, p, userID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("got %d lines, want 0", len(lines))
	}
	c, _ := store.Carts().GetOrCreate(ctx, p, userID)
	if len(c.Items) != 0 {
		t.Errorf("stale entry should be removed from the cart")
	}
}

func TestRemoveItemAndClear(t *testing.T) {
	store, svc, g := setup(t)
	ctx := context.Background()
	userID := uuid.New()
	p := authz.User(userID)

	a := newItem(t, store, g.ID)
	b := newItem(t, store, g.ID)
	_ = svc.AddItem(ctx, p, userID, a.ID)
	_ = svc.AddItem(ctx, p, userID, b.ID)

	if err := svc.RemoveItem(ctx, p, userID, a.ID); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if err := svc.RemoveItem(ctx, p, userID, a.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second remove err = %v, want ErrNotFound", err)
	}

	if err := svc.Clear(ctx, p, userID); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	lines, _ := svc.List(ctx, p, userID)
	if len(lines) != 0 {
		t.Errorf("cart should be empty after Clear")
	}
}

func TestCartIsPrivate(t *testing.T) {
	_, svc, _ := setup(t)
	ctx := context.Background()

	if _, err := svc.List(ctx, authz.Guest(), uuid.New()); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("guest err = %v, want ErrUnauthenticated", err)
	}
	if _, err := svc.List(ctx, authz.User(uuid.New()), uuid.New()); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("other user err = %v, want ErrForbidden", err)
	}
}
