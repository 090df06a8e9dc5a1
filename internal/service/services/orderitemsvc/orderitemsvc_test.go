package orderitemsvc

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
	"github.com/google/uuid"
)

func setup(t *testing.T) (*memory.Store, *OrderItemService, uuid.UUID) {
	t.Helper()
	store := memory.NewStore()
	g, err := game.New(uuid.New(), "Hades", 2_499, time.Now(), "Roguelike", "Supergiant")
	if err != nil {
		t.Fatal(err)
	}
	g.SetForSale(true)
	if err := store.Games().Insert(context.Background(), authz.System(), g); err != nil {
		t.Fatal(err)
	}
	return store, MustNewOrderItemService(
		WithOrderItemRepository(store.OrderItems()),
		WithGameRepository(store.Games()),
	), g.ID
}

func TestCreate_SellerOwnsItem(t *testing.T) {
	_, svc, gameID := setup(t)
	ctx := context.Background()
	sellerID := uuid.New()

	item, err := svc.Create(ctx, authz.Seller(sellerID), CreateInput{GameID: gameID, SellerID: uuid.New()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if item.SellerID != sellerID {
		t.Errorf("seller = %s, want %s", item.SellerID, sellerID)
	}

	if _, err := svc.Create(ctx, authz.User(uuid.New()), CreateInput{GameID: gameID}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("user create err = %v, want ErrForbidden", err)
	}
	if _, err := svc.Create(ctx, authz.Seller(sellerID), CreateInput{GameID: uuid.New()}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown game err = %v, want ErrNotFound", err)
	}
}

func TestSetKey_OnlyOwnItems(t *testing.T) {
	_, svc, gameID := setup(t)
	ctx := context.Background()
	owner := authz.Seller(uuid.New())

	item, err := svc.Create(ctx, owner, CreateInput{GameID: gameID})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.SetKey(ctx, authz.Seller(uuid.New()), item.ID, "KEY-1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("foreign seller err = %v, want ErrNotFound", err)
	}
	if _, err := svc.SetKey(ctx, owner, item.ID, "   "); !apperr.IsValidation(err) {
		t.Errorf("blank key err = %v, want validation", err)
	}

	keyed, err := svc.SetKey(ctx, owner, item.ID, " KEY-1 ")
	if err != nil {
		t.Fatalf("SetKey: %v", err)
	}
	if keyed.Key == nil || *keyed.Key != "KEY-1" {
		t.Errorf("key = %v, want KEY-1", keyed.Key)
	}
}

func TestGetKey_Visibility(t *testing.T) {
	store, svc, gameID := setup(t)
	ctx := context.Background()
	seller := authz.Seller(uuid.New())
	key := "SECRET"

	item, err := svc.Create(ctx, seller, CreateInput{GameID: gameID, Key: &key})
	if err != nil {
		t.Fatal(err)
	}

	buyerID := uuid.New()
	buyer := authz.User(buyerID)

	if _, err := svc.GetKey(ctx, authz.Guest(), item.ID); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("guest err = %v", err)
	}
	if _, err := svc.GetKey(ctx, buyer, item.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("unsold err = %v, want ErrForbidden", err)
	}
	if got, err := svc.GetKey(ctx, seller, item.ID); err != nil || got != key {
		t.Errorf("seller GetKey = %q, %v", got, err)
	}

	o, _ := order.New(buyerID, time.Now(), 0)
	if err := store.Orders().Insert(ctx, buyer, o); err != nil {
		t.Fatal(err)
	}
	if err := store.OrderItems().AttachToOrder(ctx, buyer, []uuid.UUID{item.ID}, o.ID); err != nil {
		t.Fatal(err)
	}

	if got, err := svc.GetKey(ctx, buyer, item.ID); err != nil || got != key {
		t.Errorf("buyer GetKey = %q, %v", got, err)
	}
	if _, err := svc.GetKey(ctx, authz.User(uuid.New()), item.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("stranger err = %v, want ErrNotFound", err)
	}
}

func TestDelete_SellerCannotDeleteSold(t *testing.T) {
	store, svc, gameID := setup(t)
	ctx := context.Background()
	seller := authz.Seller(uuid.New())

	item, err := svc.Create(ctx, seller, CreateInput{GameID: gameID})
	if err != nil {
		t.Fatal(err)
	}
	o, _ := order.New(uuid.New(), time.Now(), 0)
	_ = store.Orders().Insert(ctx, authz.System(), o)
	if err := store.OrderItems().AttachToOrder(ctx, authz.System(), []uuid.UUID{item.ID}, o.ID); err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(ctx, seller, item.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("delete sold err = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, authz.System(), item.ID); err != nil {
		t.Errorf("admin delete: %v", err)
	}
}
