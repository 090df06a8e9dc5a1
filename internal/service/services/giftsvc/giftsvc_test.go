package giftsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corray333/gamesbakery/internal/dal/memory"
	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/gift"
	"github.com/corray333/gamesbakery/internal/service/models/order"
	"github.com/corray333/gamesbakery/internal/service/models/orderitem"
	"github.com/corray333/gamesbakery/internal/service/models/user"
	"github.com/google/uuid"
)

type world struct {
	store     *memory.Store
	svc       *GiftService
	sender    *user.User
	recipient *user.User
	item      *orderitem.OrderItem
}

func newWorld(t *testing.T) *world {
	t.Helper()
	ctx := context.Background()
	sys := authz.System()
	store := memory.NewStore()

	mk := func(name string) *user.User {
		u, err := user.New(name, name+"@example.com", "DE", "hash", time.Now())
		if err != nil {
			t.Fatal(err)
		}
		if err := store.Users().Insert(ctx, sys, u); err != nil {
			t.Fatal(err)
		}
		return u
	}
	w := &world{store: store, sender: mk("sender"), recipient: mk("recipient")}

	key := "AAAA-BBBB"
	it, err := orderitem.New(uuid.New(), uuid.New(), &key)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.OrderItems().Insert(ctx, sys, it); err != nil {
		t.Fatal(err)
	}
	o, _ := order.New(w.sender.ID, time.Now(), 0)
	if err := store.Orders().Insert(ctx, sys, o); err != nil {
		t.Fatal(err)
	}
	if err := store.OrderItems().AttachToOrder(ctx, sys, []uuid.UUID{it.ID}, o.ID); err != nil {
		t.Fatal(err)
	}
	w.item = it

	w.svc = MustNewGiftService(
		WithGiftRepository(store.Gifts()),
		WithOrderItemRepository(store.OrderItems()),
		WithUnitOfWork(store),
	)
	return w
}

func TestSend_TransfersKeyVisibility(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	sp := authz.User(w.sender.ID)
	rp := authz.User(w.recipient.ID)

	available, err := w.svc.Available(ctx, sp, w.sender.ID)
	if err != nil || len(available) != 1 {
		t.Fatalf("Available = %v, %v; want one item", available, err)
	}

	g, err := w.svc.Send(ctx, sp, w.sender.ID, w.recipient.ID, w.item.ID)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	received, err := w.svc.List(ctx, rp, w.recipient.ID, gift.SourceReceived)
	if err != nil || len(received) != 1 || received[0].ID != g.ID {
		t.Fatalf("received = %v, %v", received, err)
	}
	sent, _ := w.svc.List(ctx, sp, w.sender.ID, gift.SourceSent)
	if len(sent) != 1 {
		t.Errorf("sender should see one sent gift, got %d", len(sent))
	}

	fromRecipient, err := w.store.OrderItems().GetByID(ctx, rp, w.item.ID)
	if err != nil || fromRecipient.Key == nil {
		t.Errorf("recipient should see the key, got %+v, %v", fromRecipient, err)
	}
	fromSender, err := w.store.OrderItems().GetByID(ctx, sp, w.item.ID)
	if err != nil || fromSender.Key != nil {
		t.Errorf("sender should no longer see the key, got %+v, %v", fromSender, err)
	}

	available, _ = w.svc.Available(ctx, sp, w.sender.ID)
	if len(available) != 0 {
		t.Errorf("gifted item should not be available to gift again")
	}
}

func TestSend_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("twice", func(t *testing.T) {
		w := newWorld(t)
		sp := authz.User(w.sender.ID)
		if _, err := w.svc.Send(ctx, sp, w.sender.ID, w.recipient.ID, w.item.ID); err != nil {
			t.Fatal(err)
		}
		_, err := w.svc.Send(ctx, sp, w.sender.ID, w.recipient.ID, w.item.ID)
		if !errors.Is(err, apperr.ErrConflict) {
			t.Errorf("err = %v, want ErrConflict", err)
		}
	})

	t.Run("to self", func(t *testing.T) {
		w := newWorld(t)
		_, err := w.svc.Send(ctx, authz.User(w.sender.ID), w.sender.ID, w.sender.ID, w.item.ID)
		if !apperr.IsValidation(err) {
			t.Errorf("err = %v, want validation error", err)
		}
	})

	t.Run("unknown recipient", func(t *testing.T) {
		w := newWorld(t)
		_, err := w.svc.Send(ctx, authz.User(w.sender.ID), w.sender.ID, uuid.New(), w.item.ID)
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("someone else's item", func(t *testing.T) {
		w := newWorld(t)
		_, err := w.svc.Send(ctx, authz.User(w.recipient.ID), w.recipient.ID, w.sender.ID, w.item.ID)
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestDelete_AdminOnly(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	sp := authz.User(w.sender.ID)

	g, err := w.svc.Send(ctx, sp, w.sender.ID, w.recipient.ID, w.item.ID)
	if err != nil {
		t.Fatal(err)
	}

	if err := w.svc.Delete(ctx, sp, g.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("user delete err = %v, want ErrForbidden", err)
	}
	if err := w.svc.Delete(ctx, authz.Admin(uuid.New()), g.ID); err != nil {
		t.Errorf("admin delete: %v", err)
	}
	if _, err := w.svc.Get(ctx, authz.System(), g.ID, gift.SourceAll); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("deleted gift err = %v, want ErrNotFound", err)
	}
}
