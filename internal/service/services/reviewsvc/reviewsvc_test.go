package reviewsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corray333/gamesbakery/internal/dal/memory"
	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/game"
	"github.com/corray333/gamesbakery/internal/service/models/user"
	"github.com/google/uuid"
)

func TestPostAndList(t *testing.T) {
	ctx := context.Background()
	sys := authz.System()
	store := memory.NewStore()

	u, _ := user.New("critic", "critic@example.com", "FR", "hash", time.Now())
	if err := store.Users().Insert(ctx, sys, u); err != nil {
		t.Fatal(err)
	}
	g, _ := game.New(uuid.New(), "Outer Wilds", 2_299, time.Now(), "Space", "Annapurna")
	g.SetForSale(true)
	if err := store.Games().Insert(ctx, sys, g); err != nil {
		t.Fatal(err)
	}

	svc := MustNewReviewService(
		WithReviewRepository(store.Reviews()),
		WithUserRepository(store.Users()),
		WithGameRepository(store.Games()),
	)
	p := authz.User(u.ID)

	if _, err := svc.Post(ctx, p, u.ID, g.ID, "Great", 5); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if _, err := svc.Post(ctx, p, u.ID, g.ID, "Bad scale", 6); !apperr.IsValidation(err) {
		t.Errorf("rating 6 err = %v, want validation", err)
	}
	if _, err := svc.Post(ctx, p, u.ID, uuid.New(), "Ghost", 3); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown game err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Post(ctx, authz.Guest(), u.ID, g.ID, "Anon", 3); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("guest err = %v, want ErrUnauthenticated", err)
	}

	byGame, err := svc.ListByGame(ctx, authz.Guest(), g.ID)
	if err != nil || len(byGame) != 1 {
		t.Fatalf("ListByGame = %v, %v", byGame, err)
	}
	byUser, _ := svc.ListByUser(ctx, authz.Guest(), u.ID)
	if len(byUser) != 1 {
		t.Errorf("ListByUser returned %d reviews", len(byUser))
	}

	u.Block()
	_ = store.Users().Update(ctx, sys, u)
	if _, err := svc.Post(ctx, p, u.ID, g.ID, "Again", 4); !errors.Is(err, apperr.ErrBlocked) {
		t.Errorf("blocked err = %v, want ErrBlocked", err)
	}
}
