package iuow

import (
	"context"
	"errors"
	"fmt"

	"github.com/corray333/gamesbakery/internal/dal/interfaces/icartrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/igamerepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/igiftrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iuserrepo"
)

// IUnitOfWork exposes repositories bound to a single transaction.
type IUnitOfWork interface {
	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	UserRepository() iuserrepo.IUserRepository
	GameRepository() igamerepo.IGameRepository
	CartRepository() icartrepo.ICartRepository
	GiftRepository() igiftrepo.IGiftRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// IFactory starts units of work.
type IFactory interface {
	Begin(ctx context.Context) (IUnitOfWork, error)
}

// Run executes fn in a fresh unit of work, committing when fn succeeds.
func Run(ctx context.Context, f IFactory, fn func(u IUnitOfWork) error) error {
	u, err := f.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(u); err != nil {
		if rbErr := u.Rollback(ctx); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to rollback transaction: %w", rbErr))
		}
		return err
	}

	if err := u.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
