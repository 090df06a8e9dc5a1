package uow

import (
	"context"

	"github.com/corray333/gamesbakery/internal/dal/interfaces/icartrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/igamerepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/igiftrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iuow"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iuserrepo"
	"github.com/corray333/gamesbakery/internal/dal/postgres"
	cartrepo "github.com/corray333/gamesbakery/internal/dal/repositories/cart/postgres"
	gamerepo "github.com/corray333/gamesbakery/internal/dal/repositories/game/postgres"
	giftrepo "github.com/corray333/gamesbakery/internal/dal/repositories/gift/postgres"
	orderrepo "github.com/corray333/gamesbakery/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/corray333/gamesbakery/internal/dal/repositories/orderitem/postgres"
	outboxrepo "github.com/corray333/gamesbakery/internal/dal/repositories/outbox/postgres"
	userrepo "github.com/corray333/gamesbakery/internal/dal/repositories/user/postgres"
	"github.com/jackc/pgx/v5"
)

type unitOfWork struct {
	tx            pgx.Tx
	orderRepo     iorderrepo.IOrderRepository
	orderItemRepo iorderitemrepo.IOrderItemRepository
	userRepo      iuserrepo.IUserRepository
	gameRepo      igamerepo.IGameRepository
	cartRepo      icartrepo.ICartRepository
	giftRepo      igiftrepo.IGiftRepository
	outboxRepo    ioutboxrepo.IOutboxRepository
}

func (u *unitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *unitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

func (u *unitOfWork) UserRepository() iuserrepo.IUserRepository {
	return u.userRepo
}

func (u *unitOfWork) GameRepository() igamerepo.IGameRepository {
	return u.gameRepo
}

func (u *unitOfWork) CartRepository() icartrepo.ICartRepository {
	return u.cartRepo
}

func (u *unitOfWork) GiftRepository() igiftrepo.IGiftRepository {
	return u.giftRepo
}

func (u *unitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	return u.tx.Commit(ctx)
}

func (u *unitOfWork) Rollback(ctx context.Context) error {
	return u.tx.Rollback(ctx)
}

// Factory opens transactions on the shared pool.
type Factory struct {
	client *postgres.Client
}

func NewFactory(client *postgres.Client) *Factory {
	return &Factory{client: client}
}

// Begin starts a transaction and binds fresh repositories to it.
func (f *Factory) Begin(ctx context.Context) (iuow.IUnitOfWork, error) {
	tx, err := f.client.Pool().Begin(ctx)
	if err != nil {
		return nil, err
	}

	return &unitOfWork{
		tx:            tx,
		orderRepo:     orderrepo.NewPostgresOrderRepository(tx),
		orderItemRepo: orderitemrepo.NewPostgresOrderItemRepository(tx),
		userRepo:      userrepo.NewPostgresUserRepository(tx),
		gameRepo:      gamerepo.NewPostgresGameRepository(tx),
		cartRepo:      cartrepo.NewPostgresCartRepository(tx),
		giftRepo:      giftrepo.NewPostgresGiftRepository(tx),
		outboxRepo:    outboxrepo.NewOutboxRepository(tx),
	}, nil
}
