package giftsvc

import (
	"context"
	"log/slog"
	"time"

	"github.com/corray333/gamesbakery/internal/dal/interfaces/igiftrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iuow"
	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/gift"
	"github.com/corray333/gamesbakery/internal/service/models/orderitem"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("giftsvc")

// GiftService transfers purchased keys between users.
type GiftService struct {
	gifts igiftrepo.IGiftRepository
	items iorderitemrepo.IOrderItemRepository
	uow   iuow.IFactory
	now   func() time.Time
}

type option func(*GiftService)

func MustNewGiftService(opts ...option) *GiftService {
	s := &GiftService{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if s.gifts == nil || s.items == nil || s.uow == nil {
		panic("giftsvc: gift and order item repositories and unit of work are required")
	}

	return s
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithGiftRepository(gifts igiftrepo.IGiftRepository) option {
	return func(s *GiftService) {
		s.gifts = gifts
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderItemRepository(items iorderitemrepo.IOrderItemRepository) option {
	return func(s *GiftService) {
		s.items = items
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWork(f iuow.IFactory) option {
	return func(s *GiftService) {
		s.uow = f
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *GiftService) {
		s.now = now
	}
}

// Send gives an item from one of the sender's orders to another user.
func (s *GiftService) Send(
	ctx context.Context,
	p authz.Principal,
	senderID, recipientID, orderItemID uuid.UUID,
) (*gift.Gift, error) {
	ctx, span := tracer.Start(ctx, "giftsvc.Send")
	defer span.End()
	span.SetAttributes(attribute.String("order_item.id", orderItemID.String()))

	if err := p.RequireUser(senderID); err != nil {
		return nil, err
	}

	g, err := gift.New(senderID, recipientID, orderItemID, s.now())
	if err != nil {
		return nil, err
	}

	err = iuow.Run(ctx, s.uow, func(u iuow.IUnitOfWork) error {
		if _, err := u.UserRepository().GetByID(ctx, authz.System(), recipientID); err != nil {
			return err
		}

		item, err := u.OrderItemRepository().GetByID(ctx, p, orderItemID)
		if err != nil {
			return err
		}
		if item.OrderID == nil {
			return apperr.Forbidden("order item was not purchased")
		}
		o, err := u.OrderRepository().GetByID(ctx, p, *item.OrderID)
		if err != nil {
			return err
		}
		if o.UserID != senderID {
			return apperr.Forbidden("order item belongs to another user")
		}

		if err := item.MarkGifted(); err != nil {
			return err
		}
		if err := u.OrderItemRepository().MarkGifted(ctx, p, orderItemID); err != nil {
			return err
		}

		return u.GiftRepository().Insert(ctx, p, g)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Gift sent", "gift_id", g.ID, "sender_id", senderID, "recipient_id", recipientID)

	return g, nil
}

func (s *GiftService) Get(ctx context.Context, p authz.Principal, id uuid.UUID, source gift.Source) (*gift.Gift, error) {
	return s.gifts.GetByID(ctx, p, id, source)
}

func (s *GiftService) List(ctx context.Context, p authz.Principal, userID uuid.UUID, source gift.Source) ([]gift.Gift, error) {
	return s.gifts.ListByUser(ctx, p, userID, source)
}

func (s *GiftService) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	return s.gifts.Delete(ctx, p, id)
}

// Available lists purchased items the user can still give away.
func (s *GiftService) Available(ctx context.Context, p authz.Principal, userID uuid.UUID) ([]orderitem.OrderItem, error) {
	return s.items.ListPurchasedByUser(ctx, p, userID)
}
