package orderitemsvc

import (
	"context"

	"github.com/corray333/gamesbakery/internal/dal/interfaces/igamerepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/orderitem"
	"github.com/google/uuid"
)

// OrderItemService manages seller inventory and key delivery.
type OrderItemService struct {
	items iorderitemrepo.IOrderItemRepository
	games igamerepo.IGameRepository
}

type option func(*OrderItemService)

func MustNewOrderItemService(opts ...option) *OrderItemService {
	s := &OrderItemService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.items == nil || s.games == nil {
		panic("orderitemsvc: order item and game repositories are required")
	}

	return s
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderItemRepository(items iorderitemrepo.IOrderItemRepository) option {
	return func(s *OrderItemService) {
		s.items = items
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithGameRepository(games igamerepo.IGameRepository) option {
	return func(s *OrderItemService) {
		s.games = games
	}
}

type CreateInput struct {
	GameID uuid.UUID
	// SellerID is ignored for sellers, who always create their own inventory.
	SellerID uuid.UUID
	Key      *string
}

// Create lists a new key for sale.
func (s *OrderItemService) Create(ctx context.Context, p authz.Principal, in CreateInput) (*orderitem.OrderItem, error) {
	sellerID := in.SellerID
	switch p.Role {
	case authz.RoleSeller:
		if p.SellerID == uuid.Nil {
			return nil, apperr.ErrUnauthenticated
		}
		sellerID = p.SellerID
	case authz.RoleAdmin:
	default:
		return nil, p.Require(authz.RoleSeller, authz.RoleAdmin)
	}

	item, err := orderitem.New(in.GameID, sellerID, in.Key)
	if err != nil {
		return nil, err
	}
	if _, err := s.games.GetByID(ctx, p, in.GameID); err != nil {
		return nil, err
	}
	if err := s.items.Insert(ctx, p, item); err != nil {
		return nil, err
	}

	return item, nil
}

// SetKey assigns the redeemable key. Sellers may only key their own items.
func (s *OrderItemService) SetKey(ctx context.Context, p authz.Principal, id uuid.UUID, key string) (*orderitem.OrderItem, error) {
	if err := p.Require(authz.RoleSeller, authz.RoleAdmin); err != nil {
		return nil, err
	}

	item, err := s.items.GetByID(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := item.SetKey(key); err != nil {
		return nil, err
	}
	if err := s.items.SetKey(ctx, p, id, *item.Key); err != nil {
		return nil, err
	}

	return item, nil
}

func (s *OrderItemService) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*orderitem.OrderItem, error) {
	return s.items.GetByID(ctx, p, id)
}

// GetKey returns the key to whoever may redeem it.
func (s *OrderItemService) GetKey(ctx context.Context, p authz.Principal, id uuid.UUID) (string, error) {
	if p.IsGuest() {
		return "", apperr.ErrUnauthenticated
	}

	item, err := s.items.GetByID(ctx, p, id)
	if err != nil {
		return "", err
	}
	if item.Key == nil {
		if p.Role == authz.RoleUser && item.IsAvailable() {
			return "", apperr.Forbidden("key of an unsold item")
		}
		return "", apperr.NotFound("key of order item", id)
	}

	return *item.Key, nil
}

func (s *OrderItemService) List(
	ctx context.Context,
	p authz.Principal,
	filter orderitem.Filter,
) ([]orderitem.OrderItem, error) {
	return s.items.List(ctx, p, filter)
}

func (s *OrderItemService) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	return s.items.Delete(ctx, p, id)
}
