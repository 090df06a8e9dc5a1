package iorderitemrepo

import (
	"context"

	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/orderitem"
	"github.com/google/uuid"
)

// IOrderItemRepository persists order items.
//
// Sellers see their own inventory. Users see items still on sale, items of
// their own orders and items gifted to them; keys are returned only for the
// latter two. Guests see items on sale without keys. Admins see everything.
type IOrderItemRepository interface {
	Insert(ctx context.Context, p authz.Principal, item *orderitem.OrderItem) error
	GetByID(ctx context.Context, p authz.Principal, id uuid.UUID) (*orderitem.OrderItem, error)
	GetByIDs(ctx context.Context, p authz.Principal, ids []uuid.UUID) ([]orderitem.OrderItem, error)
	ListByOrderIDs(ctx context.Context, p authz.Principal, orderIDs []uuid.UUID) ([]orderitem.OrderItem, error)
	List(ctx context.Context, p authz.Principal, filter orderitem.Filter) ([]orderitem.OrderItem, error)

	// ListPurchasedByUser returns items of the user's orders that were not given away.
	ListPurchasedByUser(ctx context.Context, p authz.Principal, userID uuid.UUID) ([]orderitem.OrderItem, error)

	SetKey(ctx context.Context, p authz.Principal, id uuid.UUID, key string) error

	// AttachToOrder binds unsold items to orderID. It fails with
	// apperr.ErrConflict unless every item was still available.
	AttachToOrder(ctx context.Context, p authz.Principal, ids []uuid.UUID, orderID uuid.UUID) error

	MarkGifted(ctx context.Context, p authz.Principal, id uuid.UUID) error
	Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error
}
