package icartrepo

import (
	"context"

	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/cart"
	"github.com/google/uuid"
)

// ICartRepository persists carts. Only the owner or an admin may touch a cart.
type ICartRepository interface {
	// GetOrCreate loads the user's cart with its items, creating an empty one if needed.
	GetOrCreate(ctx context.Context, p authz.Principal, userID uuid.UUID) (*cart.Cart, error)
	AddItem(ctx context.Context, p authz.Principal, c *cart.Cart, item cart.Item) error
	RemoveItem(ctx context.Context, p authz.Principal, c *cart.Cart, orderItemID uuid.UUID) error
	Clear(ctx context.Context, p authz.Principal, c *cart.Cart) error
}
