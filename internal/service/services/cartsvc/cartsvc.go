package cartsvc

import (
	"context"
	"log/slog"

	"github.com/corray333/gamesbakery/internal/dal/interfaces/icartrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/igamerepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/orderitem"
	"github.com/google/uuid"
)

// Line is a cart entry joined with its game.
type Line struct {
	CartItemID  uuid.UUID `json:"cartItemId"`
	OrderItemID uuid.UUID `json:"orderItemId"`
	GameID      uuid.UUID `json:"gameId"`
	SellerID    uuid.UUID `json:"sellerId"`
	Title       string    `json:"title"`
	PriceCents  int64     `json:"priceCents"`
}

// CartService manages shopping carts.
type CartService struct {
	carts icartrepo.ICartRepository
	items iorderitemrepo.IOrderItemRepository
	games igamerepo.IGameRepository
}

type option func(*CartService)

func MustNewCartService(opts ...option) *CartService {
	s := &CartService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.carts == nil || s.items == nil || s.games == nil {
		panic("cartsvc: cart, order item and game repositories are required")
	}

	return s
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithCartRepository(carts icartrepo.ICartRepository) option {
	return func(s *CartService) {
		s.carts = carts
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderItemRepository(items iorderitemrepo.IOrderItemRepository) option {
	return func(s *CartService) {
		s.items = items
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithGameRepository(games igamerepo.IGameRepository) option {
	return func(s *CartService) {
		s.games = games
	}
}

// AddItem puts an available order item into the user's cart. Adding the
// same item twice is a no-op.
func (s *CartService) AddItem(ctx context.Context, p authz.Principal, userID, orderItemID uuid.UUID) error {
	if err := p.RequireUser(userID); err != nil {
		return err
	}

	item, err := s.items.GetByID(ctx, p, orderItemID)
	if err != nil {
		return err
	}
	if item.OrderID != nil {
		return apperr.Conflict("order item " + orderItemID.String() + " is already part of an order")
	}
	if item.IsGifted {
		return apperr.Conflict("order item " + orderItemID.String() + " has already been gifted")
	}

	c, err := s.carts.GetOrCreate(ctx, p, userID)
	if err != nil {
		return err
	}
	entry, added, err := c.AddItem(orderItemID)
	if err != nil || !added {
		return err
	}

	return s.carts.AddItem(ctx, p, c, entry)
}

func (s *CartService) RemoveItem(ctx context.Context, p authz.Principal, userID, orderItemID uuid.UUID) error {
	c, err := s.carts.GetOrCreate(ctx, p, userID)
	if err != nil {
		return err
	}
	if !c.RemoveItem(orderItemID) {
		return apperr.NotFound("cart item", orderItemID)
	}

	return s.carts.RemoveItem(ctx, p, c, orderItemID)
}

// List returns the cart contents, dropping items that were sold or gifted
// since they were added.
func (s *CartService) List(ctx context.Context, p authz.Principal, userID uuid.UUID) ([]Line, error) {
	c, err := s.carts.GetOrCreate(ctx, p, userID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return []Line{}, nil
	}

	items, err := s.items.GetByIDs(ctx, p, c.OrderItemIDs())
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]orderitem.OrderItem, len(items))
	gameIDs := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		byID[it.ID] = it
		gameIDs = append(gameIDs, it.GameID)
	}

	games, err := s.games.GetByIDs(ctx, p, gameIDs)
	if err != nil {
		return nil, err
	}
	titles := make(map[uuid.UUID]string, len(games))
	prices := make(map[uuid.UUID]int64, len(games))
	for _, g := range games {
		titles[g.ID] = g.Title
		prices[g.ID] = g.PriceCents
	}

	lines := make([]Line, 0, len(c.Items))
	for _, entry := range c.Items {
		it, ok := byID[entry.OrderItemID]
		if !ok || !it.IsAvailable() {
			if err := s.carts.RemoveItem(ctx, p, c, entry.OrderItemID); err != nil {
				slog.Warn("Failed to drop unavailable cart item", "order_item_id", entry.OrderItemID, "error", err)
			}
			continue
		}
		lines = append(lines, Line{
			CartItemID:  entry.ID,
			OrderItemID: it.ID,
			GameID:      it.GameID,
			SellerID:    it.SellerID,
			Title:       titles[it.GameID],
			PriceCents:  prices[it.GameID],
		})
	}

	return lines, nil
}

// Total sums the prices of the available cart lines.
func (s *CartService) Total(ctx context.Context, p authz.Principal, userID uuid.UUID) (int64, error) {
	lines, err := s.List(ctx, p, userID)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, l := range lines {
		total += l.PriceCents
	}
	return total, nil
}

func (s *CartService) Clear(ctx context.Context, p authz.Principal, userID uuid.UUID) error {
	c, err := s.carts.GetOrCreate(ctx, p, userID)
	if err != nil {
		return err
	}
	return s.carts.Clear(ctx, p, c)
}
