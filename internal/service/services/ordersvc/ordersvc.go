package ordersvc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/gamesbakery/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/istatuscache"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iuow"
	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/event"
	"github.com/corray333/gamesbakery/internal/service/models/order"
	"github.com/corray333/gamesbakery/internal/service/models/orderitem"
	"github.com/corray333/gamesbakery/internal/service/models/outbox"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("ordersvc")

// EventsConfig says where checkout events are addressed.
type EventsConfig struct {
	Topic      string
	Producer   string
	MaxRetries int
}

// OrderService is a service for checkout and order reads.
type OrderService struct {
	orders iorderrepo.IOrderRepository
	items  iorderitemrepo.IOrderItemRepository
	uow    iuow.IFactory
	cache  istatuscache.IOrderStatusCache
	events EventsConfig
	now    func() time.Time
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		events: EventsConfig{Topic: "gamesbakery.orders", Producer: "gamesbakery", MaxRetries: 8},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.orders == nil || s.items == nil || s.uow == nil {
		panic("ordersvc: order and order item repositories and unit of work are required")
	}

	return s
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderRepository(orders iorderrepo.IOrderRepository) option {
	return func(s *OrderService) {
		s.orders = orders
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderItemRepository(items iorderitemrepo.IOrderItemRepository) option {
	return func(s *OrderService) {
		s.items = items
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWork(f iuow.IFactory) option {
	return func(s *OrderService) {
		s.uow = f
	}
}

// WithStatusCache enables caching of order summaries.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithStatusCache(cache istatuscache.IOrderStatusCache) option {
	return func(s *OrderService) {
		s.cache = cache
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithEvents(cfg EventsConfig) option {
	return func(s *OrderService) {
		s.events = cfg
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *OrderService) {
		s.now = now
	}
}

// Checkout turns the user's cart into a pending order in one transaction:
// the balance is debited, the items are bound to the order, the cart is
// emptied and an OrderCreated event is queued.
func (s *OrderService) Checkout(ctx context.Context, p authz.Principal, userID uuid.UUID) (*order.Order, error) {
	ctx, span := tracer.Start(ctx, "ordersvc.Checkout")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID.String()))

	if err := p.RequireUser(userID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var placed *order.Order

	err := iuow.Run(ctx, s.uow, func(u iuow.IUnitOfWork) error {
		usr, err := u.UserRepository().LockByID(ctx, p, userID)
		if err != nil {
			return err
		}
		if usr.IsBlocked {
			return apperr.ErrBlocked
		}

		c, err := u.CartRepository().GetOrCreate(ctx, p, userID)
		if err != nil {
			return err
		}
		if len(c.Items) == 0 {
			return apperr.Invalid("cart", "is empty")
		}

		ids := c.OrderItemIDs()
		items, err := u.OrderItemRepository().GetByIDs(ctx, p, ids)
		if err != nil {
			return err
		}
		if len(items) != len(ids) {
			return apperr.Conflict("some cart items no longer exist")
		}

		total, err := s.price(ctx, u, p, items)
		if err != nil {
			return err
		}
		if err := usr.Debit(total); err != nil {
			return err
		}

		o, err := order.New(userID, now, total)
		if err != nil {
			return err
		}
		if err := u.OrderRepository().Insert(ctx, p, o); err != nil {
			return err
		}
		if err := u.OrderItemRepository().AttachToOrder(ctx, p, ids, o.ID); err != nil {
			return err
		}
		for i := range items {
			if err := items[i].AttachToOrder(o.ID); err != nil {
				return err
			}
		}
		o.Items = items

		if err := u.UserRepository().Update(ctx, p, usr); err != nil {
			return err
		}
		if err := u.CartRepository().Clear(ctx, p, c); err != nil {
			return err
		}

		routingKey, env, err := event.ForCreated(o, s.events.Producer, now)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("failed to marshal order event: %w", err)
		}
		msg := outbox.New(s.events.Topic, routingKey, payload, s.events.MaxRetries, now)
		if err := u.OutboxRepository().Insert(ctx, msg); err != nil {
			return err
		}

		placed = o
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", placed.ID.String()))
	slog.Info("Order placed", "order_id", placed.ID, "user_id", userID, "items", len(placed.Items), "total_cents", placed.TotalCents)

	return placed, nil
}

// price sums the game prices of items, refusing anything that is sold,
// gifted or no longer for sale.
func (s *OrderService) price(
	ctx context.Context,
	u iuow.IUnitOfWork,
	p authz.Principal,
	items []orderitem.OrderItem,
) (int64, error) {
	gameIDs := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if !it.IsAvailable() {
			return 0, apperr.Conflict("order item " + it.ID.String() + " is no longer available")
		}
		gameIDs = append(gameIDs, it.GameID)
	}

	games, err := u.GameRepository().GetByIDs(ctx, p, gameIDs)
	if err != nil {
		return 0, err
	}
	prices := make(map[uuid.UUID]int64, len(games))
	for _, g := range games {
		if g.IsForSale {
			prices[g.ID] = g.PriceCents
		}
	}

	var total int64
	for _, it := range items {
		price, ok := prices[it.GameID]
		if !ok {
			return 0, apperr.Conflict("game " + it.GameID.String() + " is not for sale")
		}
		total += price
	}

	return total, nil
}

// Get loads an order with its items.
func (s *OrderService) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*order.Order, error) {
	o, err := s.orders.GetByID(ctx, p, id)
	if err != nil {
		return nil, err
	}

	items, err := s.items.ListByOrderIDs(ctx, p, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	o.Items = items
	s.remember(ctx, o)

	return o, nil
}

// Status returns the order summary. Completed and overdue summaries are
// served from cache.
func (s *OrderService) Status(ctx context.Context, p authz.Principal, id uuid.UUID) (order.Summary, error) {
	if s.cache != nil {
		summary, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			slog.Warn("Order status cache read failed", "order_id", id, "error", err)
		}
		if ok && (p.IsAdmin() || p.OwnsUser(summary.UserID)) {
			return summary, nil
		}
	}

	o, err := s.orders.GetByID(ctx, p, id)
	if err != nil {
		return order.Summary{}, err
	}
	s.remember(ctx, o)

	return o.Summary(), nil
}

// ListByUser returns the user's orders, newest first, with items attached.
func (s *OrderService) ListByUser(ctx context.Context, p authz.Principal, userID uuid.UUID) ([]order.Order, error) {
	orders, err := s.orders.ListByUser(ctx, p, userID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []order.Order{}, nil
	}

	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	items, err := s.items.ListByOrderIDs(ctx, p, ids)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		for _, item := range items {
			if item.OrderID != nil && *item.OrderID == orders[i].ID {
				orders[i].Items = append(orders[i].Items, item)
			}
		}
	}

	return orders, nil
}

// Items returns the order items of one order.
func (s *OrderService) Items(ctx context.Context, p authz.Principal, orderID uuid.UUID) ([]orderitem.OrderItem, error) {
	if _, err := s.orders.GetByID(ctx, p, orderID); err != nil {
		return nil, err
	}
	return s.items.ListByOrderIDs(ctx, p, []uuid.UUID{orderID})
}

// remember caches terminal summaries only. They never change once written.
func (s *OrderService) remember(ctx context.Context, o *order.Order) {
	if s.cache == nil || !o.IsTerminal() {
		return
	}
	if err := s.cache.Set(ctx, o.Summary()); err != nil {
		slog.Warn("Order status cache write failed", "order_id", o.ID, "error", err)
	}
}
