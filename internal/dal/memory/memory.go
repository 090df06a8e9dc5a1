// Package memory is an in-process implementation of every repository and the
// unit of work. It backs the "memory" storage driver and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/corray333/gamesbakery/internal/dal/interfaces/icartrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/icategoryrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/igamerepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/igiftrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/ireviewrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/isellerrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iuow"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iuserrepo"
	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/cart"
	"github.com/corray333/gamesbakery/internal/service/models/category"
	"github.com/corray333/gamesbakery/internal/service/models/game"
	"github.com/corray333/gamesbakery/internal/service/models/gift"
	"github.com/corray333/gamesbakery/internal/service/models/order"
	"github.com/corray333/gamesbakery/internal/service/models/orderitem"
	"github.com/corray333/gamesbakery/internal/service/models/outbox"
	"github.com/corray333/gamesbakery/internal/service/models/review"
	"github.com/corray333/gamesbakery/internal/service/models/seller"
	"github.com/corray333/gamesbakery/internal/service/models/user"
	"github.com/google/uuid"
)

type tables struct {
	users      map[uuid.UUID]user.User
	sellers    map[uuid.UUID]seller.Seller
	categories map[uuid.UUID]category.Category
	games      map[uuid.UUID]game.Game
	orders     map[uuid.UUID]order.Order
	items      map[uuid.UUID]orderitem.OrderItem
	carts      map[uuid.UUID]cart.Cart // keyed by user id
	reviews    map[uuid.UUID]review.Review
	gifts      map[uuid.UUID]gift.Gift
	outbox     map[int64]outbox.Message
	outboxSeq  int64
}

func newTables() tables {
	return tables{
		users:      map[uuid.UUID]user.User{},
		sellers:    map[uuid.UUID]seller.Seller{},
		categories: map[uuid.UUID]category.Category{},
		games:      map[uuid.UUID]game.Game{},
		orders:     map[uuid.UUID]order.Order{},
		items:      map[uuid.UUID]orderitem.OrderItem{},
		carts:      map[uuid.UUID]cart.Cart{},
		reviews:    map[uuid.UUID]review.Review{},
		gifts:      map[uuid.UUID]gift.Gift{},
		outbox:     map[int64]outbox.Message{},
	}
}

func (t tables) clone() tables {
	c := newTables()
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.sellers {
		c.sellers[k] = v
	}
	for k, v := range t.categories {
		c.categories[k] = v
	}
	for k, v := range t.games {
		c.games[k] = v
	}
	for k, v := range t.orders {
		c.orders[k] = v
	}
	for k, v := range t.items {
		c.items[k] = v
	}
	for k, v := range t.carts {
		v.Items = append([]cart.Item(nil), v.Items...)
		c.carts[k] = v
	}
	for k, v := range t.reviews {
		c.reviews[k] = v
	}
	for k, v := range t.gifts {
		c.gifts[k] = v
	}
	for k, v := range t.outbox {
		c.outbox[k] = v
	}
	c.outboxSeq = t.outboxSeq

	return c
}

// Store holds all tables behind one lock. A unit of work serializes with
// every other writer and restores a snapshot on rollback, so writes made
// outside a unit of work wait for the open one to finish.
type Store struct {
	mu   sync.Mutex
	tx   sync.Mutex
	data tables
}

func NewStore() *Store {
	return &Store{data: newTables()}
}

func (s *Store) read(fn func(t *tables) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.data)
}

// write applies fn as its own transaction unless the caller already holds
// the unit of work lock.
func (s *Store) write(inTx bool, fn func(t *tables) error) error {
	if !inTx {
		s.tx.Lock()
		defer s.tx.Unlock()
	}
	return s.read(fn)
}

func (s *Store) Users() *UserRepository           { return &UserRepository{s: s} }
func (s *Store) Sellers() *SellerRepository       { return &SellerRepository{s: s} }
func (s *Store) Categories() *CategoryRepository  { return &CategoryRepository{s: s} }
func (s *Store) Games() *GameRepository           { return &GameRepository{s: s} }
func (s *Store) Orders() *OrderRepository         { return &OrderRepository{s: s} }
func (s *Store) OrderItems() *OrderItemRepository { return &OrderItemRepository{s: s} }
func (s *Store) Carts() *CartRepository           { return &CartRepository{s: s} }
func (s *Store) Reviews() *ReviewRepository       { return &ReviewRepository{s: s} }
func (s *Store) Gifts() *GiftRepository           { return &GiftRepository{s: s} }
func (s *Store) Outbox() *OutboxRepository        { return &OutboxRepository{s: s} }

var (
	_ iuserrepo.IUserRepository           = (*UserRepository)(nil)
	_ isellerrepo.ISellerRepository       = (*SellerRepository)(nil)
	_ icategoryrepo.ICategoryRepository   = (*CategoryRepository)(nil)
	_ igamerepo.IGameRepository           = (*GameRepository)(nil)
	_ iorderrepo.IOrderRepository         = (*OrderRepository)(nil)
	_ iorderitemrepo.IOrderItemRepository = (*OrderItemRepository)(nil)
	_ icartrepo.ICartRepository           = (*CartRepository)(nil)
	_ ireviewrepo.IReviewRepository       = (*ReviewRepository)(nil)
	_ igiftrepo.IGiftRepository           = (*GiftRepository)(nil)
	_ ioutboxrepo.IOutboxRepository       = (*OutboxRepository)(nil)
	_ iuow.IFactory                       = (*Store)(nil)
)

// Begin starts a unit of work. Only one may be open at a time.
func (s *Store) Begin(_ context.Context) (iuow.IUnitOfWork, error) {
	s.tx.Lock()
	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	return &unitOfWork{s: s, snapshot: snapshot}, nil
}

type unitOfWork struct {
	s        *Store
	snapshot tables
	done     bool
}

func (u *unitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return &OrderRepository{s: u.s, tx: true}
}
func (u *unitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return &OrderItemRepository{s: u.s, tx: true}
}
func (u *unitOfWork) UserRepository() iuserrepo.IUserRepository {
	return &UserRepository{s: u.s, tx: true}
}
func (u *unitOfWork) GameRepository() igamerepo.IGameRepository {
	return &GameRepository{s: u.s, tx: true}
}
func (u *unitOfWork) CartRepository() icartrepo.ICartRepository {
	return &CartRepository{s: u.s, tx: true}
}
func (u *unitOfWork) GiftRepository() igiftrepo.IGiftRepository {
	return &GiftRepository{s: u.s, tx: true}
}
func (u *unitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return &OutboxRepository{s: u.s, tx: true}
}

func (u *unitOfWork) Commit(_ context.Context) error {
	u.finish()
	return nil
}

func (u *unitOfWork) Rollback(_ context.Context) error {
	if !u.done {
		u.s.mu.Lock()
		u.s.data = u.snapshot
		u.s.mu.Unlock()
	}
	u.finish()
	return nil
}

func (u *unitOfWork) finish() {
	if u.done {
		return
	}
	u.done = true
	u.s.tx.Unlock()
}

func page[T any](rows []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(rows) {
			return []T{}
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// UserRepository is the in-memory users table.
type UserRepository struct {
	s  *Store
	tx bool
}

func (r *UserRepository) Insert(_ context.Context, p authz.Principal, u *user.User) error {
	if p.Role == authz.RoleSeller {
		return apperr.Forbidden("sellers cannot create users")
	}
	return r.s.write(r.tx, func(t *tables) error {
		for _, existing := range t.users {
			if strings.EqualFold(existing.Email, u.Email) {
				return apperr.Conflict("email " + u.Email + " is taken")
			}
		}
		t.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepository) GetByID(_ context.Context, p authz.Principal, id uuid.UUID) (*user.User, error) {
	if err := p.RequireUser(id); err != nil {
		return nil, err
	}
	var out user.User
	err := r.s.read(func(t *tables) error {
		u, ok := t.users[id]
		if !ok {
			return apperr.NotFound("user", id)
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *UserRepository) LockByID(ctx context.Context, p authz.Principal, id uuid.UUID) (*user.User, error) {
	return r.GetByID(ctx, p, id)
}

func (r *UserRepository) GetByEmail(_ context.Context, p authz.Principal, email string) (*user.User, error) {
	if err := p.Require(authz.RoleAdmin); err != nil {
		return nil, err
	}
	var out *user.User
	err := r.s.read(func(t *tables) error {
		for _, u := range t.users {
			if strings.EqualFold(u.Email, email) {
				out = &u
				return nil
			}
		}
		return apperr.NotFound("user", email)
	})
	return out, err
}

func (r *UserRepository) List(_ context.Context, p authz.Principal, limit, offset int) ([]user.User, error) {
	if err := p.Require(authz.RoleAdmin); err != nil {
		return nil, err
	}
	var out []user.User
	_ = r.s.read(func(t *tables) error {
		for _, u := range t.users {
			out = append(out, u)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].RegistrationDate.Before(out[j].RegistrationDate) })
	return page(out, limit, offset), nil
}

func (r *UserRepository) Update(_ context.Context, p authz.Principal, u *user.User) error {
	if err := p.RequireUser(u.ID); err != nil {
		return err
	}
	return r.s.write(r.tx, func(t *tables) error {
		if _, ok := t.users[u.ID]; !ok {
			return apperr.NotFound("user", u.ID)
		}
		t.users[u.ID] = *u
		return nil
	})
}

// SellerRepository is the in-memory sellers table.
type SellerRepository struct {
	s  *Store
	tx bool
}

func (r *SellerRepository) Insert(_ context.Context, p authz.Principal, sl *seller.Seller) error {
	if err := p.Require(authz.RoleAdmin); err != nil {
		return err
	}
	return r.s.write(r.tx, func(t *tables) error {
		for _, existing := range t.sellers {
			if existing.Name == sl.Name {
				return apperr.Conflict("seller " + sl.Name + " already exists")
			}
		}
		t.sellers[sl.ID] = *sl
		return nil
	})
}

func (r *SellerRepository) GetByID(_ context.Context, _ authz.Principal, id uuid.UUID) (*seller.Seller, error) {
	var out seller.Seller
	err := r.s.read(func(t *tables) error {
		sl, ok := t.sellers[id]
		if !ok {
			return apperr.NotFound("seller", id)
		}
		out = sl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *SellerRepository) List(_ context.Context, p authz.Principal) ([]seller.Seller, error) {
	if err := p.Require(authz.RoleAdmin); err != nil {
		return nil, err
	}
	out := []seller.Seller{}
	_ = r.s.read(func(t *tables) error {
		for _, sl := range t.sellers {
			out = append(out, sl)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CategoryRepository is the in-memory categories table.
type CategoryRepository struct {
	s  *Store
	tx bool
}

func (r *CategoryRepository) Insert(_ context.Context, p authz.Principal, c *category.Category) error {
	if err := p.Require(authz.RoleAdmin); err != nil {
		return err
	}
	return r.s.write(r.tx, func(t *tables) error {
		t.categories[c.ID] = *c
		return nil
	})
}

func (r *CategoryRepository) GetByID(_ context.Context, _ authz.Principal, id uuid.UUID) (*category.Category, error) {
	var out category.Category
	err := r.s.read(func(t *tables) error {
		c, ok := t.categories[id]
		if !ok {
			return apperr.NotFound("category", id)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *CategoryRepository) List(_ context.Context, _ authz.Principal) ([]category.Category, error) {
	out := []category.Category{}
	_ = r.s.read(func(t *tables) error {
		for _, c := range t.categories {
			out = append(out, c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].GenreName < out[j].GenreName })
	return out, nil
}

func (r *CategoryRepository) Update(_ context.Context, p authz.Principal, c *category.Category) error {
	if err := p.Require(authz.RoleAdmin); err != nil {
		return err
	}
	return r.s.write(r.tx, func(t *tables) error {
		if _, ok := t.categories[c.ID]; !ok {
			return apperr.NotFound("category", c.ID)
		}
		t.categories[c.ID] = *c
		return nil
	})
}

// GameRepository is the in-memory games table.
type GameRepository struct {
	s  *Store
	tx bool
}

// hidesUnlisted reports whether p only sees games that are for sale.
func hidesUnlisted(p authz.Principal) bool {
	return p.Role == authz.RoleGuest || p.Role == authz.RoleUser
}

func (r *GameRepository) Insert(_ context.Context, p authz.Principal, g *game.Game) error {
	if err := p.Require(authz.RoleAdmin, authz.RoleSeller); err != nil {
		return err
	}
	return r.s.write(r.tx, func(t *tables) error {
		t.games[g.ID] = *g
		return nil
	})
}

func (r *GameRepository) GetByID(_ context.Context, p authz.Principal, id uuid.UUID) (*game.Game, error) {
	var out game.Game
	err := r.s.read(func(t *tables) error {
		g, ok := t.games[id]
		if !ok || (hidesUnlisted(p) && !g.IsForSale) {
			return apperr.NotFound("game", id)
		}
		out = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *GameRepository) GetByIDs(_ context.Context, _ authz.Principal, ids []uuid.UUID) ([]game.Game, error) {
	out := []game.Game{}
	_ = r.s.read(func(t *tables) error {
		seen := map[uuid.UUID]bool{}
		for _, id := range ids {
			if g, ok := t.games[id]; ok && !seen[id] {
				seen[id] = true
				out = append(out, g)
			}
		}
		return nil
	})
	return out, nil
}

func (r *GameRepository) List(_ context.Context, p authz.Principal, q game.Query) ([]game.Game, error) {
	out := []game.Game{}
	title := strings.ToLower(q.Title)
	_ = r.s.read(func(t *tables) error {
		for _, g := range t.games {
			switch {
			case (hidesUnlisted(p) || q.ForSaleOnly) && !g.IsForSale:
			case q.CategoryID != uuid.Nil && g.CategoryID != q.CategoryID:
			case title != "" && !strings.Contains(strings.ToLower(g.Title), title):
			default:
				out = append(out, g)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return page(out, q.Limit, q.Offset), nil
}

func (r *GameRepository) SetForSale(_ context.Context, p authz.Principal, id uuid.UUID, forSale bool) error {
	if err := p.Require(authz.RoleAdmin, authz.RoleSeller); err != nil {
		return err
	}
	return r.s.write(r.tx, func(t *tables) error {
		g, ok := t.games[id]
		if !ok {
			return apperr.NotFound("game", id)
		}
		g.SetForSale(forSale)
		t.games[id] = g
		return nil
	})
}

// OrderRepository is the in-memory orders table.
type OrderRepository struct {
	s  *Store
	tx bool
}

func (r *OrderRepository) Insert(_ context.Context, p authz.Principal, o *order.Order) error {
	if err := p.RequireUser(o.UserID); err != nil {
		return err
	}
	return r.s.write(r.tx, func(t *tables) error {
		stored := *o
		stored.Items = nil
		t.orders[o.ID] = stored
		return nil
	})
}

func (r *OrderRepository) GetByID(_ context.Context, p authz.Principal, id uuid.UUID) (*order.Order, error) {
	if err := p.Require(authz.RoleAdmin, authz.RoleUser); err != nil {
		return nil, err
	}
	var out order.Order
	err := r.s.read(func(t *tables) error {
		o, ok := t.orders[id]
		if !ok || !p.OwnsUser(o.UserID) {
			return apperr.NotFound("order", id)
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *OrderRepository) ListByUser(_ context.Context, p authz.Principal, userID uuid.UUID) ([]order.Order, error) {
	if err := p.RequireUser(userID); err != nil {
		return nil, err
	}
	out := []order.Order{}
	_ = r.s.read(func(t *tables) error {
		for _, o := range t.orders {
			if o.UserID == userID {
				out = append(out, o)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].OrderDate.After(out[j].OrderDate) })
	return out, nil
}

func (r *OrderRepository) ListPending(
	_ context.Context,
	p authz.Principal,
	afterID uuid.UUID,
	limit int,
) ([]order.Order, error) {
	if err := p.Require(authz.RoleAdmin); err != nil {
		return nil, err
	}
	out := []order.Order{}
	_ = r.s.read(func(t *tables) error {
		for _, o := range t.orders {
			if !o.IsTerminal() && strings.Compare(o.ID.String(), afterID.String()) > 0 {
				out = append(out, o)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return page(out, limit, 0), nil
}

func (r *OrderRepository) UpdateLifecycle(_ context.Context, p authz.Principal, o *order.Order) error {
	if err := p.Require(authz.RoleAdmin); err != nil {
		return err
	}
	return r.s.write(r.tx, func(t *tables) error {
		stored, ok := t.orders[o.ID]
		if !ok || stored.Version != o.Version || stored.IsTerminal() {
			return apperr.Conflict("order " + o.ID.String() + " was modified concurrently")
		}
		stored.Status = o.Status
		stored.IsCompleted = o.IsCompleted
		stored.IsOverdue = o.IsOverdue
		stored.Version++
		t.orders[o.ID] = stored
		o.Version = stored.Version
		return nil
	})
}

// OrderItemRepository is the in-memory order_items table.
type OrderItemRepository struct {
	s  *Store
	tx bool
}

// visible applies the same row and key visibility as the postgres repository.
func (r *OrderItemRepository) visible(t *tables, p authz.Principal, it orderitem.OrderItem) (orderitem.OrderItem, bool) {
	switch p.Role {
	case authz.RoleAdmin:
		return it, true
	case authz.RoleSeller:
		return it, it.SellerID == p.SellerID
	case authz.RoleUser:
		owned := false
		if it.OrderID != nil {
			o, ok := t.orders[*it.OrderID]
			owned = ok && o.UserID == p.UserID && !it.IsGifted
		}
		giftedTo := false
		for _, g := range t.gifts {
			if g.OrderItemID == it.ID && g.RecipientID == p.UserID {
				giftedTo = true
			}
		}
		if owned || giftedTo {
			return it, true
		}
		if it.OrderID != nil {
			o, ok := t.orders[*it.OrderID]
			if ok && o.UserID == p.UserID {
				return it.Redacted(), true
			}
		}
		return it.Redacted(), it.IsAvailable()
	default:
		return it.Redacted(), it.IsAvailable()
	}
}

func (r *OrderItemRepository) collect(p authz.Principal, keep func(orderitem.OrderItem) bool) []orderitem.OrderItem {
	out := []orderitem.OrderItem{}
	_ = r.s.read(func(t *tables) error {
		for _, it := range t.items {
			if !keep(it) {
				continue
			}
			if v, ok := r.visible(t, p, it); ok {
				out = append(out, v)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

func (r *OrderItemRepository) Insert(_ context.Context, p authz.Principal, item *orderitem.OrderItem) error {
	if !p.OwnsSeller(item.SellerID) {
		return p.Require(authz.RoleAdmin)
	}
	return r.s.write(r.tx, func(t *tables) error {
		t.items[item.ID] = *item
		return nil
	})
}

func (r *OrderItemRepository) GetByID(_ context.Context, p authz.Principal, id uuid.UUID) (*orderitem.OrderItem, error) {
	rows := r.collect(p, func(it orderitem.OrderItem) bool { return it.ID == id })
	if len(rows) == 0 {
		return nil, apperr.NotFound("order item", id)
	}
	return &rows[0], nil
}

func (r *OrderItemRepository) GetByIDs(_ context.Context, p authz.Principal, ids []uuid.UUID) ([]orderitem.OrderItem, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	return r.collect(p, func(it orderitem.OrderItem) bool { return want[it.ID] }), nil
}

func (r *OrderItemRepository) ListByOrderIDs(
	_ context.Context,
	p authz.Principal,
	orderIDs []uuid.UUID,
) ([]orderitem.OrderItem, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range orderIDs {
		want[id] = true
	}
	return r.collect(p, func(it orderitem.OrderItem) bool {
		return it.OrderID != nil && want[*it.OrderID]
	}), nil
}

func (r *OrderItemRepository) List(_ context.Context, p authz.Principal, f orderitem.Filter) ([]orderitem.OrderItem, error) {
	rows := r.collect(p, func(it orderitem.OrderItem) bool {
		switch {
		case f.SellerID != uuid.Nil && it.SellerID != f.SellerID:
			return false
		case f.GameID != uuid.Nil && it.GameID != f.GameID:
			return false
		case f.AvailableOnly && !it.IsAvailable():
			return false
		}
		return true
	})
	return page(rows, f.Limit, f.Offset), nil
}

func (r *OrderItemRepository) ListPurchasedByUser(
	_ context.Context,
	p authz.Principal,
	userID uuid.UUID,
) ([]orderitem.OrderItem, error) {
	if err := p.RequireUser(userID); err != nil {
		return nil, err
	}
	var owned map[uuid.UUID]bool
	_ = r.s.read(func(t *tables) error {
		owned = map[uuid.UUID]bool{}
		for _, o := range t.orders {
			if o.UserID == userID {
				owned[o.ID] = true
			}
		}
		return nil
	})
	return r.collect(p, func(it orderitem.OrderItem) bool {
		return it.OrderID != nil && owned[*it.OrderID] && !it.IsGifted
	}), nil
}

func (r *OrderItemRepository) SetKey(_ context.Context, p authz.Principal, id uuid.UUID, key string) error {
	if err := p.Require(authz.RoleAdmin, authz.RoleSeller); err != nil {
		return err
	}
	return r.s.write(r.tx, func(t *tables) error {
		it, ok := t.items[id]
		if !ok || !p.OwnsSeller(it.SellerID) {
			return apperr.NotFound("order item", id)
		}
		if err := it.SetKey(key); err != nil {
			return err
		}
		t.items[id] = it
		return nil
	})
}

func (r *OrderItemRepository) AttachToOrder(
	_ context.Context,
	p authz.Principal,
	ids []uuid.UUID,
	orderID uuid.UUID,
) error {
	if err := p.Require(authz.RoleAdmin, authz.RoleUser); err != nil {
		return err
	}
	return r.s.write(r.tx, func(t *tables) error {
		o, ok := t.orders[orderID]
		if !ok || !p.OwnsUser(o.UserID) {
			return apperr.NotFound("order", orderID)
		}
		for _, id := range ids {
			it, ok := t.items[id]
			if !ok || !it.IsAvailable() {
				return apperr.Conflict("order item " + id.String() + " is no longer available")
			}
		}
		for _, id := range ids {
			it := t.items[id]
			_ = it.AttachToOrder(orderID)
			t.items[id] = it
		}
		return nil
	})
}

func (r *OrderItemRepository) MarkGifted(_ context.Context, p authz.Principal, id uuid.UUID) error {
	if err := p.Require(authz.RoleAdmin, authz.RoleUser); err != nil {
		return err
	}
	return r.s.write(r.tx, func(t *tables) error {
		it, ok := t.items[id]
		if !ok || it.OrderID == nil {
			return apperr.NotFound("order item", id)
		}
		if o := t.orders[*it.OrderID]; !p.OwnsUser(o.UserID) {
			return apperr.NotFound("order item", id)
		}
		if err := it.MarkGifted(); err != nil {
			return err
		}
		t.items[id] = it
		return nil
	})
}

func (r *OrderItemRepository) Delete(_ context.Context, p authz.Principal, id uuid.UUID) error {
	if err := p.Require(authz.RoleAdmin, authz.RoleSeller); err != nil {
		return err
	}
	return r.s.write(r.tx, func(t *tables) error {
		it, ok := t.items[id]
		if !ok || (!p.IsAdmin() && (it.SellerID != p.SellerID || it.OrderID != nil)) {
			return apperr.NotFound("order item", id)
		}
		delete(t.items, id)
		return nil
	})
}

// CartRepository is the in-memory carts table.
type CartRepository struct {
	s  *Store
	tx bool
}

func (r *CartRepository) GetOrCreate(_ context.Context, p authz.Principal, userID uuid.UUID) (*cart.Cart, error) {
	if err := p.RequireUser(userID); err != nil {
		return nil, err
	}
	var out cart.Cart
	err := r.s.write(r.tx, func(t *tables) error {
		c, ok := t.carts[userID]
		if !ok {
			fresh, err := cart.New(userID)
			if err != nil {
				return err
			}
			c = *fresh
			t.carts[userID] = c
		}
		out = c
		out.Items = append([]cart.Item(nil), c.Items...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *CartRepository) AddItem(_ context.Context, p authz.Principal, c *cart.Cart, item cart.Item) error {
	if err := p.RequireUser(c.UserID); err != nil {
		return err
	}
	return r.s.write(r.tx, func(t *tables) error {
		stored := t.carts[c.UserID]
		for _, it := range stored.Items {
			if it.OrderItemID == item.OrderItemID {
				return nil
			}
		}
		stored.Items = append(stored.Items, item)
		t.carts[c.UserID] = stored
		return nil
	})
}

func (r *CartRepository) RemoveItem(_ context.Context, p authz.Principal, c *cart.Cart, orderItemID uuid.UUID) error {
	if err := p.RequireUser(c.UserID); err != nil {
		return err
	}
	return r.s.write(r.tx, func(t *tables) error {
		stored := t.carts[c.UserID]
		stored.RemoveItem(orderItemID)
		t.carts[c.UserID] = stored
		return nil
	})
}

func (r *CartRepository) Clear(_ context.Context, p authz.Principal, c *cart.Cart) error {
	if err := p.RequireUser(c.UserID); err != nil {
		return err
	}
	return r.s.write(r.tx, func(t *tables) error {
		stored := t.carts[c.UserID]
		stored.Items = nil
		t.carts[c.UserID] = stored
		return nil
	})
}

// ReviewRepository is the in-memory reviews table.
type ReviewRepository struct {
	s  *Store
	tx bool
}

func (r *ReviewRepository) Insert(_ context.Context, p authz.Principal, rv *review.Review) error {
	if err := p.RequireUser(rv.UserID); err != nil {
		return err
	}
	return r.s.write(r.tx, func(t *tables) error {
		t.reviews[rv.ID] = *rv
		return nil
	})
}

func (r *ReviewRepository) list(keep func(review.Review) bool) []review.Review {
	out := []review.Review{}
	_ = r.s.read(func(t *tables) error {
		for _, rv := range t.reviews {
			if keep(rv) {
				out = append(out, rv)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreationDate.After(out[j].CreationDate) })
	return out
}

func (r *ReviewRepository) ListByGame(_ context.Context, _ authz.Principal, gameID uuid.UUID) ([]review.Review, error) {
	return r.list(func(rv review.Review) bool { return rv.GameID == gameID }), nil
}

func (r *ReviewRepository) ListByUser(_ context.Context, _ authz.Principal, userID uuid.UUID) ([]review.Review, error) {
	return r.list(func(rv review.Review) bool { return rv.UserID == userID }), nil
}

// GiftRepository is the in-memory gifts table.
type GiftRepository struct {
	s  *Store
	tx bool
}

func onSide(g gift.Gift, userID uuid.UUID, source gift.Source) bool {
	switch source {
	case gift.SourceSent:
		return g.SenderID == userID
	case gift.SourceReceived:
		return g.RecipientID == userID
	default:
		return g.SenderID == userID || g.RecipientID == userID
	}
}

func (r *GiftRepository) Insert(_ context.Context, p authz.Principal, g *gift.Gift) error {
	if err := p.RequireUser(g.SenderID); err != nil {
		return err
	}
	return r.s.write(r.tx, func(t *tables) error {
		for _, existing := range t.gifts {
			if existing.OrderItemID == g.OrderItemID {
				return apperr.Conflict("order item was already gifted")
			}
		}
		t.gifts[g.ID] = *g
		return nil
	})
}

func (r *GiftRepository) GetByID(_ context.Context, p authz.Principal, id uuid.UUID, source gift.Source) (*gift.Gift, error) {
	if err := p.Require(authz.RoleAdmin, authz.RoleUser); err != nil {
		return nil, err
	}
	var out gift.Gift
	err := r.s.read(func(t *tables) error {
		g, ok := t.gifts[id]
		if !ok || (!p.IsAdmin() && !onSide(g, p.UserID, source)) {
			return apperr.NotFound("gift", id)
		}
		out = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *GiftRepository) ListByUser(
	_ context.Context,
	p authz.Principal,
	userID uuid.UUID,
	source gift.Source,
) ([]gift.Gift, error) {
	if err := p.RequireUser(userID); err != nil {
		return nil, err
	}
	out := []gift.Gift{}
	_ = r.s.read(func(t *tables) error {
		for _, g := range t.gifts {
			if onSide(g, userID, source) {
				out = append(out, g)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].GiftDate.After(out[j].GiftDate) })
	return out, nil
}

func (r *GiftRepository) Delete(_ context.Context, p authz.Principal, id uuid.UUID) error {
	if err := p.Require(authz.RoleAdmin); err != nil {
		return err
	}
	return r.s.write(r.tx, func(t *tables) error {
		if _, ok := t.gifts[id]; !ok {
			return apperr.NotFound("gift", id)
		}
		delete(t.gifts, id)
		return nil
	})
}

// OutboxRepository is the in-memory outbox table.
type OutboxRepository struct {
	s  *Store
	tx bool
}

func (r *OutboxRepository) Insert(_ context.Context, msg outbox.Message) error {
	return r.s.write(r.tx, func(t *tables) error {
		t.outboxSeq++
		msg.ID = t.outboxSeq
		t.outbox[msg.ID] = msg
		return nil
	})
}

func (r *OutboxRepository) ListDue(_ context.Context, now time.Time, limit int) ([]outbox.Message, error) {
	out := []outbox.Message{}
	_ = r.s.read(func(t *tables) error {
		for _, m := range t.outbox {
			if !m.Exhausted() && !m.NextRetryAt.After(now) {
				out = append(out, m)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, limit, 0), nil
}

func (r *OutboxRepository) SaveAttempt(_ context.Context, msg outbox.Message) error {
	return r.s.write(r.tx, func(t *tables) error {
		if _, ok := t.outbox[msg.ID]; !ok {
			return apperr.NotFound("outbox message", msg.ID)
		}
		t.outbox[msg.ID] = msg
		return nil
	})
}

func (r *OutboxRepository) Delete(_ context.Context, id int64) error {
	return r.s.write(r.tx, func(t *tables) error {
		delete(t.outbox, id)
		return nil
	})
}

// Messages returns every stored outbox message ordered by id.
func (r *OutboxRepository) Messages() []outbox.Message {
	out := []outbox.Message{}
	_ = r.s.read(func(t *tables) error {
		for _, m := range t.outbox {
			out = append(out, m)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
