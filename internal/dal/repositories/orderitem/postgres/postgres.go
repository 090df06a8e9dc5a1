package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/gamesbakery/internal/dal/postgres"
	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/orderitem"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	ownedByUser   = "oi.order_id IN (SELECT id FROM orders WHERE user_id = ?) AND NOT oi.is_gifted"
	giftedToUser  = "oi.id IN (SELECT order_item_id FROM gifts WHERE recipient_id = ?)"
	userKeyColumn = "CASE WHEN (" + ownedByUser + ") OR " + giftedToUser + " THEN oi.key END"
)

// OrderItemDal represents order item data access layer model.
type OrderItemDal struct {
	Id       uuid.UUID  `db:"id"`
	OrderId  *uuid.UUID `db:"order_id"`
	GameId   uuid.UUID  `db:"game_id"`
	SellerId uuid.UUID  `db:"seller_id"`
	Key      *string    `db:"key"`
	IsGifted bool       `db:"is_gifted"`
}

// ToModel converts OrderItemDal to service layer OrderItem model.
func (oi *OrderItemDal) ToModel() orderitem.OrderItem {
	return orderitem.OrderItem{
		ID:       oi.Id,
		OrderID:  oi.OrderId,
		GameID:   oi.GameId,
		SellerID: oi.SellerId,
		Key:      oi.Key,
		IsGifted: oi.IsGifted,
	}
}

func scanOrderItem(row pgx.Row) (orderitem.OrderItem, error) {
	var dal OrderItemDal
	if err := row.Scan(&dal.Id, &dal.OrderId, &dal.GameId, &dal.SellerId, &dal.Key, &dal.IsGifted); err != nil {
		return orderitem.OrderItem{}, err
	}
	return dal.ToModel(), nil
}

// PostgresOrderItemRepository is a role-scoped order item repository.
type PostgresOrderItemRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

func NewPostgresOrderItemRepository(conn postgres.GenericConn) *PostgresOrderItemRepository {
	return &PostgresOrderItemRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func available() sq.Sqlizer {
	return sq.And{sq.Eq{"oi.order_id": nil}, sq.Eq{"oi.is_gifted": false}}
}

// selectFor builds the visible column set and row filter for p.
func (r *PostgresOrderItemRepository) selectFor(p authz.Principal) sq.SelectBuilder {
	base := r.sb.Select("oi.id", "oi.order_id", "oi.game_id", "oi.seller_id")

	switch p.Role {
	case authz.RoleAdmin:
		return base.Column("oi.key").Column("oi.is_gifted").From("order_items oi")
	case authz.RoleSeller:
		return base.Column("oi.key").Column("oi.is_gifted").
			From("order_items oi").
			Where(sq.Eq{"oi.seller_id": p.SellerID})
	case authz.RoleUser:
		return base.Column(sq.Expr(userKeyColumn, p.UserID, p.UserID)).Column("oi.is_gifted").
			From("order_items oi").
			Where(sq.Or{
				available(),
				sq.Expr("oi.order_id IN (SELECT id FROM orders WHERE user_id = ?)", p.UserID),
				sq.Expr(giftedToUser, p.UserID),
			})
	default:
		return base.Column("NULL::text").Column("oi.is_gifted").
			From("order_items oi").
			Where(available())
	}
}

func (r *PostgresOrderItemRepository) Insert(ctx context.Context, p authz.Principal, item *orderitem.OrderItem) error {
	if !p.OwnsSeller(item.SellerID) {
		return p.Require(authz.RoleAdmin)
	}

	sql, args, err := r.sb.Insert("order_items").
		Columns("id", "order_id", "game_id", "seller_id", "key", "is_gifted").
		Values(item.ID, item.OrderID, item.GameID, item.SellerID, item.Key, item.IsGifted).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to insert order item: %w", err)
	}

	return nil
}

func (r *PostgresOrderItemRepository) GetByID(
	ctx context.Context,
	p authz.Principal,
	id uuid.UUID,
) (*orderitem.OrderItem, error) {
	sql, args, err := r.selectFor(p).Where(sq.Eq{"oi.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	item, err := scanOrderItem(r.conn.QueryRow(ctx, sql, args...))
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound("order item", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order item: %w", err)
	}

	return &item, nil
}

func (r *PostgresOrderItemRepository) GetByIDs(
	ctx context.Context,
	p authz.Principal,
	ids []uuid.UUID,
) ([]orderitem.OrderItem, error) {
	if len(ids) == 0 {
		return []orderitem.OrderItem{}, nil
	}
	return r.query(ctx, r.selectFor(p).Where(sq.Eq{"oi.id": ids}))
}

func (r *PostgresOrderItemRepository) ListByOrderIDs(
	ctx context.Context,
	p authz.Principal,
	orderIDs []uuid.UUID,
) ([]orderitem.OrderItem, error) {
	if len(orderIDs) == 0 {
		return []orderitem.OrderItem{}, nil
	}
	return r.query(ctx, r.selectFor(p).Where(sq.Eq{"oi.order_id": orderIDs}).OrderBy("oi.id"))
}

func (r *PostgresOrderItemRepository) List(
	ctx context.Context,
	p authz.Principal,
	filter orderitem.Filter,
) ([]orderitem.OrderItem, error) {
	query := r.selectFor(p)

	if filter.SellerID != uuid.Nil {
		query = query.Where(sq.Eq{"oi.seller_id": filter.SellerID})
	}
	if filter.GameID != uuid.Nil {
		query = query.Where(sq.Eq{"oi.game_id": filter.GameID})
	}
	if filter.AvailableOnly {
		query = query.Where(available())
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	return r.query(ctx, query.OrderBy("oi.id"))
}

func (r *PostgresOrderItemRepository) ListPurchasedByUser(
	ctx context.Context,
	p authz.Principal,
	userID uuid.UUID,
) ([]orderitem.OrderItem, error) {
	if err := p.RequireUser(userID); err != nil {
		return nil, err
	}

	return r.query(ctx, r.selectFor(p).
		Where(sq.Expr(ownedByUser, userID)).
		OrderBy("oi.id"))
}

func (r *PostgresOrderItemRepository) SetKey(ctx context.Context, p authz.Principal, id uuid.UUID, key string) error {
	query := r.sb.Update("order_items").Set("key", key).Where(sq.Eq{"id": id})

	switch p.Role {
	case authz.RoleAdmin:
	case authz.RoleSeller:
		query = query.Where(sq.Eq{"seller_id": p.SellerID})
	default:
		return p.Require(authz.RoleSeller, authz.RoleAdmin)
	}

	return r.exec(ctx, query, apperr.NotFound("order item", id))
}

func (r *PostgresOrderItemRepository) AttachToOrder(
	ctx context.Context,
	p authz.Principal,
	ids []uuid.UUID,
	orderID uuid.UUID,
) error {
	if len(ids) == 0 {
		return nil
	}

	query := r.sb.Update("order_items").
		Set("order_id", orderID).
		Where(sq.Eq{"id": ids, "order_id": nil, "is_gifted": false})

	switch p.Role {
	case authz.RoleAdmin:
	case authz.RoleUser:
		query = query.Where(sq.Expr("? IN (SELECT id FROM orders WHERE user_id = ?)", orderID, p.UserID))
	default:
		return p.Require(authz.RoleUser, authz.RoleAdmin)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to attach order items: %w", err)
	}
	if int(tag.RowsAffected()) != len(ids) {
		return apperr.Conflict(fmt.Sprintf("%d of %d order items are no longer available",
			len(ids)-int(tag.RowsAffected()), len(ids)))
	}

	return nil
}

func (r *PostgresOrderItemRepository) MarkGifted(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	query := r.sb.Update("order_items").
		Set("is_gifted", true).
		Where(sq.Eq{"id": id, "is_gifted": false})

	switch p.Role {
	case authz.RoleAdmin:
	case authz.RoleUser:
		query = query.Where(sq.Expr("order_id IN (SELECT id FROM orders WHERE user_id = ?)", p.UserID))
	default:
		return p.Require(authz.RoleUser, authz.RoleAdmin)
	}

	return r.exec(ctx, query, apperr.Conflict("order item "+id.String()+" cannot be gifted"))
}

func (r *PostgresOrderItemRepository) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	query := r.sb.Delete("order_items").Where(sq.Eq{"id": id})

	switch p.Role {
	case authz.RoleAdmin:
	case authz.RoleSeller:
		query = query.Where(sq.Eq{"seller_id": p.SellerID, "order_id": nil})
	default:
		return p.Require(authz.RoleSeller, authz.RoleAdmin)
	}

	return r.exec(ctx, query, apperr.NotFound("order item", id))
}

func (r *PostgresOrderItemRepository) exec(ctx context.Context, query sq.Sqlizer, noRows error) error {
	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to write order item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return noRows
	}

	return nil
}

func (r *PostgresOrderItemRepository) query(
	ctx context.Context,
	query sq.SelectBuilder,
) ([]orderitem.OrderItem, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var result []orderitem.OrderItem
	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		result = append(result, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
