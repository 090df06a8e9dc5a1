package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/gamesbakery/internal/dal/postgres"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/cart"
	"github.com/google/uuid"
)

type PostgresCartRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

func NewPostgresCartRepository(conn postgres.GenericConn) *PostgresCartRepository {
	return &PostgresCartRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostgresCartRepository) GetOrCreate(ctx context.Context, p authz.Principal, userID uuid.UUID) (*cart.Cart, error) {
	if err := p.RequireUser(userID); err != nil {
		return nil, err
	}

	fresh, err := cart.New(userID)
	if err != nil {
		return nil, err
	}

	// The no-op update makes RETURNING yield the existing row on conflict.
	sql, args, err := r.sb.Insert("carts").
		Columns("id", "user_id").
		Values(fresh.ID, userID).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build upsert query: %w", err)
	}

	c := &cart.Cart{UserID: userID}
	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&c.ID); err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	sql, args, err = r.sb.Select("id", "cart_id", "order_item_id").
		From("cart_items").
		Where(sq.Eq{"cart_id": c.ID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it cart.Item
		if err := rows.Scan(&it.ID, &it.CartID, &it.OrderItemID); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		c.Items = append(c.Items, it)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return c, nil
}

func (r *PostgresCartRepository) AddItem(ctx context.Context, p authz.Principal, c *cart.Cart, item cart.Item) error {
	if err := p.RequireUser(c.UserID); err != nil {
		return err
	}

	sql, args, err := r.sb.Insert("cart_items").
		Columns("id", "cart_id", "order_item_id").
		Values(item.ID, c.ID, item.OrderItemID).
		Suffix("ON CONFLICT (cart_id, order_item_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}

	return nil
}

func (r *PostgresCartRepository) RemoveItem(
	ctx context.Context,
	p authz.Principal,
	c *cart.Cart,
	orderItemID uuid.UUID,
) error {
	if err := p.RequireUser(c.UserID); err != nil {
		return err
	}

	return r.delete(ctx, sq.Eq{"cart_id": c.ID, "order_item_id": orderItemID})
}

func (r *PostgresCartRepository) Clear(ctx context.Context, p authz.Principal, c *cart.Cart) error {
	if err := p.RequireUser(c.UserID); err != nil {
		return err
	}

	return r.delete(ctx, sq.Eq{"cart_id": c.ID})
}

func (r *PostgresCartRepository) delete(ctx context.Context, where sq.Eq) error {
	sql, args, err := r.sb.Delete("cart_items").Where(where).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to delete cart items: %w", err)
	}

	return nil
}
