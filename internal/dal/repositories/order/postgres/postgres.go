package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/gamesbakery/internal/dal/postgres"
	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/order"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var orderColumns = []string{
	"id",
	"user_id",
	"order_date",
	"total_cents",
	"status",
	"is_completed",
	"is_overdue",
	"version",
}

// OrderDal represents order data access layer model.
type OrderDal struct {
	Id          uuid.UUID `db:"id"`
	UserId      uuid.UUID `db:"user_id"`
	OrderDate   time.Time `db:"order_date"`
	TotalCents  int64     `db:"total_cents"`
	Status      string    `db:"status"`
	IsCompleted bool      `db:"is_completed"`
	IsOverdue   bool      `db:"is_overdue"`
	Version     int64     `db:"version"`
}

// ToModel converts OrderDal to service layer Order model.
func (o *OrderDal) ToModel() *order.Order {
	return &order.Order{
		ID:          o.Id,
		UserID:      o.UserId,
		OrderDate:   o.OrderDate.UTC(),
		TotalCents:  o.TotalCents,
		Status:      order.Status(o.Status),
		IsCompleted: o.IsCompleted,
		IsOverdue:   o.IsOverdue,
		Version:     o.Version,
	}
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var dal OrderDal
	err := row.Scan(
		&dal.Id,
		&dal.UserId,
		&dal.OrderDate,
		&dal.TotalCents,
		&dal.Status,
		&dal.IsCompleted,
		&dal.IsOverdue,
		&dal.Version,
	)
	if err != nil {
		return nil, err
	}

	return dal.ToModel(), nil
}

// PostgresOrderRepository is a role-scoped order repository.
type PostgresOrderRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

func NewPostgresOrderRepository(conn postgres.GenericConn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// scope returns the row filter for p.
func scope(p authz.Principal) (sq.Sqlizer, error) {
	switch p.Role {
	case authz.RoleAdmin:
		return sq.Expr("TRUE"), nil
	case authz.RoleUser:
		return sq.Eq{"user_id": p.UserID}, nil
	default:
		return nil, p.Require(authz.RoleUser, authz.RoleAdmin)
	}
}

func (r *PostgresOrderRepository) Insert(ctx context.Context, p authz.Principal, o *order.Order) error {
	if err := p.RequireUser(o.UserID); err != nil {
		return err
	}

	sql, args, err := r.sb.Insert("orders").
		Columns(orderColumns...).
		Values(o.ID, o.UserID, o.OrderDate, o.TotalCents, string(o.Status), o.IsCompleted, o.IsOverdue, o.Version).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

func (r *PostgresOrderRepository) GetByID(ctx context.Context, p authz.Principal, id uuid.UUID) (*order.Order, error) {
	filter, err := scope(p)
	if err != nil {
		return nil, err
	}

	sql, args, err := r.sb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id}).
		Where(filter).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	o, err := scanOrder(r.conn.QueryRow(ctx, sql, args...))
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound("order", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return o, nil
}

func (r *PostgresOrderRepository) ListByUser(
	ctx context.Context,
	p authz.Principal,
	userID uuid.UUID,
) ([]order.Order, error) {
	if err := p.RequireUser(userID); err != nil {
		return nil, err
	}

	return r.query(ctx, r.sb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("order_date DESC"))
}

func (r *PostgresOrderRepository) ListPending(
	ctx context.Context,
	p authz.Principal,
	afterID uuid.UUID,
	limit int,
) ([]order.Order, error) {
	if err := p.Require(authz.RoleAdmin); err != nil {
		return nil, err
	}

	query := r.sb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"is_completed": false, "is_overdue": false}).
		OrderBy("id ASC")
	if afterID != uuid.Nil {
		query = query.Where(sq.Expr("id > ?", afterID))
	}
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	return r.query(ctx, query)
}

func (r *PostgresOrderRepository) UpdateLifecycle(ctx context.Context, p authz.Principal, o *order.Order) error {
	if err := p.Require(authz.RoleAdmin); err != nil {
		return err
	}

	sql, args, err := r.sb.Update("orders").
		Set("status", string(o.Status)).
		Set("is_completed", o.IsCompleted).
		Set("is_overdue", o.IsOverdue).
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{
			"id":           o.ID,
			"version":      o.Version,
			"is_completed": false,
			"is_overdue":   false,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict(fmt.Sprintf("order %s changed since version %d", o.ID, o.Version))
	}
	o.Version++

	return nil
}

func (r *PostgresOrderRepository) query(ctx context.Context, query sq.SelectBuilder) ([]order.Order, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result = append(result, *o)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
