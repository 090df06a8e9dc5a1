package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/gamesbakery/internal/dal/postgres"
	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/gift"
	"github.com/google/uuid"
)

var giftColumns = []string{"id", "sender_id", "recipient_id", "order_item_id", "gift_date"}

type PostgresGiftRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

func NewPostgresGiftRepository(conn postgres.GenericConn) *PostgresGiftRepository {
	return &PostgresGiftRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// sideFilter narrows rows to the user's side of a gift.
func sideFilter(userID uuid.UUID, source gift.Source) sq.Sqlizer {
	switch source {
	case gift.SourceSent:
		return sq.Eq{"sender_id": userID}
	case gift.SourceReceived:
		return sq.Eq{"recipient_id": userID}
	default:
		return sq.Or{sq.Eq{"sender_id": userID}, sq.Eq{"recipient_id": userID}}
	}
}

func (r *PostgresGiftRepository) Insert(ctx context.Context, p authz.Principal, g *gift.Gift) error {
	if err := p.RequireUser(g.SenderID); err != nil {
		return err
	}

	sql, args, err := r.sb.Insert("gifts").
		Columns(giftColumns...).
		Values(g.ID, g.SenderID, g.RecipientID, g.OrderItemID, g.GiftDate).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperr.Conflict("order item " + g.OrderItemID.String() + " was already gifted")
		}
		return fmt.Errorf("failed to insert gift: %w", err)
	}

	return nil
}

func (r *PostgresGiftRepository) GetByID(
	ctx context.Context,
	p authz.Principal,
	id uuid.UUID,
	source gift.Source,
) (*gift.Gift, error) {
	query := r.sb.Select(giftColumns...).From("gifts").Where(sq.Eq{"id": id})

	switch p.Role {
	case authz.RoleAdmin:
	case authz.RoleUser:
		query = query.Where(sideFilter(p.UserID, source))
	default:
		return nil, p.Require(authz.RoleUser, authz.RoleAdmin)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var g gift.Gift
	err = r.conn.QueryRow(ctx, sql, args...).Scan(&g.ID, &g.SenderID, &g.RecipientID, &g.OrderItemID, &g.GiftDate)
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound("gift", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gift: %w", err)
	}

	return &g, nil
}

func (r *PostgresGiftRepository) ListByUser(
	ctx context.Context,
	p authz.Principal,
	userID uuid.UUID,
	source gift.Source,
) ([]gift.Gift, error) {
	if err := p.RequireUser(userID); err != nil {
		return nil, err
	}

	sql, args, err := r.sb.Select(giftColumns...).
		From("gifts").
		Where(sideFilter(userID, source)).
		OrderBy("gift_date DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query gifts: %w", err)
	}
	defer rows.Close()

	var result []gift.Gift
	for rows.Next() {
		var g gift.Gift
		if err := rows.Scan(&g.ID, &g.SenderID, &g.RecipientID, &g.OrderItemID, &g.GiftDate); err != nil {
			return nil, fmt.Errorf("failed to scan gift: %w", err)
		}
		result = append(result, g)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

func (r *PostgresGiftRepository) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	if err := p.Require(authz.RoleAdmin); err != nil {
		return err
	}

	sql, args, err := r.sb.Delete("gifts").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to delete gift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("gift", id)
	}

	return nil
}
