package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/gamesbakery/internal/dal/postgres"
	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/game"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var gameColumns = []string{
	"id",
	"category_id",
	"title",
	"price_cents",
	"release_date",
	"description",
	"is_for_sale",
	"original_publisher",
}

func scanGame(row pgx.Row) (*game.Game, error) {
	var g game.Game
	err := row.Scan(
		&g.ID,
		&g.CategoryID,
		&g.Title,
		&g.PriceCents,
		&g.ReleaseDate,
		&g.Description,
		&g.IsForSale,
		&g.OriginalPublisher,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

type PostgresGameRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

func NewPostgresGameRepository(conn postgres.GenericConn) *PostgresGameRepository {
	return &PostgresGameRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// visible restricts guests and buyers to games on sale.
func visible(p authz.Principal, query sq.SelectBuilder) sq.SelectBuilder {
	if p.Role == authz.RoleAdmin || p.Role == authz.RoleSeller {
		return query
	}
	return query.Where(sq.Eq{"is_for_sale": true})
}

func (r *PostgresGameRepository) Insert(ctx context.Context, p authz.Principal, g *game.Game) error {
	if err := p.Require(authz.RoleAdmin, authz.RoleSeller); err != nil {
		return err
	}

	sql, args, err := r.sb.Insert("games").
		Columns(gameColumns...).
		Values(
			g.ID,
			g.CategoryID,
			g.Title,
			g.PriceCents,
			g.ReleaseDate,
			g.Description,
			g.IsForSale,
			g.OriginalPublisher,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}

	return nil
}

func (r *PostgresGameRepository) GetByID(ctx context.Context, p authz.Principal, id uuid.UUID) (*game.Game, error) {
	sql, args, err := visible(p, r.sb.Select(gameColumns...).From("games").Where(sq.Eq{"id": id})).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	g, err := scanGame(r.conn.QueryRow(ctx, sql, args...))
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound("game", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return g, nil
}

// GetByIDs ignores the for-sale filter so buyers can price what they already hold.
func (r *PostgresGameRepository) GetByIDs(ctx context.Context, _ authz.Principal, ids []uuid.UUID) ([]game.Game, error) {
	if len(ids) == 0 {
		return []game.Game{}, nil
	}
	return r.query(ctx, r.sb.Select(gameColumns...).From("games").Where(sq.Eq{"id": ids}))
}

func (r *PostgresGameRepository) List(ctx context.Context, p authz.Principal, q game.Query) ([]game.Game, error) {
	query := r.sb.Select(gameColumns...).From("games")

	if q.CategoryID != uuid.Nil {
		query = query.Where(sq.Eq{"category_id": q.CategoryID})
	}
	if q.Title != "" {
		query = query.Where(sq.ILike{"title": "%" + q.Title + "%"})
	}
	if q.ForSaleOnly {
		query = query.Where(sq.Eq{"is_for_sale": true})
	}
	if q.Limit > 0 {
		query = query.Limit(uint64(q.Limit))
	}
	if q.Offset > 0 {
		query = query.Offset(uint64(q.Offset))
	}

	return r.query(ctx, visible(p, query).OrderBy("title", "id"))
}

func (r *PostgresGameRepository) SetForSale(ctx context.Context, p authz.Principal, id uuid.UUID, forSale bool) error {
	if err := p.Require(authz.RoleAdmin, authz.RoleSeller); err != nil {
		return err
	}

	sql, args, err := r.sb.Update("games").Set("is_for_sale", forSale).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("game", id)
	}

	return nil
}

func (r *PostgresGameRepository) query(ctx context.Context, query sq.SelectBuilder) ([]game.Game, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	var result []game.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		result = append(result, *g)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
