package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/gamesbakery/internal/dal/postgres"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/review"
	"github.com/google/uuid"
)

var reviewColumns = []string{"id", "user_id", "game_id", "text", "rating", "creation_date"}

type PostgresReviewRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

func NewPostgresReviewRepository(conn postgres.GenericConn) *PostgresReviewRepository {
	return &PostgresReviewRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostgresReviewRepository) Insert(ctx context.Context, p authz.Principal, rv *review.Review) error {
	if err := p.RequireUser(rv.UserID); err != nil {
		return err
	}

	sql, args, err := r.sb.Insert("reviews").
		Columns(reviewColumns...).
		Values(rv.ID, rv.UserID, rv.GameID, rv.Text, rv.Rating, rv.CreationDate).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}

	return nil
}

func (r *PostgresReviewRepository) ListByGame(ctx context.Context, _ authz.Principal, gameID uuid.UUID) ([]review.Review, error) {
	return r.list(ctx, sq.Eq{"game_id": gameID})
}

func (r *PostgresReviewRepository) ListByUser(ctx context.Context, _ authz.Principal, userID uuid.UUID) ([]review.Review, error) {
	return r.list(ctx, sq.Eq{"user_id": userID})
}

func (r *PostgresReviewRepository) list(ctx context.Context, where sq.Eq) ([]review.Review, error) {
	sql, args, err := r.sb.Select(reviewColumns...).
		From("reviews").
		Where(where).
		OrderBy("creation_date DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var result []review.Review
	for rows.Next() {
		var rv review.Review
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.GameID, &rv.Text, &rv.Rating, &rv.CreationDate); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		result = append(result, rv)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
