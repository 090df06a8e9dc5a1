package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/gamesbakery/internal/dal/postgres"
	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/seller"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var sellerColumns = []string{"id", "name", "registration_date", "avg_rating", "password_hash"}

func scanSeller(row pgx.Row) (*seller.Seller, error) {
	var s seller.Seller
	if err := row.Scan(&s.ID, &s.Name, &s.RegistrationDate, &s.AvgRating, &s.PasswordHash); err != nil {
		return nil, err
	}
	return &s, nil
}

type PostgresSellerRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

func NewPostgresSellerRepository(conn postgres.GenericConn) *PostgresSellerRepository {
	return &PostgresSellerRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostgresSellerRepository) Insert(ctx context.Context, p authz.Principal, s *seller.Seller) error {
	if err := p.Require(authz.RoleAdmin); err != nil {
		return err
	}

	sql, args, err := r.sb.Insert("sellers").
		Columns(sellerColumns...).
		Values(s.ID, s.Name, s.RegistrationDate, s.AvgRating, s.PasswordHash).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperr.Conflict("seller " + s.Name + " already exists")
		}
		return fmt.Errorf("failed to insert seller: %w", err)
	}

	return nil
}

// GetByID is public: buyers see who sells an item.
func (r *PostgresSellerRepository) GetByID(ctx context.Context, _ authz.Principal, id uuid.UUID) (*seller.Seller, error) {
	sql, args, err := r.sb.Select(sellerColumns...).From("sellers").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	s, err := scanSeller(r.conn.QueryRow(ctx, sql, args...))
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound("seller", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get seller: %w", err)
	}

	return s, nil
}

func (r *PostgresSellerRepository) List(ctx context.Context, p authz.Principal) ([]seller.Seller, error) {
	if err := p.Require(authz.RoleAdmin); err != nil {
		return nil, err
	}

	sql, args, err := r.sb.Select(sellerColumns...).From("sellers").OrderBy("name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sellers: %w", err)
	}
	defer rows.Close()

	var result []seller.Seller
	for rows.Next() {
		s, err := scanSeller(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan seller: %w", err)
		}
		result = append(result, *s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
