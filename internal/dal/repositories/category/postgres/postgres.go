package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/gamesbakery/internal/dal/postgres"
	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/category"
	"github.com/google/uuid"
)

type PostgresCategoryRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

func NewPostgresCategoryRepository(conn postgres.GenericConn) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostgresCategoryRepository) Insert(ctx context.Context, p authz.Principal, c *category.Category) error {
	if err := p.Require(authz.RoleAdmin); err != nil {
		return err
	}

	sql, args, err := r.sb.Insert("categories").
		Columns("id", "genre_name", "description").
		Values(c.ID, c.GenreName, c.Description).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperr.Conflict("genre " + c.GenreName + " already exists")
		}
		return fmt.Errorf("failed to insert category: %w", err)
	}

	return nil
}

func (r *PostgresCategoryRepository) GetByID(ctx context.Context, _ authz.Principal, id uuid.UUID) (*category.Category, error) {
	sql, args, err := r.sb.Select("id", "genre_name", "description").
		From("categories").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var c category.Category
	err = r.conn.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.GenreName, &c.Description)
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound("category", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return &c, nil
}

func (r *PostgresCategoryRepository) List(ctx context.Context, _ authz.Principal) ([]category.Category, error) {
	sql, args, err := r.sb.Select("id", "genre_name", "description").
		From("categories").
		OrderBy("genre_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var result []category.Category
	for rows.Next() {
		var c category.Category
		if err := rows.Scan(&c.ID, &c.GenreName, &c.Description); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		result = append(result, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

func (r *PostgresCategoryRepository) Update(ctx context.Context, p authz.Principal, c *category.Category) error {
	if err := p.Require(authz.RoleAdmin); err != nil {
		return err
	}

	sql, args, err := r.sb.Update("categories").
		Set("genre_name", c.GenreName).
		Set("description", c.Description).
		Where(sq.Eq{"id": c.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperr.Conflict("genre " + c.GenreName + " already exists")
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("category", c.ID)
	}

	return nil
}
