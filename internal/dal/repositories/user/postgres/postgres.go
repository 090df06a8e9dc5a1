package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/gamesbakery/internal/dal/postgres"
	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/user"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var userColumns = []string{
	"id",
	"username",
	"email",
	"registration_date",
	"country",
	"password_hash",
	"is_blocked",
	"balance_cents",
	"total_spent_cents",
}

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.RegistrationDate,
		&u.Country,
		&u.PasswordHash,
		&u.IsBlocked,
		&u.BalanceCents,
		&u.TotalSpentCents,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// PostgresUserRepository is a role-scoped user repository.
type PostgresUserRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

func NewPostgresUserRepository(conn postgres.GenericConn) *PostgresUserRepository {
	return &PostgresUserRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostgresUserRepository) Insert(ctx context.Context, p authz.Principal, u *user.User) error {
	if p.Role == authz.RoleSeller {
		return apperr.Forbidden("sellers cannot create user accounts")
	}

	sql, args, err := r.sb.Insert("users").
		Columns(userColumns...).
		Values(
			u.ID,
			u.Username,
			u.Email,
			u.RegistrationDate,
			u.Country,
			u.PasswordHash,
			u.IsBlocked,
			u.BalanceCents,
			u.TotalSpentCents,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperr.Conflict("email " + u.Email + " is already registered")
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, p authz.Principal, id uuid.UUID) (*user.User, error) {
	if err := p.RequireUser(id); err != nil {
		return nil, err
	}

	return r.get(ctx, sq.Eq{"id": id}, id, "")
}

func (r *PostgresUserRepository) LockByID(ctx context.Context, p authz.Principal, id uuid.UUID) (*user.User, error) {
	if err := p.RequireUser(id); err != nil {
		return nil, err
	}

	return r.get(ctx, sq.Eq{"id": id}, id, "FOR UPDATE")
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, p authz.Principal, email string) (*user.User, error) {
	if err := p.Require(authz.RoleAdmin); err != nil {
		return nil, err
	}

	return r.get(ctx, sq.Eq{"email": email}, email, "")
}

func (r *PostgresUserRepository) get(ctx context.Context, where sq.Eq, key any, suffix string) (*user.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").Where(where).Suffix(suffix).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	u, err := scanUser(r.conn.QueryRow(ctx, sql, args...))
	if postgres.IsNoRows(err) {
		return nil, apperr.NotFound("user", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

func (r *PostgresUserRepository) List(ctx context.Context, p authz.Principal, limit, offset int) ([]user.User, error) {
	if err := p.Require(authz.RoleAdmin); err != nil {
		return nil, err
	}

	query := r.sb.Select(userColumns...).From("users").OrderBy("registration_date", "id")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	if offset > 0 {
		query = query.Offset(uint64(offset))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var result []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		result = append(result, *u)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, p authz.Principal, u *user.User) error {
	if err := p.RequireUser(u.ID); err != nil {
		return err
	}

	sql, args, err := r.sb.Update("users").
		Set("username", u.Username).
		Set("country", u.Country).
		Set("is_blocked", u.IsBlocked).
		Set("balance_cents", u.BalanceCents).
		Set("total_spent_cents", u.TotalSpentCents).
		Where(sq.Eq{"id": u.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user", u.ID)
	}

	return nil
}
