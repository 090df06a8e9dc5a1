package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/gamesbakery/internal/dal/postgres"
	"github.com/corray333/gamesbakery/internal/service/models/outbox"
	"github.com/jackc/pgx/v5"
)

var columns = []string{
	"topic",
	"routing_key",
	"payload",
	"content_type",
	"retry_count",
	"max_retries",
	"last_error",
	"created_at",
	"updated_at",
	"next_retry_at",
}

func scanMessage(row pgx.Row) (outbox.Message, error) {
	var m outbox.Message
	err := row.Scan(
		&m.ID,
		&m.Topic,
		&m.RoutingKey,
		&m.Payload,
		&m.ContentType,
		&m.RetryCount,
		&m.MaxRetries,
		&m.LastError,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.NextRetryAt,
	)
	return m, err
}

// OutboxRepository stores order events in the outbox table. Built on a
// pgx.Tx, inserts commit together with the order change that caused them.
type OutboxRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

func NewOutboxRepository(conn postgres.GenericConn) *OutboxRepository {
	return &OutboxRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *OutboxRepository) Insert(ctx context.Context, msg outbox.Message) error {
	query, args, err := r.sb.Insert("outbox").
		Columns(columns...).
		Values(
			msg.Topic,
			msg.RoutingKey,
			msg.Payload,
			msg.ContentType,
			msg.RetryCount,
			msg.MaxRetries,
			msg.LastError,
			msg.CreatedAt,
			msg.UpdatedAt,
			msg.NextRetryAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err = r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert outbox message: %w", err)
	}

	return nil
}

func (r *OutboxRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]outbox.Message, error) {
	query, args, err := r.sb.Select(append([]string{"id"}, columns...)...).
		From("outbox").
		Where(sq.LtOrEq{"next_retry_at": now}).
		Where("retry_count < max_retries").
		OrderBy("next_retry_at", "id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox messages: %w", err)
	}
	defer rows.Close()

	messages := []outbox.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox messages: %w", err)
	}

	return messages, nil
}

func (r *OutboxRepository) SaveAttempt(ctx context.Context, msg outbox.Message) error {
	query, args, err := r.sb.Update("outbox").
		SetMap(map[string]any{
			"retry_count":   msg.RetryCount,
			"last_error":    msg.LastError,
			"next_retry_at": msg.NextRetryAt,
			"updated_at":    msg.UpdatedAt,
		}).
		Where(sq.Eq{"id": msg.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	if _, err = r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record outbox attempt: %w", err)
	}

	return nil
}

func (r *OutboxRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.sb.Delete("outbox").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err = r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete outbox message: %w", err)
	}

	return nil
}
