package ioutboxrepo

import (
	"context"
	"time"

	"github.com/corray333/gamesbakery/internal/service/models/outbox"
)

// IOutboxRepository stores order events until the relay delivers them.
type IOutboxRepository interface {
	Insert(ctx context.Context, msg outbox.Message) error
	// ListDue returns messages whose next attempt is at or before now and
	// that still have retries left, oldest first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]outbox.Message, error)
	// SaveAttempt persists the retry state of msg.
	SaveAttempt(ctx context.Context, msg outbox.Message) error
	Delete(ctx context.Context, id int64) error
}
