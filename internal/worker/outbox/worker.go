package outbox

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/corray333/gamesbakery/internal/dal/events"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/gamesbakery/internal/metrics"
	"github.com/corray333/gamesbakery/internal/service/models/outbox"
	"github.com/spf13/viper"
)

const maxBackoff = time.Hour

// Worker relays messages from the outbox table to the broker.
type Worker struct {
	outboxRepo    ioutboxrepo.IOutboxRepository
	publisher     events.Publisher
	metrics       *metrics.OutboxMetrics
	pollInterval  time.Duration
	batchSize     int
	retryInterval time.Duration
	now           func() time.Time
	stopCh        chan struct{}
	stopOnce      sync.Once
}

// NewWorker creates a new outbox worker from the outbox.* config keys.
// m may be nil.
func NewWorker(
	outboxRepo ioutboxrepo.IOutboxRepository,
	publisher events.Publisher,
	m *metrics.OutboxMetrics,
) *Worker {
	pollIntervalSeconds := viper.GetInt("outbox.poll_interval_seconds")
	if pollIntervalSeconds == 0 {
		pollIntervalSeconds = 10
	}

	batchSize := viper.GetInt("outbox.batch_size")
	if batchSize == 0 {
		batchSize = 100
	}

	retryIntervalSeconds := viper.GetInt("outbox.retry_interval_seconds")
	if retryIntervalSeconds == 0 {
		retryIntervalSeconds = 30
	}

	return &Worker{
		outboxRepo:    outboxRepo,
		publisher:     publisher,
		metrics:       m,
		pollInterval:  time.Duration(pollIntervalSeconds) * time.Second,
		batchSize:     batchSize,
		retryInterval: time.Duration(retryIntervalSeconds) * time.Second,
		now:           time.Now,
		stopCh:        make(chan struct{}),
	}
}

// Start begins processing messages from the outbox.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Outbox worker started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Outbox worker stopped")

			return
		case <-ticker.C:
			w.ProcessMessages(ctx)
		}
	}
}

// Stop stops the worker. Calling it more than once is safe.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// ProcessMessages relays one batch of due messages and returns how many
// were delivered.
func (w *Worker) ProcessMessages(ctx context.Context) int {
	messages, err := w.outboxRepo.ListDue(ctx, w.now(), w.batchSize)
	if err != nil {
		slog.Error("Failed to get pending messages from outbox", "error", err)

		return 0
	}

	if len(messages) == 0 {
		return 0
	}

	slog.Debug("Processing outbox messages", "count", len(messages))

	delivered := 0
	for _, msg := range messages {
		if err := w.publisher.Publish(ctx, msg); err != nil {
			w.scheduleRetry(ctx, msg, err)

			continue
		}

		delivered++
		if w.metrics != nil {
			w.metrics.Published.Inc()
		}
		if err := w.outboxRepo.Delete(ctx, msg.ID); err != nil {
			slog.Error("Failed to delete message from outbox after successful publish",
				"outbox_id", msg.ID,
				"error", err,
			)
		}
	}

	return delivered
}

func (w *Worker) scheduleRetry(ctx context.Context, msg outbox.Message, cause error) {
	if w.metrics != nil {
		w.metrics.Failed.Inc()
	}

	now := w.now()
	msg.RecordFailure(cause, now.Add(w.backoff(msg.RetryCount+1)), now)

	if msg.Exhausted() {
		slog.Error("Outbox message exhausted its retries",
			"outbox_id", msg.ID,
			"routing_key", msg.RoutingKey,
			"retry_count", msg.RetryCount,
			"error", cause,
		)
	} else {
		slog.Warn("Failed to publish message from outbox, will retry",
			"outbox_id", msg.ID,
			"retry_count", msg.RetryCount,
			"next_retry", msg.NextRetryAt,
			"error", cause,
		)
	}

	if err := w.outboxRepo.SaveAttempt(ctx, msg); err != nil {
		slog.Error("Failed to save outbox attempt", "outbox_id", msg.ID, "error", err)
	}
}

// backoff doubles the retry interval per attempt, capped at maxBackoff.
func (w *Worker) backoff(retryCount int) time.Duration {
	d := time.Duration(math.Pow(2, float64(retryCount-1))) * w.retryInterval
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}
