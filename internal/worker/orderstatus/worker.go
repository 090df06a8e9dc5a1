package orderstatus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/corray333/gamesbakery/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/istatuscache"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iuow"
	"github.com/corray333/gamesbakery/internal/metrics"
	"github.com/corray333/gamesbakery/internal/service/lifecycle"
	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/event"
	"github.com/corray333/gamesbakery/internal/service/models/order"
	"github.com/corray333/gamesbakery/internal/service/models/orderitem"
	"github.com/corray333/gamesbakery/internal/service/models/outbox"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Report summarises one sweep.
type Report struct {
	Scanned   int `json:"scanned"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
	Unchanged int `json:"unchanged"`
	Conflicts int `json:"conflicts"`
	Failed    int `json:"failed"`
}

// EventsConfig addresses the lifecycle events queued in the outbox.
// An empty Topic disables them.
type EventsConfig struct {
	Topic      string
	Producer   string
	MaxRetries int
}

// Worker periodically moves pending orders to Completed or Overdue.
type Worker struct {
	uow       iuow.IFactory
	orders    iorderrepo.IOrderRepository
	items     iorderitemrepo.IOrderItemRepository
	cache     istatuscache.IOrderStatusCache
	metrics   *metrics.SchedulerMetrics
	policy    lifecycle.Policy
	events    EventsConfig
	interval  time.Duration
	batchSize int
	now       func() time.Time

	// sweeps never overlap, whether from the ticker or Sweep callers
	mu       sync.Mutex
	stopCh   chan struct{}
	stopOnce sync.Once
}

type option func(*Worker)

// NewWorker creates the scheduler. Settings come from the scheduler.*
// config keys and may be overridden with options.
func NewWorker(
	uow iuow.IFactory,
	orders iorderrepo.IOrderRepository,
	items iorderitemrepo.IOrderItemRepository,
	opts ...option,
) (*Worker, error) {
	intervalSeconds := viper.GetInt("scheduler.interval_seconds")
	if intervalSeconds <= 0 {
		intervalSeconds = 60
	}

	batchSize := viper.GetInt("scheduler.batch_size")
	if batchSize <= 0 {
		batchSize = 200
	}

	policy := lifecycle.DefaultPolicy()
	if hours := viper.GetInt("scheduler.overdue_after_hours"); hours > 0 {
		policy.OverdueAfter = time.Duration(hours) * time.Hour
	}
	precedence, err := lifecycle.ParsePrecedence(viper.GetString("scheduler.precedence"))
	if err != nil {
		return nil, err
	}
	policy.Precedence = precedence

	w := &Worker{
		uow:       uow,
		orders:    orders,
		items:     items,
		policy:    policy,
		interval:  time.Duration(intervalSeconds) * time.Second,
		batchSize: batchSize,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithPolicy(p lifecycle.Policy) option {
	return func(w *Worker) {
		w.policy = p
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithBatchSize(n int) option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithInterval(d time.Duration) option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithStatusCache(cache istatuscache.IOrderStatusCache) option {
	return func(w *Worker) {
		w.cache = cache
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithMetrics(m *metrics.SchedulerMetrics) option {
	return func(w *Worker) {
		w.metrics = m
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithEvents(cfg EventsConfig) option {
	return func(w *Worker) {
		w.events = cfg
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(w *Worker) {
		w.now = now
	}
}

// Start runs a sweep on every tick until ctx is done or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("Order status scheduler started",
		"interval", w.interval,
		"batch_size", w.batchSize,
		"overdue_after", w.policy.OverdueAfter,
		"precedence", w.policy.Precedence.String(),
	)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Order status scheduler shutting down")

			return
		case <-w.stopCh:
			slog.Info("Order status scheduler stopped")

			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Stop stops the worker. Calling it more than once is safe.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// Sweep evaluates every pending order once against a single clock reading.
// A failure on one order never aborts the rest of the sweep.
func (w *Worker) Sweep(ctx context.Context) Report {
	w.mu.Lock()
	defer w.mu.Unlock()

	started := time.Now()
	now := w.now().UTC()
	sys := authz.System()

	var report Report
	afterID := uuid.Nil

	for {
		if ctx.Err() != nil {
			break
		}

		batch, err := w.orders.ListPending(ctx, sys, afterID, w.batchSize)
		if err != nil {
			slog.Error("Failed to list pending orders", "after_id", afterID, "error", err)
			w.fail(&report, 1)

			break
		}
		if len(batch) == 0 {
			break
		}
		afterID = batch[len(batch)-1].ID

		items, err := w.loadItems(ctx, batch)
		if err != nil {
			slog.Error("Failed to load order items", "orders", len(batch), "error", err)
			w.fail(&report, len(batch))
		} else {
			for i := range batch {
				o := &batch[i]
				o.Items = items[o.ID]
				w.advance(ctx, o, now, &report)
			}
		}

		if len(batch) < w.batchSize {
			break
		}
	}

	if w.metrics != nil {
		w.metrics.SweepDuration.Observe(time.Since(started).Seconds())
	}
	if report.Completed+report.Overdue+report.Conflicts+report.Failed > 0 {
		slog.Info("Order status sweep finished",
			"scanned", report.Scanned,
			"completed", report.Completed,
			"overdue", report.Overdue,
			"conflicts", report.Conflicts,
			"failed", report.Failed,
		)
	}

	return report
}

func (w *Worker) loadItems(ctx context.Context, batch []order.Order) (map[uuid.UUID][]orderitem.OrderItem, error) {
	ids := make([]uuid.UUID, 0, len(batch))
	for _, o := range batch {
		ids = append(ids, o.ID)
	}

	items, err := w.items.ListByOrderIDs(ctx, authz.System(), ids)
	if err != nil {
		return nil, err
	}

	byOrder := make(map[uuid.UUID][]orderitem.OrderItem, len(batch))
	for _, it := range items {
		if it.OrderID != nil {
			byOrder[*it.OrderID] = append(byOrder[*it.OrderID], it)
		}
	}
	return byOrder, nil
}

func (w *Worker) advance(ctx context.Context, o *order.Order, now time.Time, report *Report) {
	report.Scanned++

	outcome, err := w.policy.Step(o, now)
	if err != nil {
		slog.Error("Failed to evaluate order", "order_id", o.ID, "error", err)
		w.fail(report, 1)

		return
	}
	if outcome == lifecycle.Unchanged {
		report.Unchanged++

		return
	}

	err = iuow.Run(ctx, w.uow, func(u iuow.IUnitOfWork) error {
		if err := u.OrderRepository().UpdateLifecycle(ctx, authz.System(), o); err != nil {
			return err
		}
		return w.enqueue(ctx, u, o, now)
	})

	switch {
	case errors.Is(err, apperr.ErrConflict):
		slog.Warn("Order changed during sweep, will retry next tick", "order_id", o.ID)
		report.Conflicts++
		if w.metrics != nil {
			w.metrics.Conflicts.Inc()
		}

		return
	case err != nil:
		slog.Error("Failed to persist order status", "order_id", o.ID, "outcome", outcome.String(), "error", err)
		w.fail(report, 1)

		return
	}

	switch outcome {
	case lifecycle.Completed:
		report.Completed++
	case lifecycle.Overdue:
		report.Overdue++
	}
	if w.metrics != nil {
		w.metrics.Transitions.WithLabelValues(outcome.String()).Inc()
	}
	if w.cache != nil {
		if err := w.cache.Invalidate(ctx, o.ID); err != nil {
			slog.Warn("Failed to invalidate order status cache", "order_id", o.ID, "error", err)
		}
	}

	slog.Debug("Order status changed", "order_id", o.ID, "status", o.Status)
}

func (w *Worker) enqueue(ctx context.Context, u iuow.IUnitOfWork, o *order.Order, now time.Time) error {
	if w.events.Topic == "" {
		return nil
	}

	routingKey, env, err := event.ForLifecycle(o, w.events.Producer, now)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	return u.OutboxRepository().Insert(ctx, outbox.New(w.events.Topic, routingKey, payload, w.events.MaxRetries, now))
}

func (w *Worker) fail(report *Report, n int) {
	report.Failed += n
	if w.metrics != nil {
		w.metrics.Failures.Add(float64(n))
	}
}
