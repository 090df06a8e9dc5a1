package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/corray333/gamesbakery/internal/service/models/order"
	"github.com/google/uuid"
)

const (
	TypeOrderCreated   = "OrderCreated"
	TypeOrderCompleted = "OrderCompleted"
	TypeOrderOverdue   = "OrderOverdue"
)

// Routing keys used on the orders exchange / topic.
const (
	RoutingOrderCreated   = "order.created"
	RoutingOrderCompleted = "order.completed"
	RoutingOrderOverdue   = "order.overdue"
)

const currentVersion = 1

// Envelope wraps every published order event.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreated struct {
	OrderID      string   `json:"order_id"`
	UserID       string   `json:"user_id"`
	OrderItemIDs []string `json:"order_item_ids"`
	TotalCents   int64    `json:"total_cents"`
}

type OrderCompleted struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
}

type OrderOverdue struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	OrderDate time.Time `json:"order_date"`
}

// NewEnvelope marshals payload and stamps it with a fresh event id.
func NewEnvelope(eventType, producer, correlationID string, payload any, now time.Time) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}

	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  currentVersion,
		OccurredAt:    now.UTC(),
		Producer:      producer,
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}

// ForLifecycle builds the event announcing that o reached a terminal state.
// It returns the routing key alongside the envelope.
func ForLifecycle(o *order.Order, producer string, now time.Time) (string, Envelope, error) {
	switch {
	case o.IsCompleted:
		env, err := NewEnvelope(TypeOrderCompleted, producer, o.ID.String(), OrderCompleted{
			OrderID: o.ID.String(),
			UserID:  o.UserID.String(),
		}, now)
		return RoutingOrderCompleted, env, err
	case o.IsOverdue:
		env, err := NewEnvelope(TypeOrderOverdue, producer, o.ID.String(), OrderOverdue{
			OrderID:   o.ID.String(),
			UserID:    o.UserID.String(),
			OrderDate: o.OrderDate,
		}, now)
		return RoutingOrderOverdue, env, err
	default:
		return "", Envelope{}, fmt.Errorf("order %s is not terminal", o.ID)
	}
}

// ForCreated builds the checkout event for o.
func ForCreated(o *order.Order, producer string, now time.Time) (string, Envelope, error) {
	ids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.ID.String())
	}
	env, err := NewEnvelope(TypeOrderCreated, producer, o.ID.String(), OrderCreated{
		OrderID:      o.ID.String(),
		UserID:       o.UserID.String(),
		OrderItemIDs: ids,
		TotalCents:   o.TotalCents,
	}, now)

	return RoutingOrderCreated, env, err
}

// Decode unmarshals the envelope payload into T.
func Decode[T any](env Envelope) (T, error) {
	var t T
	if err := json.Unmarshal(env.Payload, &t); err != nil {
		return t, fmt.Errorf("failed to decode %s payload: %w", env.EventType, err)
	}
	return t, nil
}
