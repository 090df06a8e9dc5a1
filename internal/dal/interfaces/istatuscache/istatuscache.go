package istatuscache

import (
	"context"

	"github.com/corray333/gamesbakery/internal/service/models/order"
	"github.com/google/uuid"
)

// IOrderStatusCache keeps recently read order summaries.
type IOrderStatusCache interface {
	// Get reports false on a miss.
	Get(ctx context.Context, orderID uuid.UUID) (order.Summary, bool, error)
	Set(ctx context.Context, s order.Summary) error
	Invalidate(ctx context.Context, orderID uuid.UUID) error
}
