package iorderrepo

import (
	"context"

	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/order"
	"github.com/google/uuid"
)

// IOrderRepository persists orders. Users only reach their own orders,
// sellers and guests are refused, admins see everything.
type IOrderRepository interface {
	Insert(ctx context.Context, p authz.Principal, o *order.Order) error
	GetByID(ctx context.Context, p authz.Principal, id uuid.UUID) (*order.Order, error)
	ListByUser(ctx context.Context, p authz.Principal, userID uuid.UUID) ([]order.Order, error)

	// ListPending pages through non-terminal orders ordered by id, starting after afterID.
	ListPending(ctx context.Context, p authz.Principal, afterID uuid.UUID, limit int) ([]order.Order, error)

	// UpdateLifecycle stores the status flags when the stored version still
	// matches o.Version, and bumps o.Version on success. A stale or already
	// terminal row yields apperr.ErrConflict.
	UpdateLifecycle(ctx context.Context, p authz.Principal, o *order.Order) error
}
