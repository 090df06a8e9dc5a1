package order

import (
	"time"

	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/orderitem"
	"github.com/google/uuid"
)

// Status is the textual lifecycle state stored next to the flags.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
	StatusOverdue   Status = "Overdue"
)

// Order is a purchase of one or more order items.
type Order struct {
	ID          uuid.UUID             `json:"id"`
	UserID      uuid.UUID             `json:"userId"`
	OrderDate   time.Time             `json:"orderDate"`
	TotalCents  int64                 `json:"totalCents"`
	Status      Status                `json:"status"`
	IsCompleted bool                  `json:"isCompleted"`
	IsOverdue   bool                  `json:"isOverdue"`
	Version     int64                 `json:"version"`
	Items       []orderitem.OrderItem `json:"items,omitempty"`
}

// New builds a pending order.
func New(userID uuid.UUID, orderDate time.Time, totalCents int64) (*Order, error) {
	if userID == uuid.Nil {
		return nil, apperr.Invalid("userId", "must be set")
	}
	if totalCents < 0 {
		return nil, apperr.Invalid("totalAmount", "cannot be negative")
	}

	return &Order{
		ID:         uuid.New(),
		UserID:     userID,
		OrderDate:  orderDate.UTC(),
		TotalCents: totalCents,
		Status:     StatusPending,
	}, nil
}

// IsTerminal reports whether the order has left the pending state.
func (o *Order) IsTerminal() bool {
	return o.IsCompleted || o.IsOverdue
}

// AllKeysAssigned reports whether every item carries a key.
// An order without items is vacuously complete.
func (o *Order) AllKeysAssigned() bool {
	for i := range o.Items {
		if !o.Items[i].HasKey() {
			return false
		}
	}
	return true
}

func (o *Order) Complete() error {
	if o.IsTerminal() {
		return apperr.Conflict("order " + o.ID.String() + " is already " + string(o.Status))
	}
	o.IsCompleted = true
	o.Status = StatusCompleted

	return nil
}

func (o *Order) MarkOverdue() error {
	if o.IsTerminal() {
		return apperr.Conflict("order " + o.ID.String() + " is already " + string(o.Status))
	}
	o.IsOverdue = true
	o.Status = StatusOverdue

	return nil
}

// Summary is the cached view of an order's lifecycle state.
type Summary struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	Status      Status    `json:"status"`
	IsCompleted bool      `json:"isCompleted"`
	IsOverdue   bool      `json:"isOverdue"`
	Version     int64     `json:"version"`
}

func (o *Order) Summary() Summary {
	return Summary{
		ID:          o.ID,
		UserID:      o.UserID,
		Status:      o.Status,
		IsCompleted: o.IsCompleted,
		IsOverdue:   o.IsOverdue,
		Version:     o.Version,
	}
}
