package cart

import (
	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/google/uuid"
)

// Item references an order item the user intends to buy.
type Item struct {
	ID          uuid.UUID `json:"id"`
	CartID      uuid.UUID `json:"cartId"`
	OrderItemID uuid.UUID `json:"orderItemId"`
}

// Cart holds a user's pending selection.
type Cart struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"userId"`
	Items  []Item    `json:"items"`
}

func New(userID uuid.UUID) (*Cart, error) {
	if userID == uuid.Nil {
		return nil, apperr.Invalid("userId", "must be set")
	}

	return &Cart{ID: uuid.New(), UserID: userID}, nil
}

// AddItem appends the order item unless it is already in the cart.
// It returns false when the item was already present.
func (c *Cart) AddItem(orderItemID uuid.UUID) (Item, bool, error) {
	if orderItemID == uuid.Nil {
		return Item{}, false, apperr.Invalid("orderItemId", "must be set")
	}
	for _, it := range c.Items {
		if it.OrderItemID == orderItemID {
			return it, false, nil
		}
	}
	it := Item{ID: uuid.New(), CartID: c.ID, OrderItemID: orderItemID}
	c.Items = append(c.Items, it)

	return it, true, nil
}

// RemoveItem drops the order item and reports whether it was present.
func (c *Cart) RemoveItem(orderItemID uuid.UUID) bool {
	for i, it := range c.Items {
		if it.OrderItemID == orderItemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// OrderItemIDs lists the referenced order items in cart order.
func (c *Cart) OrderItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.OrderItemID)
	}
	return ids
}
