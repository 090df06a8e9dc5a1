package orderitem

import (
	"strings"

	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/google/uuid"
)

const maxKeyLength = 50

// OrderItem is a single sellable game key. OrderID is nil while the item
// sits in the seller's unsold inventory.
type OrderItem struct {
	ID       uuid.UUID  `json:"id"`
	OrderID  *uuid.UUID `json:"orderId,omitempty"`
	GameID   uuid.UUID  `json:"gameId"`
	SellerID uuid.UUID  `json:"sellerId"`
	Key      *string    `json:"key,omitempty"`
	IsGifted bool       `json:"isGifted"`
}

// New creates an unsold inventory item. The key may be assigned later.
func New(gameID, sellerID uuid.UUID, key *string) (*OrderItem, error) {
	if gameID == uuid.Nil {
		return nil, apperr.Invalid("gameId", "must be set")
	}
	if sellerID == uuid.Nil {
		return nil, apperr.Invalid("sellerId", "must be set")
	}

	item := &OrderItem{
		ID:       uuid.New(),
		GameID:   gameID,
		SellerID: sellerID,
	}
	if key != nil {
		if err := item.SetKey(*key); err != nil {
			return nil, err
		}
	}

	return item, nil
}

// SetKey assigns the redeemable key.
func (i *OrderItem) SetKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" || len(key) > maxKeyLength {
		return apperr.Invalid("key", "must be between 1 and 50 characters")
	}
	i.Key = &key

	return nil
}

// HasKey reports whether a non-blank key is present.
func (i *OrderItem) HasKey() bool {
	return i.Key != nil && strings.TrimSpace(*i.Key) != ""
}

func (i *OrderItem) AttachToOrder(orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return apperr.Invalid("orderId", "must be set")
	}
	if i.OrderID != nil {
		return apperr.Conflict("order item is already sold")
	}
	i.OrderID = &orderID

	return nil
}

func (i *OrderItem) MarkGifted() error {
	if i.IsGifted {
		return apperr.Conflict("order item is already gifted")
	}
	i.IsGifted = true

	return nil
}

// IsAvailable reports whether the item can still be bought.
func (i *OrderItem) IsAvailable() bool {
	return i.OrderID == nil && !i.IsGifted
}

// Redacted returns a copy without key material.
func (i OrderItem) Redacted() OrderItem {
	i.Key = nil
	return i
}

// Filter narrows order item listings.
type Filter struct {
	SellerID      uuid.UUID `schema:"sellerId"`
	GameID        uuid.UUID `schema:"gameId"`
	AvailableOnly bool      `schema:"availableOnly"`
	Limit         int       `schema:"limit"`
	Offset        int       `schema:"offset"`
}
