package gift

import (
	"strings"
	"time"

	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/google/uuid"
)

// Source selects which side of a gift a listing looks at.
type Source int

const (
	SourceAll Source = iota
	SourceSent
	SourceReceived
)

func ParseSource(s string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return SourceAll, nil
	case "sent":
		return SourceSent, nil
	case "received":
		return SourceReceived, nil
	default:
		return SourceAll, apperr.Invalid("source", "must be all, sent or received")
	}
}

// Gift transfers a purchased order item to another user.
type Gift struct {
	ID          uuid.UUID `json:"id"`
	SenderID    uuid.UUID `json:"senderId"`
	RecipientID uuid.UUID `json:"recipientId"`
	OrderItemID uuid.UUID `json:"orderItemId"`
	GiftDate    time.Time `json:"giftDate"`
}

func New(senderID, recipientID, orderItemID uuid.UUID, now time.Time) (*Gift, error) {
	switch {
	case senderID == uuid.Nil:
		return nil, apperr.Invalid("senderId", "must be set")
	case recipientID == uuid.Nil:
		return nil, apperr.Invalid("recipientId", "must be set")
	case orderItemID == uuid.Nil:
		return nil, apperr.Invalid("orderItemId", "must be set")
	case senderID == recipientID:
		return nil, apperr.Invalid("recipientId", "cannot gift to yourself")
	}

	return &Gift{
		ID:          uuid.New(),
		SenderID:    senderID,
		RecipientID: recipientID,
		OrderItemID: orderItemID,
		GiftDate:    now.UTC(),
	}, nil
}
