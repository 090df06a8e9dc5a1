package review

import (
	"strings"
	"time"

	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/google/uuid"
)

// Review is a buyer's rating of a game.
type Review struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"userId"`
	GameID       uuid.UUID `json:"gameId"`
	Text         string    `json:"text"`
	Rating       int       `json:"rating"`
	CreationDate time.Time `json:"creationDate"`
}

func New(userID, gameID uuid.UUID, text string, rating int, now time.Time) (*Review, error) {
	text = strings.TrimSpace(text)
	switch {
	case userID == uuid.Nil:
		return nil, apperr.Invalid("userId", "must be set")
	case gameID == uuid.Nil:
		return nil, apperr.Invalid("gameId", "must be set")
	case text == "":
		return nil, apperr.Invalid("text", "cannot be empty")
	case rating < 1 || rating > 5:
		return nil, apperr.Invalid("rating", "must be between 1 and 5")
	}

	return &Review{
		ID:           uuid.New(),
		UserID:       userID,
		GameID:       gameID,
		Text:         text,
		Rating:       rating,
		CreationDate: now.UTC(),
	}, nil
}
