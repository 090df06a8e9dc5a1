package seller

import (
	"strings"
	"time"

	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/google/uuid"
)

// Seller owns key inventory listed on the marketplace.
type Seller struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	RegistrationDate time.Time `json:"registrationDate"`
	AvgRating        float64   `json:"avgRating"`
	PasswordHash     string    `json:"-"`
}

// New validates the seller name and builds a seller with no rating.
func New(name, passwordHash string, now time.Time) (*Seller, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, apperr.Invalid("name", "must be between 1 and 100 characters")
	}
	if passwordHash == "" {
		return nil, apperr.Invalid("password", "must not be empty")
	}

	return &Seller{
		ID:               uuid.New(),
		Name:             name,
		RegistrationDate: now.UTC(),
		PasswordHash:     passwordHash,
	}, nil
}

func (s *Seller) UpdateRating(rating float64) error {
	if rating < 0 || rating > 5 {
		return apperr.Invalid("rating", "must be between 0 and 5")
	}
	s.AvgRating = rating

	return nil
}
