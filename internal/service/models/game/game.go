package game

import (
	"strings"
	"time"

	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/google/uuid"
)

// Game is a catalog entry keys are sold for.
type Game struct {
	ID                uuid.UUID `json:"id"`
	CategoryID        uuid.UUID `json:"categoryId"`
	Title             string    `json:"title"`
	PriceCents        int64     `json:"priceCents"`
	ReleaseDate       time.Time `json:"releaseDate"`
	Description       string    `json:"description"`
	IsForSale         bool      `json:"isForSale"`
	OriginalPublisher string    `json:"originalPublisher"`
}

// New validates the catalog fields. Games start as not for sale.
func New(
	categoryID uuid.UUID,
	title string,
	priceCents int64,
	releaseDate time.Time,
	description string,
	publisher string,
) (*Game, error) {
	g := &Game{
		ID:                uuid.New(),
		CategoryID:        categoryID,
		Title:             strings.TrimSpace(title),
		PriceCents:        priceCents,
		ReleaseDate:       releaseDate.UTC(),
		Description:       strings.TrimSpace(description),
		OriginalPublisher: strings.TrimSpace(publisher),
	}

	switch {
	case categoryID == uuid.Nil:
		return nil, apperr.Invalid("categoryId", "must be set")
	case g.Title == "":
		return nil, apperr.Invalid("title", "cannot be empty")
	case priceCents < 0:
		return nil, apperr.Invalid("price", "cannot be negative")
	case g.Description == "":
		return nil, apperr.Invalid("description", "cannot be empty")
	case g.OriginalPublisher == "":
		return nil, apperr.Invalid("originalPublisher", "cannot be empty")
	}

	return g, nil
}

func (g *Game) SetForSale(forSale bool) { g.IsForSale = forSale }

// Query filters game listings.
type Query struct {
	CategoryID  uuid.UUID
	Title       string
	ForSaleOnly bool
	Limit       int
	Offset      int
}
