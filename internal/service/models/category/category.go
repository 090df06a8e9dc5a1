package category

import (
	"strings"

	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/google/uuid"
)

// Category is a game genre.
type Category struct {
	ID          uuid.UUID `json:"id"`
	GenreName   string    `json:"genreName"`
	Description string    `json:"description"`
}

func New(genreName, description string) (*Category, error) {
	c := &Category{ID: uuid.New()}
	if err := c.Update(genreName, description); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Category) Update(genreName, description string) error {
	genreName = strings.TrimSpace(genreName)
	if genreName == "" || len(genreName) > 50 {
		return apperr.Invalid("genreName", "must be between 1 and 50 characters")
	}
	c.GenreName = genreName
	c.Description = strings.TrimSpace(description)

	return nil
}
