package icategoryrepo

import (
	"context"

	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/category"
	"github.com/google/uuid"
)

type ICategoryRepository interface {
	Insert(ctx context.Context, p authz.Principal, c *category.Category) error
	GetByID(ctx context.Context, p authz.Principal, id uuid.UUID) (*category.Category, error)
	List(ctx context.Context, p authz.Principal) ([]category.Category, error)
	Update(ctx context.Context, p authz.Principal, c *category.Category) error
}
