package igiftrepo

import (
	"context"

	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/gift"
	"github.com/google/uuid"
)

// IGiftRepository persists gifts. Users see gifts they sent or received,
// narrowed further by source.
type IGiftRepository interface {
	Insert(ctx context.Context, p authz.Principal, g *gift.Gift) error
	GetByID(ctx context.Context, p authz.Principal, id uuid.UUID, source gift.Source) (*gift.Gift, error)
	ListByUser(ctx context.Context, p authz.Principal, userID uuid.UUID, source gift.Source) ([]gift.Gift, error)
	Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error
}
