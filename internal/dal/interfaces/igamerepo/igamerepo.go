package igamerepo

import (
	"context"

	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/game"
	"github.com/google/uuid"
)

// IGameRepository persists the catalog. Guests and users only see games for sale.
type IGameRepository interface {
	Insert(ctx context.Context, p authz.Principal, g *game.Game) error
	GetByID(ctx context.Context, p authz.Principal, id uuid.UUID) (*game.Game, error)
	GetByIDs(ctx context.Context, p authz.Principal, ids []uuid.UUID) ([]game.Game, error)
	List(ctx context.Context, p authz.Principal, q game.Query) ([]game.Game, error)
	SetForSale(ctx context.Context, p authz.Principal, id uuid.UUID, forSale bool) error
}
