package catalogsvc

import (
	"context"
	"time"

	"github.com/corray333/gamesbakery/internal/dal/interfaces/icategoryrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/igamerepo"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/category"
	"github.com/corray333/gamesbakery/internal/service/models/game"
	"github.com/google/uuid"
)

// CatalogService manages categories and games.
type CatalogService struct {
	categories icategoryrepo.ICategoryRepository
	games      igamerepo.IGameRepository
}

type option func(*CatalogService)

func MustNewCatalogService(opts ...option) *CatalogService {
	s := &CatalogService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.categories == nil || s.games == nil {
		panic("catalogsvc: category and game repositories are required")
	}

	return s
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithCategoryRepository(categories icategoryrepo.ICategoryRepository) option {
	return func(s *CatalogService) {
		s.categories = categories
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithGameRepository(games igamerepo.IGameRepository) option {
	return func(s *CatalogService) {
		s.games = games
	}
}

func (s *CatalogService) CreateCategory(
	ctx context.Context,
	p authz.Principal,
	genreName, description string,
) (*category.Category, error) {
	c, err := category.New(genreName, description)
	if err != nil {
		return nil, err
	}
	if err := s.categories.Insert(ctx, p, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, p authz.Principal, id uuid.UUID) (*category.Category, error) {
	return s.categories.GetByID(ctx, p, id)
}

func (s *CatalogService) ListCategories(ctx context.Context, p authz.Principal) ([]category.Category, error) {
	return s.categories.List(ctx, p)
}

func (s *CatalogService) UpdateCategory(
	ctx context.Context,
	p authz.Principal,
	id uuid.UUID,
	genreName, description string,
) (*category.Category, error) {
	if err := p.Require(authz.RoleAdmin); err != nil {
		return nil, err
	}

	c, err := s.categories.GetByID(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := c.Update(genreName, description); err != nil {
		return nil, err
	}
	if err := s.categories.Update(ctx, p, c); err != nil {
		return nil, err
	}

	return c, nil
}

type CreateGameInput struct {
	CategoryID        uuid.UUID
	Title             string
	PriceCents        int64
	ReleaseDate       time.Time
	Description       string
	OriginalPublisher string
	IsForSale         bool
}

func (s *CatalogService) CreateGame(ctx context.Context, p authz.Principal, in CreateGameInput) (*game.Game, error) {
	if err := p.Require(authz.RoleAdmin, authz.RoleSeller); err != nil {
		return nil, err
	}

	g, err := game.New(in.CategoryID, in.Title, in.PriceCents, in.ReleaseDate, in.Description, in.OriginalPublisher)
	if err != nil {
		return nil, err
	}
	g.SetForSale(in.IsForSale)

	if _, err := s.categories.GetByID(ctx, p, in.CategoryID); err != nil {
		return nil, err
	}
	if err := s.games.Insert(ctx, p, g); err != nil {
		return nil, err
	}

	return g, nil
}

func (s *CatalogService) GetGame(ctx context.Context, p authz.Principal, id uuid.UUID) (*game.Game, error) {
	return s.games.GetByID(ctx, p, id)
}

func (s *CatalogService) ListGames(ctx context.Context, p authz.Principal, q game.Query) ([]game.Game, error) {
	return s.games.List(ctx, p, q)
}

func (s *CatalogService) SetForSale(ctx context.Context, p authz.Principal, id uuid.UUID, forSale bool) error {
	return s.games.SetForSale(ctx, p, id, forSale)
}
