package sellersvc

import (
	"context"
	"time"

	"github.com/corray333/gamesbakery/internal/dal/interfaces/isellerrepo"
	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/seller"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SellerService manages seller accounts. Sellers are onboarded by admins.
type SellerService struct {
	sellers  isellerrepo.ISellerRepository
	hashCost int
	now      func() time.Time
}

type option func(*SellerService)

func MustNewSellerService(opts ...option) *SellerService {
	s := &SellerService{hashCost: bcrypt.DefaultCost, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if s.sellers == nil {
		panic("sellersvc: seller repository is required")
	}

	return s
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithSellerRepository(sellers isellerrepo.ISellerRepository) option {
	return func(s *SellerService) {
		s.sellers = sellers
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithHashCost(cost int) option {
	return func(s *SellerService) {
		s.hashCost = cost
	}
}

func (s *SellerService) Register(ctx context.Context, p authz.Principal, name, password string) (*seller.Seller, error) {
	if err := p.Require(authz.RoleAdmin); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, apperr.Invalid("password", "must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, err
	}

	sl, err := seller.New(name, string(hash), s.now())
	if err != nil {
		return nil, err
	}
	if err := s.sellers.Insert(ctx, p, sl); err != nil {
		return nil, err
	}

	return sl, nil
}

func (s *SellerService) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*seller.Seller, error) {
	return s.sellers.GetByID(ctx, p, id)
}

func (s *SellerService) List(ctx context.Context, p authz.Principal) ([]seller.Seller, error) {
	return s.sellers.List(ctx, p)
}
