package isellerrepo

import (
	"context"

	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/seller"
	"github.com/google/uuid"
)

type ISellerRepository interface {
	Insert(ctx context.Context, p authz.Principal, s *seller.Seller) error
	GetByID(ctx context.Context, p authz.Principal, id uuid.UUID) (*seller.Seller, error)
	List(ctx context.Context, p authz.Principal) ([]seller.Seller, error)
}
