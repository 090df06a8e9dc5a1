package ireviewrepo

import (
	"context"

	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/review"
	"github.com/google/uuid"
)

type IReviewRepository interface {
	Insert(ctx context.Context, p authz.Principal, r *review.Review) error
	ListByGame(ctx context.Context, p authz.Principal, gameID uuid.UUID) ([]review.Review, error)
	ListByUser(ctx context.Context, p authz.Principal, userID uuid.UUID) ([]review.Review, error)
}
