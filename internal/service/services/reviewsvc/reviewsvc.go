package reviewsvc

import (
	"context"
	"time"

	"github.com/corray333/gamesbakery/internal/dal/interfaces/igamerepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/ireviewrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iuserrepo"
	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/review"
	"github.com/google/uuid"
)

type ReviewService struct {
	reviews ireviewrepo.IReviewRepository
	users   iuserrepo.IUserRepository
	games   igamerepo.IGameRepository
	now     func() time.Time
}

type option func(*ReviewService)

func MustNewReviewService(opts ...option) *ReviewService {
	s := &ReviewService{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if s.reviews == nil || s.users == nil || s.games == nil {
		panic("reviewsvc: review, user and game repositories are required")
	}

	return s
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithReviewRepository(reviews ireviewrepo.IReviewRepository) option {
	return func(s *ReviewService) {
		s.reviews = reviews
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithUserRepository(users iuserrepo.IUserRepository) option {
	return func(s *ReviewService) {
		s.users = users
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithGameRepository(games igamerepo.IGameRepository) option {
	return func(s *ReviewService) {
		s.games = games
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *ReviewService) {
		s.now = now
	}
}

// Post publishes a review. Blocked users cannot review.
func (s *ReviewService) Post(
	ctx context.Context,
	p authz.Principal,
	userID, gameID uuid.UUID,
	text string,
	rating int,
) (*review.Review, error) {
	if err := p.Require(authz.RoleUser); err != nil {
		return nil, err
	}

	rv, err := review.New(userID, gameID, text, rating, s.now())
	if err != nil {
		return nil, err
	}

	usr, err := s.users.GetByID(ctx, p, userID)
	if err != nil {
		return nil, err
	}
	if usr.IsBlocked {
		return nil, apperr.ErrBlocked
	}
	if _, err := s.games.GetByID(ctx, p, gameID); err != nil {
		return nil, err
	}

	if err := s.reviews.Insert(ctx, p, rv); err != nil {
		return nil, err
	}

	return rv, nil
}

func (s *ReviewService) ListByGame(ctx context.Context, p authz.Principal, gameID uuid.UUID) ([]review.Review, error) {
	if _, err := s.games.GetByID(ctx, p, gameID); err != nil {
		return nil, err
	}
	return s.reviews.ListByGame(ctx, p, gameID)
}

func (s *ReviewService) ListByUser(ctx context.Context, p authz.Principal, userID uuid.UUID) ([]review.Review, error) {
	return s.reviews.ListByUser(ctx, p, userID)
}
