package usersvc

import (
	"context"
	"errors"
	"time"

	"github.com/corray333/gamesbakery/internal/dal/interfaces/iuow"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iuserrepo"
	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/user"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// UserService manages buyer accounts and balances.
type UserService struct {
	users    iuserrepo.IUserRepository
	uow      iuow.IFactory
	hashCost int
	now      func() time.Time
}

// option is a function that configures the UserService.
type option func(*UserService)

// MustNewUserService creates a new UserService.
func MustNewUserService(opts ...option) *UserService {
	s := &UserService{
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.users == nil || s.uow == nil {
		panic("usersvc: user repository and unit of work are required")
	}

	return s
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithUserRepository(users iuserrepo.IUserRepository) option {
	return func(s *UserService) {
		s.users = users
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWork(f iuow.IFactory) option {
	return func(s *UserService) {
		s.uow = f
	}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithHashCost(cost int) option {
	return func(s *UserService) {
		s.hashCost = cost
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *UserService) {
		s.now = now
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Country  string
}

// Register creates a buyer account.
func (s *UserService) Register(ctx context.Context, p authz.Principal, in RegisterInput) (*user.User, error) {
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Invalid("password", "must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, err
	}

	u, err := user.New(in.Username, in.Email, in.Country, string(hash), s.now())
	if err != nil {
		return nil, err
	}

	if err := s.users.Insert(ctx, p, u); err != nil {
		return nil, err
	}

	return u, nil
}

// Authenticate checks credentials and returns the account.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	u, err := s.users.GetByEmail(ctx, authz.System(), email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.ErrUnauthenticated
	}
	if u.IsBlocked {
		return nil, apperr.ErrBlocked
	}

	return u, nil
}

func (s *UserService) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*user.User, error) {
	return s.users.GetByID(ctx, p, id)
}

func (s *UserService) List(ctx context.Context, p authz.Principal, limit, offset int) ([]user.User, error) {
	return s.users.List(ctx, p, limit, offset)
}

// TopUpBalance adds amountCents to the user's balance.
func (s *UserService) TopUpBalance(
	ctx context.Context,
	p authz.Principal,
	id uuid.UUID,
	amountCents int64,
) (*user.User, error) {
	var result *user.User

	err := iuow.Run(ctx, s.uow, func(u iuow.IUnitOfWork) error {
		usr, err := u.UserRepository().LockByID(ctx, p, id)
		if err != nil {
			return err
		}
		if usr.IsBlocked {
			return apperr.ErrBlocked
		}
		if err := usr.TopUp(amountCents); err != nil {
			return err
		}
		if err := u.UserRepository().Update(ctx, p, usr); err != nil {
			return err
		}

		result = usr
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *UserService) UpdateCountry(ctx context.Context, p authz.Principal, id uuid.UUID, country string) (*user.User, error) {
	return s.mutate(ctx, p, id, func(u *user.User) error {
		return u.UpdateCountry(country)
	})
}

// SetBlocked bans or unbans a user. Admin only.
func (s *UserService) SetBlocked(ctx context.Context, p authz.Principal, id uuid.UUID, blocked bool) (*user.User, error) {
	if err := p.Require(authz.RoleAdmin); err != nil {
		return nil, err
	}

	return s.mutate(ctx, p, id, func(u *user.User) error {
		if blocked {
			u.Block()
		} else {
			u.Unblock()
		}
		return nil
	})
}

func (s *UserService) mutate(
	ctx context.Context,
	p authz.Principal,
	id uuid.UUID,
	fn func(u *user.User) error,
) (*user.User, error) {
	var result *user.User

	// Update writes the whole row, balance included, so the read must hold
	// the row lock.
	err := iuow.Run(ctx, s.uow, func(u iuow.IUnitOfWork) error {
		usr, err := u.UserRepository().LockByID(ctx, p, id)
		if err != nil {
			return err
		}
		if err := fn(usr); err != nil {
			return err
		}
		if err := u.UserRepository().Update(ctx, p, usr); err != nil {
			return err
		}

		result = usr
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
