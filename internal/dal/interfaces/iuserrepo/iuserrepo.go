package iuserrepo

import (
	"context"

	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/user"
	"github.com/google/uuid"
)

// IUserRepository persists buyer accounts. Users reach only their own row.
type IUserRepository interface {
	// Insert is open to guests for registration. A taken email is apperr.ErrConflict.
	Insert(ctx context.Context, p authz.Principal, u *user.User) error
	GetByID(ctx context.Context, p authz.Principal, id uuid.UUID) (*user.User, error)
	// LockByID is GetByID holding a row lock until the transaction ends.
	LockByID(ctx context.Context, p authz.Principal, id uuid.UUID) (*user.User, error)
	GetByEmail(ctx context.Context, p authz.Principal, email string) (*user.User, error)
	List(ctx context.Context, p authz.Principal, limit, offset int) ([]user.User, error)
	Update(ctx context.Context, p authz.Principal, u *user.User) error
}
