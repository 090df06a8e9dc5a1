package authz

import (
	"context"
	"strings"

	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/google/uuid"
)

// Role is the caller's permission level.
type Role int

const (
	RoleGuest Role = iota
	RoleUser
	RoleSeller
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleSeller:
		return "Seller"
	case RoleAdmin:
		return "Admin"
	default:
		return "Guest"
	}
}

// ParseRole parses a role name case-insensitively. Empty input is a guest.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "guest":
		return RoleGuest, nil
	case "user":
		return RoleUser, nil
	case "seller":
		return RoleSeller, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleGuest, apperr.Invalid("role", "unknown role "+s)
	}
}

// Principal is the authorization context threaded through every repository call.
type Principal struct {
	Role     Role
	UserID   uuid.UUID
	SellerID uuid.UUID
}

// Guest returns an anonymous principal.
func Guest() Principal { return Principal{Role: RoleGuest} }

// System is the principal background jobs act as.
func System() Principal { return Principal{Role: RoleAdmin} }

// User returns a principal for a signed-in buyer.
func User(id uuid.UUID) Principal { return Principal{Role: RoleUser, UserID: id} }

// Seller returns a principal for a signed-in seller.
func Seller(id uuid.UUID) Principal { return Principal{Role: RoleSeller, SellerID: id} }

// Admin returns an administrator principal.
func Admin(id uuid.UUID) Principal { return Principal{Role: RoleAdmin, UserID: id} }

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

func (p Principal) IsGuest() bool { return p.Role == RoleGuest }

// OwnsUser reports whether the principal may act on behalf of the given user.
func (p Principal) OwnsUser(id uuid.UUID) bool {
	if p.IsAdmin() {
		return true
	}
	return p.Role == RoleUser && p.UserID != uuid.Nil && p.UserID == id
}

// OwnsSeller reports whether the principal may act on behalf of the given seller.
func (p Principal) OwnsSeller(id uuid.UUID) bool {
	if p.IsAdmin() {
		return true
	}
	return p.Role == RoleSeller && p.SellerID != uuid.Nil && p.SellerID == id
}

// Require returns ErrForbidden unless the principal has one of the roles.
func (p Principal) Require(roles ...Role) error {
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	if p.IsGuest() {
		return apperr.ErrUnauthenticated
	}
	return apperr.Forbidden(p.Role.String() + " is not allowed")
}

// RequireUser checks that the principal may act as the given user.
func (p Principal) RequireUser(id uuid.UUID) error {
	if p.OwnsUser(id) {
		return nil
	}
	if p.IsGuest() {
		return apperr.ErrUnauthenticated
	}
	return apperr.Forbidden("access to another user's data")
}

type ctxKey struct{}

// WithPrincipal stores the principal in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the principal stored in ctx, or a guest.
func FromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(ctxKey{}).(Principal); ok {
		return p
	}
	return Guest()
}
