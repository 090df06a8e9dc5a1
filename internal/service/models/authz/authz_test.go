package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/google/uuid"
)

func TestParseRole(t *testing.T) {
	tests := map[string]Role{"": RoleGuest, "guest": RoleGuest, "User": RoleUser, " SELLER ": RoleSeller, "admin": RoleAdmin}
	for in, want := range tests {
		got, err := ParseRole(in)
		if err != nil || got != want {
			t.Errorf("ParseRole(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseRole("root"); !apperr.IsValidation(err) {
		t.Errorf("ParseRole(root) = %v, want validation error", err)
	}
}

func TestRequire(t *testing.T) {
	id := uuid.New()

	if err := Guest().Require(RoleUser); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("guest: got %v, want unauthenticated", err)
	}
	if err := User(id).Require(RoleAdmin); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("user: got %v, want forbidden", err)
	}
	if err := Seller(id).Require(RoleAdmin, RoleSeller); err != nil {
		t.Errorf("seller: %v", err)
	}
}

func TestRequireUser(t *testing.T) {
	me, other := uuid.New(), uuid.New()

	if err := User(me).RequireUser(me); err != nil {
		t.Errorf("own data: %v", err)
	}
	if err := User(me).RequireUser(other); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("other user: got %v, want forbidden", err)
	}
	if err := Admin(me).RequireUser(other); err != nil {
		t.Errorf("admin: %v", err)
	}
	if err := Seller(me).RequireUser(me); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("seller acting as user: got %v, want forbidden", err)
	}
}

func TestContext(t *testing.T) {
	if p := FromContext(context.Background()); !p.IsGuest() {
		t.Errorf("empty context principal = %+v, want guest", p)
	}

	p := User(uuid.New())
	if got := FromContext(WithPrincipal(context.Background(), p)); got != p {
		t.Errorf("FromContext = %+v, want %+v", got, p)
	}
}
