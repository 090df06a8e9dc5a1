// Package principal reads the caller identity set by the API gateway.
package principal

import (
	"net/http"

	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/transport/http/respond"
	"github.com/google/uuid"
)

const (
	HeaderRole     = "X-User-Role"
	HeaderUserID   = "X-User-Id"
	HeaderSellerID = "X-Seller-Id"
)

// FromHeaders builds the principal carried by r. Missing headers mean a guest.
func FromHeaders(r *http.Request) (authz.Principal, error) {
	role, err := authz.ParseRole(r.Header.Get(HeaderRole))
	if err != nil {
		return authz.Guest(), err
	}

	p := authz.Principal{Role: role}
	if p.UserID, err = optionalUUID(r.Header.Get(HeaderUserID), HeaderUserID); err != nil {
		return authz.Guest(), err
	}
	if p.SellerID, err = optionalUUID(r.Header.Get(HeaderSellerID), HeaderSellerID); err != nil {
		return authz.Guest(), err
	}

	switch {
	case role == authz.RoleUser && p.UserID == uuid.Nil:
		return authz.Guest(), apperr.ErrUnauthenticated
	case role == authz.RoleSeller && p.SellerID == uuid.Nil:
		return authz.Guest(), apperr.ErrUnauthenticated
	}

	return p, nil
}

func optionalUUID(v, header string) (uuid.UUID, error) {
	if v == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, apperr.Invalid(header, "must be a UUID")
	}
	return id, nil
}

// Middleware stores the request principal in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := FromHeaders(r)
		if err != nil {
			respond.Error(w, r, err)

			return
		}

		next.ServeHTTP(w, r.WithContext(authz.WithPrincipal(r.Context(), p)))
	})
}

// Get returns the principal stored by Middleware.
func Get(r *http.Request) authz.Principal {
	return authz.FromContext(r.Context())
}
