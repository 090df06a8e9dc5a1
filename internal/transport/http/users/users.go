package users

import (
	"context"
	"net/http"

	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/user"
	"github.com/corray333/gamesbakery/internal/service/services/usersvc"
	"github.com/corray333/gamesbakery/internal/transport/http/principal"
	"github.com/corray333/gamesbakery/internal/transport/http/respond"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type service interface {
	Register(ctx context.Context, p authz.Principal, in usersvc.RegisterInput) (*user.User, error)
	Authenticate(ctx context.Context, email, password string) (*user.User, error)
	Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*user.User, error)
	List(ctx context.Context, p authz.Principal, limit, offset int) ([]user.User, error)
	TopUpBalance(ctx context.Context, p authz.Principal, id uuid.UUID, amountCents int64) (*user.User, error)
	UpdateCountry(ctx context.Context, p authz.Principal, id uuid.UUID, country string) (*user.User, error)
	SetBlocked(ctx context.Context, p authz.Principal, id uuid.UUID, blocked bool) (*user.User, error)
}

type Handler struct {
	svc service
}

func New(svc service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)

	r.Get("/users/admin", h.list)
	r.Post("/users/admin/{userId}/ban", h.setBlocked(true))
	r.Post("/users/admin/{userId}/unban", h.setBlocked(false))

	r.Get("/users/{userId}", h.get)
	r.Patch("/users/{userId}", h.update)
}

type registerRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email"    validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=6"`
	Country  string `json:"country"  validate:"required,max=300"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	u, err := h.svc.Register(r.Context(), principal.Get(r), usersvc.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Country:  req.Country,
	})
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusCreated, u)
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	u, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, loginResponse{UserID: u.ID, Role: authz.RoleUser.String()})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := respond.UUIDParam(r, "userId")
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	u, err := h.svc.Get(r.Context(), principal.Get(r), id)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, u)
}

type updateRequest struct {
	TopUpCents *int64  `json:"topUpCents" validate:"omitempty,gt=0"`
	Country    *string `json:"country"    validate:"omitempty,max=300"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := respond.UUIDParam(r, "userId")
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	var req updateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}
	if req.TopUpCents == nil && req.Country == nil {
		respond.Error(w, r, apperr.Invalid("body", "nothing to update"))

		return
	}

	p := principal.Get(r)
	var u *user.User
	if req.Country != nil {
		if u, err = h.svc.UpdateCountry(r.Context(), p, id, *req.Country); err != nil {
			respond.Error(w, r, err)

			return
		}
	}
	if req.TopUpCents != nil {
		if u, err = h.svc.TopUpBalance(r.Context(), p, id, *req.TopUpCents); err != nil {
			respond.Error(w, r, err)

			return
		}
	}

	respond.JSON(w, http.StatusOK, u)
}

type listRequest struct {
	Limit  int `schema:"limit"  validate:"gte=0,lte=500"`
	Offset int `schema:"offset" validate:"gte=0"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := respond.Query(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	users, err := h.svc.List(r.Context(), principal.Get(r), req.Limit, req.Offset)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, users)
}

func (h *Handler) setBlocked(blocked bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.UUIDParam(r, "userId")
		if err != nil {
			respond.Error(w, r, err)

			return
		}

		u, err := h.svc.SetBlocked(r.Context(), principal.Get(r), id, blocked)
		if err != nil {
			respond.Error(w, r, err)

			return
		}

		respond.JSON(w, http.StatusOK, u)
	}
}
