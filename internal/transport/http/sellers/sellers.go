package sellers

import (
	"context"
	"net/http"

	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/seller"
	"github.com/corray333/gamesbakery/internal/transport/http/principal"
	"github.com/corray333/gamesbakery/internal/transport/http/respond"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type service interface {
	Register(ctx context.Context, p authz.Principal, name, password string) (*seller.Seller, error)
	Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*seller.Seller, error)
	List(ctx context.Context, p authz.Principal) ([]seller.Seller, error)
}

type Handler struct {
	svc service
}

func New(svc service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/sellers", h.list)
	r.Post("/sellers", h.create)
	r.Get("/sellers/{id}", h.get)
}

type createRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	s, err := h.svc.Register(r.Context(), principal.Get(r), req.Name, req.Password)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusCreated, s)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := respond.UUIDParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	s, err := h.svc.Get(r.Context(), principal.Get(r), id)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, s)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sellers, err := h.svc.List(r.Context(), principal.Get(r))
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, sellers)
}
