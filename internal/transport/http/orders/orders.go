package orders

import (
	"context"
	"net/http"

	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/order"
	"github.com/corray333/gamesbakery/internal/transport/http/principal"
	"github.com/corray333/gamesbakery/internal/transport/http/respond"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type service interface {
	Checkout(ctx context.Context, p authz.Principal, userID uuid.UUID) (*order.Order, error)
	Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*order.Order, error)
	Status(ctx context.Context, p authz.Principal, id uuid.UUID) (order.Summary, error)
	ListByUser(ctx context.Context, p authz.Principal, userID uuid.UUID) ([]order.Order, error)
}

type Handler struct {
	svc service
}

func New(svc service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/users/{userId}/orders", h.list)
	r.Post("/users/{userId}/orders", h.checkout)
	r.Get("/orders/{id}", h.get)
	r.Get("/orders/{id}/status", h.status)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	userID, err := respond.UUIDParam(r, "userId")
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	o, err := h.svc.Checkout(r.Context(), principal.Get(r), userID)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusCreated, o)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, err := respond.UUIDParam(r, "userId")
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	orders, err := h.svc.ListByUser(r.Context(), principal.Get(r), userID)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, orders)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := respond.UUIDParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	o, err := h.svc.Get(r.Context(), principal.Get(r), id)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, o)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	id, err := respond.UUIDParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	s, err := h.svc.Status(r.Context(), principal.Get(r), id)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, s)
}
