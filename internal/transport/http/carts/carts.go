package carts

import (
	"context"
	"net/http"

	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/services/cartsvc"
	"github.com/corray333/gamesbakery/internal/transport/http/principal"
	"github.com/corray333/gamesbakery/internal/transport/http/respond"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type service interface {
	AddItem(ctx context.Context, p authz.Principal, userID, orderItemID uuid.UUID) error
	RemoveItem(ctx context.Context, p authz.Principal, userID, orderItemID uuid.UUID) error
	List(ctx context.Context, p authz.Principal, userID uuid.UUID) ([]cartsvc.Line, error)
	Clear(ctx context.Context, p authz.Principal, userID uuid.UUID) error
}

type Handler struct {
	svc service
}

func New(svc service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/users/{userId}/cart-items", h.list)
	r.Post("/users/{userId}/cart-items", h.add)
	r.Delete("/users/{userId}/cart-items", h.clear)
	r.Delete("/users/{userId}/cart-items/{itemId}", h.remove)
}

type cartResponse struct {
	Items      []cartsvc.Line `json:"items"`
	TotalCents int64          `json:"totalCents"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, err := respond.UUIDParam(r, "userId")
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	lines, err := h.svc.List(r.Context(), principal.Get(r), userID)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	resp := cartResponse{Items: lines}
	for _, l := range lines {
		resp.TotalCents += l.PriceCents
	}

	respond.JSON(w, http.StatusOK, resp)
}

type addRequest struct {
	OrderItemID uuid.UUID `json:"orderItemId" validate:"required"`
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	userID, err := respond.UUIDParam(r, "userId")
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	var req addRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	if err := h.svc.AddItem(r.Context(), principal.Get(r), userID, req.OrderItemID); err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.NoContent(w)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	userID, err := respond.UUIDParam(r, "userId")
	if err != nil {
		respond.Error(w, r, err)

		return
	}
	itemID, err := respond.UUIDParam(r, "itemId")
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	if err := h.svc.RemoveItem(r.Context(), principal.Get(r), userID, itemID); err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.NoContent(w)
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	userID, err := respond.UUIDParam(r, "userId")
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	if err := h.svc.Clear(r.Context(), principal.Get(r), userID); err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.NoContent(w)
}
