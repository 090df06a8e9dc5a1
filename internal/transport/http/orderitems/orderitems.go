package orderitems

import (
	"context"
	"net/http"

	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/orderitem"
	"github.com/corray333/gamesbakery/internal/service/services/orderitemsvc"
	"github.com/corray333/gamesbakery/internal/transport/http/principal"
	"github.com/corray333/gamesbakery/internal/transport/http/respond"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type service interface {
	Create(ctx context.Context, p authz.Principal, in orderitemsvc.CreateInput) (*orderitem.OrderItem, error)
	SetKey(ctx context.Context, p authz.Principal, id uuid.UUID, key string) (*orderitem.OrderItem, error)
	Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*orderitem.OrderItem, error)
	GetKey(ctx context.Context, p authz.Principal, id uuid.UUID) (string, error)
	List(ctx context.Context, p authz.Principal, filter orderitem.Filter) ([]orderitem.OrderItem, error)
	Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error
}

type Handler struct {
	svc service
}

func New(svc service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/order-items", h.list)
	r.Post("/order-items", h.create)
	r.Get("/order-items/{id}", h.get)
	r.Patch("/order-items/{id}", h.setKey)
	r.Delete("/order-items/{id}", h.delete)
	r.Get("/order-items/{id}/key", h.getKey)
}

type createRequest struct {
	GameID   uuid.UUID `json:"gameId"   validate:"required"`
	SellerID uuid.UUID `json:"sellerId"`
	Key      *string   `json:"key"      validate:"omitempty,max=50"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	item, err := h.svc.Create(r.Context(), principal.Get(r), orderitemsvc.CreateInput{
		GameID:   req.GameID,
		SellerID: req.SellerID,
		Key:      req.Key,
	})
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusCreated, item)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := respond.UUIDParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	item, err := h.svc.Get(r.Context(), principal.Get(r), id)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, item)
}

type keyResponse struct {
	Key string `json:"key"`
}

func (h *Handler) getKey(w http.ResponseWriter, r *http.Request) {
	id, err := respond.UUIDParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	key, err := h.svc.GetKey(r.Context(), principal.Get(r), id)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, keyResponse{Key: key})
}

type setKeyRequest struct {
	Key string `json:"key" validate:"required,max=50"`
}

func (h *Handler) setKey(w http.ResponseWriter, r *http.Request) {
	id, err := respond.UUIDParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	var req setKeyRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	item, err := h.svc.SetKey(r.Context(), principal.Get(r), id, req.Key)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, item)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var filter orderitem.Filter
	if err := respond.Query(r, &filter); err != nil {
		respond.Error(w, r, err)

		return
	}

	items, err := h.svc.List(r.Context(), principal.Get(r), filter)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, items)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := respond.UUIDParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	if err := h.svc.Delete(r.Context(), principal.Get(r), id); err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.NoContent(w)
}
