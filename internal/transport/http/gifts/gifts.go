package gifts

import (
	"context"
	"net/http"

	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/gift"
	"github.com/corray333/gamesbakery/internal/service/models/orderitem"
	"github.com/corray333/gamesbakery/internal/transport/http/principal"
	"github.com/corray333/gamesbakery/internal/transport/http/respond"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type service interface {
	Send(ctx context.Context, p authz.Principal, senderID, recipientID, orderItemID uuid.UUID) (*gift.Gift, error)
	Get(ctx context.Context, p authz.Principal, id uuid.UUID, source gift.Source) (*gift.Gift, error)
	List(ctx context.Context, p authz.Principal, userID uuid.UUID, source gift.Source) ([]gift.Gift, error)
	Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error
	Available(ctx context.Context, p authz.Principal, userID uuid.UUID) ([]orderitem.OrderItem, error)
}

type Handler struct {
	svc service
}

func New(svc service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/users/{userId}/gifts", h.list)
	r.Post("/users/{userId}/gifts", h.send)
	r.Get("/users/{userId}/giftable-items", h.available)
	r.Get("/gifts/{id}", h.get)
	r.Delete("/gifts/{id}", h.delete)
}

type sendRequest struct {
	RecipientID uuid.UUID `json:"recipientId" validate:"required"`
	OrderItemID uuid.UUID `json:"orderItemId" validate:"required"`
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	senderID, err := respond.UUIDParam(r, "userId")
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	var req sendRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	g, err := h.svc.Send(r.Context(), principal.Get(r), senderID, req.RecipientID, req.OrderItemID)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusCreated, g)
}

type sourceQuery struct {
	Source string `schema:"source"`
}

func parseSource(r *http.Request) (gift.Source, error) {
	var q sourceQuery
	if err := respond.Query(r, &q); err != nil {
		return gift.SourceAll, err
	}
	return gift.ParseSource(q.Source)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, err := respond.UUIDParam(r, "userId")
	if err != nil {
		respond.Error(w, r, err)

		return
	}
	source, err := parseSource(r)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	gifts, err := h.svc.List(r.Context(), principal.Get(r), userID, source)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, gifts)
}

func (h *Handler) available(w http.ResponseWriter, r *http.Request) {
	userID, err := respond.UUIDParam(r, "userId")
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	items, err := h.svc.Available(r.Context(), principal.Get(r), userID)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, items)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := respond.UUIDParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)

		return
	}
	source, err := parseSource(r)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	g, err := h.svc.Get(r.Context(), principal.Get(r), id, source)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, g)
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
