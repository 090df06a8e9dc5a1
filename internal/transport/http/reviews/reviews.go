package reviews

import (
	"context"
	"net/http"

	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/review"
	"github.com/corray333/gamesbakery/internal/transport/http/principal"
	"github.com/corray333/gamesbakery/internal/transport/http/respond"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type service interface {
	Post(ctx context.Context, p authz.Principal, userID, gameID uuid.UUID, text string, rating int) (*review.Review, error)
	ListByGame(ctx context.Context, p authz.Principal, gameID uuid.UUID) ([]review.Review, error)
	ListByUser(ctx context.Context, p authz.Principal, userID uuid.UUID) ([]review.Review, error)
}

type Handler struct {
	svc service
}

func New(svc service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/reviews", h.post)
	r.Get("/reviews/game", h.listByGame)
	r.Get("/reviews/users/{userId}", h.listByUser)
}

type postRequest struct {
	GameID uuid.UUID `json:"gameId" validate:"required"`
	Text   string    `json:"text"   validate:"required"`
	Rating int       `json:"rating" validate:"gte=1,lte=5"`
}

// post creates a review authored by the caller.
func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	p := principal.Get(r)
	rv, err := h.svc.Post(r.Context(), p, p.UserID, req.GameID, req.Text, req.Rating)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusCreated, rv)
}

type byGameQuery struct {
	GameID uuid.UUID `schema:"gameId" validate:"required"`
}

func (h *Handler) listByGame(w http.ResponseWriter, r *http.Request) {
	var q byGameQuery
	if err := respond.Query(r, &q); err != nil {
		respond.Error(w, r, err)

		return
	}

	reviews, err := h.svc.ListByGame(r.Context(), principal.Get(r), q.GameID)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, reviews)
}

func (h *Handler) listByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := respond.UUIDParam(r, "userId")
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	reviews, err := h.svc.ListByUser(r.Context(), principal.Get(r), userID)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, reviews)
}
