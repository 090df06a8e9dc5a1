package catalog

import (
	"context"
	"net/http"
	"time"

	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/category"
	"github.com/corray333/gamesbakery/internal/service/models/game"
	"github.com/corray333/gamesbakery/internal/service/services/catalogsvc"
	"github.com/corray333/gamesbakery/internal/transport/http/principal"
	"github.com/corray333/gamesbakery/internal/transport/http/respond"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type service interface {
	CreateCategory(ctx context.Context, p authz.Principal, genreName, description string) (*category.Category, error)
	GetCategory(ctx context.Context, p authz.Principal, id uuid.UUID) (*category.Category, error)
	ListCategories(ctx context.Context, p authz.Principal) ([]category.Category, error)
	UpdateCategory(ctx context.Context, p authz.Principal, id uuid.UUID, genreName, description string) (*category.Category, error)

	CreateGame(ctx context.Context, p authz.Principal, in catalogsvc.CreateGameInput) (*game.Game, error)
	GetGame(ctx context.Context, p authz.Principal, id uuid.UUID) (*game.Game, error)
	ListGames(ctx context.Context, p authz.Principal, q game.Query) ([]game.Game, error)
	SetForSale(ctx context.Context, p authz.Principal, id uuid.UUID, forSale bool) error
}

type Handler struct {
	svc service
}

func New(svc service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/categories", h.listCategories)
	r.Post("/categories", h.createCategory)
	r.Get("/categories/{id}", h.getCategory)
	r.Put("/categories/{id}", h.updateCategory)

	r.Get("/games", h.listGames)
	r.Post("/games", h.createGame)
	r.Get("/games/{id}", h.getGame)
	r.Patch("/games/{id}/for-sale", h.setForSale)
}

type categoryRequest struct {
	GenreName   string `json:"genreName"   validate:"required,max=50"`
	Description string `json:"description"`
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	c, err := h.svc.CreateCategory(r.Context(), principal.Get(r), req.GenreName, req.Description)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusCreated, c)
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := respond.UUIDParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	c, err := h.svc.GetCategory(r.Context(), principal.Get(r), id)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, c)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := h.svc.ListCategories(r.Context(), principal.Get(r))
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, cs)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := respond.UUIDParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	var req categoryRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	c, err := h.svc.UpdateCategory(r.Context(), principal.Get(r), id, req.GenreName, req.Description)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, c)
}

type createGameRequest struct {
	CategoryID        uuid.UUID `json:"categoryId"        validate:"required"`
	Title             string    `json:"title"             validate:"required,max=100"`
	PriceCents        int64     `json:"priceCents"        validate:"gte=0"`
	ReleaseDate       time.Time `json:"releaseDate"       validate:"required"`
	Description       string    `json:"description"       validate:"required"`
	OriginalPublisher string    `json:"originalPublisher" validate:"required,max=100"`
	IsForSale         bool      `json:"isForSale"`
}

func (h *Handler) createGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	g, err := h.svc.CreateGame(r.Context(), principal.Get(r), catalogsvc.CreateGameInput{
		CategoryID:        req.CategoryID,
		Title:             req.Title,
		PriceCents:        req.PriceCents,
		ReleaseDate:       req.ReleaseDate,
		Description:       req.Description,
		OriginalPublisher: req.OriginalPublisher,
		IsForSale:         req.IsForSale,
	})
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusCreated, g)
}

func (h *Handler) getGame(w http.ResponseWriter, r *http.Request) {
	id, err := respond.UUIDParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	g, err := h.svc.GetGame(r.Context(), principal.Get(r), id)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, g)
}

type listGamesRequest struct {
	CategoryID  uuid.UUID `schema:"categoryId"`
	Title       string    `schema:"title"`
	ForSaleOnly bool      `schema:"forSaleOnly"`
	Limit       int       `schema:"limit"       validate:"gte=0,lte=500"`
	Offset      int       `schema:"offset"      validate:"gte=0"`
}

func (h *Handler) listGames(w http.ResponseWriter, r *http.Request) {
	var req listGamesRequest
	if err := respond.Query(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	games, err := h.svc.ListGames(r.Context(), principal.Get(r), game.Query{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		ForSaleOnly: req.ForSaleOnly,
		Limit:       req.Limit,
		Offset:      req.Offset,
	})
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, games)
}

type forSaleRequest struct {
	IsForSale *bool `json:"isForSale" validate:"required"`
}

func (h *Handler) setForSale(w http.ResponseWriter, r *http.Request) {
	id, err := respond.UUIDParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	var req forSaleRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)

		return
	}

	if err := h.svc.SetForSale(r.Context(), principal.Get(r), id, *req.IsForSale); err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.NoContent(w)
}
