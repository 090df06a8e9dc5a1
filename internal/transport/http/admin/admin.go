package admin

import (
	"context"
	"net/http"

	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/transport/http/principal"
	"github.com/corray333/gamesbakery/internal/transport/http/respond"
	"github.com/corray333/gamesbakery/internal/worker/orderstatus"
	"github.com/go-chi/chi/v5"
)

type sweeper interface {
	Sweep(ctx context.Context) orderstatus.Report
}

type Handler struct {
	sweeper sweeper
}

func New(s sweeper) *Handler {
	return &Handler{sweeper: s}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/order-status/sweep", h.sweep)
}

func (h *Handler) sweep(w http.ResponseWriter, r *http.Request) {
	if err := principal.Get(r).Require(authz.RoleAdmin); err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, h.sweeper.Sweep(r.Context()))
}
