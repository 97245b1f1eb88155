package cart_api

import (
	"net/http"

	"storefront/internal/cart"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *cart.Service
	Logger  *logger.Logger
}

func NewHandler(service *cart.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/cart/quote", h.Quote)
}

type quoteRequest struct {
	Items []models.CartLine `json:"items"`
}

// Quote → price a client-side cart without reserving anything
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Fail(w, h.Logger, "Quote", utils.ErrInvalidBody)
		return
	}
	q, err := h.Service.Quote(r.Context(), req.Items)
	if err != nil {
		utils.Fail(w, h.Logger, "Quote", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, q)
}
