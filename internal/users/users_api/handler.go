package users_api

import (
	"fmt"
	"net/http"

	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/users"
	"storefront/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *users.Service
	Logger  *logger.Logger
}

func NewHandler(service *users.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/users", h.GetByPhone)
	r.Post("/api/users", h.Create)
	r.Put("/api/users/{id}", h.Update)
}

// GetByPhone → /api/users?phone=
func (h *Handler) GetByPhone(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.GetByPhone(r.Context(), r.URL.Query().Get("phone"))
	if err != nil {
		utils.Fail(w, h.Logger, "GetUser", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.UserInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.Fail(w, h.Logger, "CreateUser", utils.ErrInvalidBody)
		return
	}
	u, err := h.Service.Create(r.Context(), in)
	if err != nil {
		utils.Fail(w, h.Logger, "CreateUser", err)
		return
	}
	h.Logger.Info("USERS", fmt.Sprintf("User %d registered", u.ID))
	utils.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := utils.URLParamID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "UpdateUser", utils.BadRequest("INVALID_ID", "Valid ID is required"))
		return
	}
	var in models.UserUpdate
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.Fail(w, h.Logger, "UpdateUser", utils.ErrInvalidBody)
		return
	}
	u, err := h.Service.Update(r.Context(), id, in)
	if err != nil {
		utils.Fail(w, h.Logger, "UpdateUser", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, u)
}
