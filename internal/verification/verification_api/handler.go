package verification_api

import (
	"net/http"

	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/utils"
	"storefront/internal/verification"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *verification.Service
	Logger  *logger.Logger
}

func NewHandler(service *verification.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/verification/send", h.Send)
	r.Post("/api/verification/verify", h.Verify)
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var in models.SendCodeRequest
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.Fail(w, h.Logger, "SendCode", utils.ErrInvalidBody)
		return
	}
	resp, err := h.Service.Send(r.Context(), in)
	if err != nil {
		utils.Fail(w, h.Logger, "SendCode", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var in models.VerifyCodeRequest
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.Fail(w, h.Logger, "VerifyCode", utils.ErrInvalidBody)
		return
	}
	in.Phone = utils.NormalizePhone(in.Phone)
	if err := utils.Validate(in); err != nil {
		utils.Fail(w, h.Logger, "VerifyCode", err)
		return
	}
	if err := h.Service.Verify(r.Context(), in.Phone, in.Code); err != nil {
		utils.Fail(w, h.Logger, "VerifyCode", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"verified": true})
}
