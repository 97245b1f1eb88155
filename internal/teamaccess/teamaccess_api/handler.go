package teamaccess_api

import (
	"net/http"

	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/teamaccess"
	"storefront/internal/utils"

	"github.com/go-chi/chi/v5"
)

var errInvalidCodeID = utils.BadRequest("INVALID_ID", "Valid access code ID is required")

type Handler struct {
	Service *teamaccess.Service
	Logger  *logger.Logger
}

func NewHandler(service *teamaccess.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/api/team-access/unlock", h.Unlock)
	r.Post("/api/team-access/evaluate", h.Evaluate)
}

func (h *Handler) RegisterTeamRoutes(r chi.Router) {
	r.Get("/api/team-access/codes", h.ListCodes)
	r.Post("/api/team-access/codes", h.CreateCode)
	r.Put("/api/team-access/codes", h.UpdateCode)
	r.Delete("/api/team-access/codes", h.DeleteCode)
}

func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	var in models.UnlockRequest
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.Fail(w, h.Logger, "Unlock", utils.ErrInvalidBody)
		return
	}
	if err := utils.Validate(in); err != nil {
		utils.Fail(w, h.Logger, "Unlock", err)
		return
	}
	resp, err := h.Service.Unlock(r.Context(), in.Operations)
	if err != nil {
		utils.Fail(w, h.Logger, "Unlock", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var in models.EvaluateRequest
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.Fail(w, h.Logger, "Evaluate", utils.ErrInvalidBody)
		return
	}
	result, err := teamaccess.Evaluate(in.Operation)
	if err != nil {
		utils.Fail(w, h.Logger, "Evaluate", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.EvaluateResponse{Operation: in.Operation, Result: result})
}

// ---------------- CODES ----------------

func (h *Handler) ListCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.Service.ListCodes(r.Context())
	if err != nil {
		utils.Fail(w, h.Logger, "ListAccessCodes", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, codes)
}

func (h *Handler) CreateCode(w http.ResponseWriter, r *http.Request) {
	var in models.AccessCodeInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.Fail(w, h.Logger, "CreateAccessCode", utils.ErrInvalidBody)
		return
	}
	c, err := h.Service.CreateCode(r.Context(), in)
	if err != nil {
		utils.Fail(w, h.Logger, "CreateAccessCode", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) UpdateCode(w http.ResponseWriter, r *http.Request) {
	id, err := utils.QueryID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "UpdateAccessCode", errInvalidCodeID)
		return
	}
	var in models.AccessCodeInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.Fail(w, h.Logger, "UpdateAccessCode", utils.ErrInvalidBody)
		return
	}
	c, err := h.Service.UpdateCode(r.Context(), id, in)
	if err != nil {
		utils.Fail(w, h.Logger, "UpdateAccessCode", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteCode(w http.ResponseWriter, r *http.Request) {
	id, err := utils.QueryID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "DeleteAccessCode", errInvalidCodeID)
		return
	}
	c, err := h.Service.DeleteCode(r.Context(), id)
	if err != nil {
		utils.Fail(w, h.Logger, "DeleteAccessCode", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Access code deleted successfully",
		"code":    c,
	})
}
