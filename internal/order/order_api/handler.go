package order_api

import (
	"fmt"
	"net/http"
	"strings"

	"storefront/internal/auth"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/order"
	"storefront/internal/receipt"
	"storefront/internal/sse"
	"storefront/internal/utils"

	"github.com/go-chi/chi/v5"
)

var (
	errInvalidID          = utils.BadRequest("INVALID_ID", "Valid ID is required")
	errInvalidLimit       = utils.BadRequest("INVALID_LIMIT", fmt.Sprintf("limit must be between 1 and %d", order.MaxLimit))
	errReceiptUnavailable = utils.NewAppError(http.StatusServiceUnavailable, "RECEIPT_UNAVAILABLE", "Receipt printing is not configured")
)

type Handler struct {
	Service *order.Service
	Feed    *sse.OrderFeed
	QR      *receipt.QRGenerator
	PDF     *receipt.PDFGenerator
	Logger  *logger.Logger
}

func NewHandler(service *order.Service, feed *sse.OrderFeed, qr *receipt.QRGenerator, pdf *receipt.PDFGenerator, log *logger.Logger) *Handler {
	return &Handler{Service: service, Feed: feed, QR: qr, PDF: pdf, Logger: log}
}

func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/api/checkout", h.Checkout)
	r.Get("/api/orders", h.ListOrders)
	r.Get("/api/orders/{id}", h.GetOrder)
	r.Post("/api/orders/{id}/cancel", h.CancelOrder)
	r.Put("/api/orders/{id}/cancel", h.CancelOrder)
	r.Get("/api/orders/{id}/qr", h.GetQRCode)
}

func (h *Handler) RegisterTeamRoutes(r chi.Router) {
	r.Get("/api/orders/stream", h.Stream)
	r.Post("/api/orders/scan", h.ScanQRCode)
	r.Put("/api/orders/{id}", h.UpdateOrder)
	r.Delete("/api/orders/{id}", h.DeleteOrder)
	r.Put("/api/orders/{id}/confirm", h.ConfirmOrder)
	r.Put("/api/orders/{id}/status", h.UpdateStatus)
	r.Get("/api/orders/{id}/receipt", h.GetReceipt)
}

// ---------------- CUSTOMER ----------------

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Fail(w, h.Logger, "Checkout", utils.ErrInvalidBody)
		return
	}
	resp, err := h.Service.Checkout(r.Context(), req)
	if err != nil {
		utils.Fail(w, h.Logger, "Checkout", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, resp)
}

// ListOrders → one order by ?id=, customer history by ?phone=, or the team
// listing when a team token is present
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Has("id") {
		id, err := utils.QueryID(r, "id")
		if err != nil {
			utils.Fail(w, h.Logger, "ListOrders", errInvalidID)
			return
		}
		o, err := h.Service.GetOrder(r.Context(), id)
		if err != nil {
			utils.Fail(w, h.Logger, "ListOrders", err)
			return
		}
		utils.WriteJSON(w, http.StatusOK, o)
		return
	}

	limit, err := utils.QueryInt(r, "limit", order.DefaultLimit)
	if err != nil || limit < 1 || limit > order.MaxLimit {
		utils.Fail(w, h.Logger, "ListOrders", errInvalidLimit)
		return
	}
	q := r.URL.Query()

	var orders []models.Order
	if auth.IsTeam(r.Context()) {
		orders, err = h.Service.List(r.Context(), models.OrderFilter{
			Phone:  q.Get("phone"),
			Status: q.Get("status"),
			Search: q.Get("search"),
			Limit:  limit,
		})
	} else {
		orders, err = h.Service.History(r.Context(), q.Get("phone"), limit)
	}
	if err != nil {
		utils.Fail(w, h.Logger, "ListOrders", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := utils.URLParamID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "GetOrder", errInvalidID)
		return
	}
	o, err := h.Service.GetOrder(r.Context(), id)
	if err != nil {
		utils.Fail(w, h.Logger, "GetOrder", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := utils.URLParamID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "CancelOrder", errInvalidID)
		return
	}
	var req models.CancelRequest
	if r.ContentLength != 0 {
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.Fail(w, h.Logger, "CancelOrder", utils.ErrInvalidBody)
			return
		}
	}
	o, err := h.Service.Cancel(r.Context(), id, req.Phone)
	if err != nil {
		utils.Fail(w, h.Logger, "CancelOrder", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Order cancelled successfully",
		"order":   o,
	})
}

func (h *Handler) GetQRCode(w http.ResponseWriter, r *http.Request) {
	id, err := utils.URLParamID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "GetQRCode", errInvalidID)
		return
	}
	o, err := h.Service.GetOrder(r.Context(), id)
	if err != nil {
		utils.Fail(w, h.Logger, "GetQRCode", err)
		return
	}
	png, err := h.QR.PNG(o)
	if err != nil {
		utils.Fail(w, h.Logger, "GetQRCode", fmt.Errorf("render qr: %w", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// ---------------- TEAM ----------------

func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := utils.URLParamID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "UpdateOrder", errInvalidID)
		return
	}
	var in models.OrderUpdate
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.Fail(w, h.Logger, "UpdateOrder", utils.ErrInvalidBody)
		return
	}
	o, err := h.Service.Update(r.Context(), id, in)
	if err != nil {
		utils.Fail(w, h.Logger, "UpdateOrder", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := utils.URLParamID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "DeleteOrder", errInvalidID)
		return
	}
	o, err := h.Service.Delete(r.Context(), id)
	if err != nil {
		utils.Fail(w, h.Logger, "DeleteOrder", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Order deleted successfully",
		"order":   o,
	})
}

func (h *Handler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	id, err := utils.URLParamID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "ConfirmOrder", errInvalidID)
		return
	}
	o, err := h.Service.Confirm(r.Context(), id)
	if err != nil {
		utils.Fail(w, h.Logger, "ConfirmOrder", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := utils.URLParamID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "UpdateStatus", errInvalidID)
		return
	}
	var in models.StatusUpdate
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.Fail(w, h.Logger, "UpdateStatus", utils.ErrInvalidBody)
		return
	}
	o, err := h.Service.UpdateStatus(r.Context(), id, in.Status)
	if err != nil {
		utils.Fail(w, h.Logger, "UpdateStatus", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := utils.URLParamID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "GetReceipt", errInvalidID)
		return
	}
	if !h.PDF.Available() {
		utils.Fail(w, h.Logger, "GetReceipt", errReceiptUnavailable)
		return
	}
	o, err := h.Service.GetOrder(r.Context(), id)
	if err != nil {
		utils.Fail(w, h.Logger, "GetReceipt", err)
		return
	}
	qr, err := h.QR.PNG(o)
	if err != nil {
		h.Logger.Warn("RECEIPT", fmt.Sprintf("receipt for %s printed without QR: %v", o.OrderNumber, err))
	}
	doc, err := h.PDF.Generate(o, qr)
	if err != nil {
		utils.Fail(w, h.Logger, "GetReceipt", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", o.OrderNumber+".pdf"))
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

type scanRequest struct {
	Payload string `json:"payload"`
}

// ScanQRCode → resolves a pickup QR back to its order
func (h *Handler) ScanQRCode(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := utils.DecodeJSON(r, &req); err != nil || strings.TrimSpace(req.Payload) == "" {
		utils.Fail(w, h.Logger, "ScanQRCode", utils.ErrInvalidBody)
		return
	}
	id, number, err := h.QR.Parse(req.Payload)
	if err != nil {
		h.Logger.LogSecurity("QR_REJECTED", err.Error())
		utils.Fail(w, h.Logger, "ScanQRCode", order.ErrInvalidQRPayload)
		return
	}
	o, err := h.Service.GetOrder(r.Context(), id)
	if err != nil {
		utils.Fail(w, h.Logger, "ScanQRCode", err)
		return
	}
	if o.OrderNumber != number {
		utils.Fail(w, h.Logger, "ScanQRCode", order.ErrInvalidQRPayload)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}
