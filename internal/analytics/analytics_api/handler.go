package analytics_api

import (
	"net/http"

	"storefront/internal/analytics"
	"storefront/internal/logger"
	"storefront/internal/utils"

	"github.com/go-chi/chi/v5"
)

const (
	defaultLimit = 5
	defaultDays  = 7
)

type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
}

func NewHandler(service *analytics.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// RegisterRoutes mounts the dashboard endpoints. Callers must wrap them with team auth.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/analytics/sales", h.GetSales)
	r.Get("/api/analytics/orders", h.GetOrderCounts)
	r.Get("/api/analytics/top-products", h.GetTopProducts)
	r.Get("/api/analytics/recent-orders", h.GetRecentOrders)
	r.Get("/api/analytics/sales-trend", h.GetSalesTrend)
}

func (h *Handler) GetSales(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Sales(r.Context())
	if err != nil {
		utils.Fail(w, h.Logger, "GetSales", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) GetOrderCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Service.OrderCounts(r.Context())
	if err != nil {
		utils.Fail(w, h.Logger, "GetOrderCounts", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, counts)
}

func (h *Handler) GetTopProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := utils.QueryInt(r, "limit", defaultLimit)
	if err != nil {
		utils.Fail(w, h.Logger, "GetTopProducts", analytics.ErrInvalidLimit)
		return
	}
	products, err := h.Service.TopProducts(r.Context(), limit)
	if err != nil {
		utils.Fail(w, h.Logger, "GetTopProducts", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, products)
}

func (h *Handler) GetRecentOrders(w http.ResponseWriter, r *http.Request) {
	limit, err := utils.QueryInt(r, "limit", defaultLimit)
	if err != nil {
		utils.Fail(w, h.Logger, "GetRecentOrders", analytics.ErrInvalidLimit)
		return
	}
	orders, err := h.Service.RecentOrders(r.Context(), limit)
	if err != nil {
		utils.Fail(w, h.Logger, "GetRecentOrders", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetSalesTrend(w http.ResponseWriter, r *http.Request) {
	days, err := utils.QueryInt(r, "days", defaultDays)
	if err != nil {
		utils.Fail(w, h.Logger, "GetSalesTrend", analytics.ErrInvalidDays)
		return
	}
	points, err := h.Service.SalesTrend(r.Context(), days)
	if err != nil {
		utils.Fail(w, h.Logger, "GetSalesTrend", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, points)
}
