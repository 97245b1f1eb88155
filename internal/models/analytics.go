package models

import "time"

type SalesStats struct {
	Today       float64 `json:"today"`
	Week        float64 `json:"week"`
	Month       float64 `json:"month"`
	Total       float64 `json:"total"`
	TotalOrders int     `json:"totalOrders"`
}

type OrderCounts struct {
	Pending   int `json:"pending"`
	Preparing int `json:"preparing"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	Total     int `json:"total"`
}

type TopProduct struct {
	ProductID     int64   `bun:"product_id" json:"productId"`
	ProductName   string  `bun:"product_name" json:"productName"`
	TotalQuantity int     `bun:"total_quantity" json:"totalQuantity"`
	TotalRevenue  float64 `bun:"total_revenue" json:"totalRevenue"`
}

type RecentOrder struct {
	ID           int64     `json:"id"`
	OrderNumber  string    `json:"orderNumber"`
	CustomerName string    `json:"customerName"`
	TotalAmount  float64   `json:"totalAmount"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

type SalesTrendPoint struct {
	Date       string  `json:"date"`
	Sales      float64 `json:"sales"`
	OrderCount int     `json:"orderCount"`
}
