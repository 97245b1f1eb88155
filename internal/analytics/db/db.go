package db

import (
	"context"
	"time"

	"storefront/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// statusCount is one row of the per-status breakdown.
type statusCount struct {
	Status string `bun:"status"`
	Count  int    `bun:"count"`
}

// SaleRow is the minimum needed to bucket revenue by day.
type SaleRow struct {
	TotalAmount float64   `bun:"total_amount"`
	CreatedAt   time.Time `bun:"created_at"`
}

// Revenue → sum and count of non-cancelled orders created at or after since (zero time = all)
func (d *DB) Revenue(ctx context.Context, since time.Time) (float64, int, error) {
	var row struct {
		Total float64 `bun:"total"`
		Count int     `bun:"count"`
	}
	q := d.Bun.NewSelect().
		Model((*models.Order)(nil)).
		ColumnExpr("COALESCE(SUM(o.total_amount), 0) AS total").
		ColumnExpr("COUNT(*) AS count").
		Where("o.status != ?", models.StatusCancelled)
	if !since.IsZero() {
		q = q.Where("o.created_at >= ?", since)
	}
	err := q.Scan(ctx, &row)
	return row.Total, row.Count, err
}

// CountByStatus → order count per status
func (d *DB) CountByStatus(ctx context.Context) (map[string]int, error) {
	var rows []statusCount
	err := d.Bun.NewSelect().
		Model((*models.Order)(nil)).
		ColumnExpr("o.status").
		ColumnExpr("COUNT(*) AS count").
		Group("o.status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// TopProducts → best sellers by quantity over non-cancelled orders
func (d *DB) TopProducts(ctx context.Context, limit int) ([]models.TopProduct, error) {
	products := []models.TopProduct{}
	err := d.Bun.NewSelect().
		Model((*models.OrderItem)(nil)).
		ColumnExpr("oi.product_id").
		ColumnExpr("MAX(oi.product_name) AS product_name").
		ColumnExpr("SUM(oi.quantity) AS total_quantity").
		ColumnExpr("SUM(oi.quantity * oi.price) AS total_revenue").
		Join("JOIN orders AS o ON o.id = oi.order_id").
		Where("o.status != ?", models.StatusCancelled).
		Group("oi.product_id").
		OrderExpr("total_quantity DESC, oi.product_id ASC").
		Limit(limit).
		Scan(ctx, &products)
	return products, err
}

// RecentOrders → newest orders of any status
func (d *DB) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	orders := []models.Order{}
	err := d.Bun.NewSelect().
		Model(&orders).
		Order("o.created_at DESC", "o.id DESC").
		Limit(limit).
		Scan(ctx)
	return orders, err
}

// SalesSince → non-cancelled orders from since onwards, oldest first
func (d *DB) SalesSince(ctx context.Context, since time.Time) ([]SaleRow, error) {
	rows := []SaleRow{}
	err := d.Bun.NewSelect().
		Model((*models.Order)(nil)).
		ColumnExpr("o.total_amount, o.created_at").
		Where("o.status != ?", models.StatusCancelled).
		Where("o.created_at >= ?", since).
		Order("o.created_at ASC").
		Scan(ctx, &rows)
	return rows, err
}
