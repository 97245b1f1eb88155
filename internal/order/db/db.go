package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"storefront/internal/models"
	usersdb "storefront/internal/users/db"
	"storefront/internal/utils"
	verificationdb "storefront/internal/verification/db"

	"github.com/uptrace/bun"
)

var (
	ErrCodeRejected = errors.New("verification code was already used or replaced")
	ErrOutOfStock   = errors.New("stock ran out during checkout")
)

type DB struct {
	Bun *bun.DB
}

// StockDraw takes quantity from a variant when VariantID is set, else from the product.
type StockDraw struct {
	ProductID int64
	VariantID *int64
	Quantity  int
}

// Placement is everything one checkout writes.
type Placement struct {
	Order    *models.Order
	Draws    []StockDraw
	Customer *models.User
	Code     string
}

// ---------------- CHECKOUT ----------------

// PlaceOrder → consume the code, draw stock, insert order and items, upsert the customer.
// Any failure rolls the whole checkout back.
func (d *DB) PlaceOrder(ctx context.Context, p Placement) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		ok, err := verificationdb.ConsumeCode(ctx, tx, p.Order.CustomerPhone, p.Code)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCodeRejected
		}

		for _, draw := range p.Draws {
			if err := drawStock(ctx, tx, draw, p.Order.CreatedAt); err != nil {
				return err
			}
		}

		if _, err := tx.NewInsert().Model(p.Order).Exec(ctx); err != nil {
			return err
		}
		if len(p.Order.Items) > 0 {
			for _, it := range p.Order.Items {
				it.OrderID = p.Order.ID
			}
			if _, err := tx.NewInsert().Model(&p.Order.Items).Exec(ctx); err != nil {
				return err
			}
		}

		if p.Customer != nil {
			return usersdb.UpsertUser(ctx, tx, p.Customer)
		}
		return nil
	})
}

func drawStock(ctx context.Context, tx bun.Tx, draw StockDraw, now time.Time) error {
	var q *bun.UpdateQuery
	if draw.VariantID != nil {
		q = tx.NewUpdate().
			Model((*models.ProductVariant)(nil)).
			Set("stock = stock - ?", draw.Quantity).
			Where("id = ?", *draw.VariantID).
			Where("product_id = ?", draw.ProductID)
	} else {
		q = tx.NewUpdate().
			Model((*models.Product)(nil)).
			Set("stock = stock - ?", draw.Quantity).
			Set("updated_at = ?", now).
			Where("id = ?", draw.ProductID)
	}
	res, err := q.Where("stock >= ?", draw.Quantity).Exec(ctx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOutOfStock
	}
	return nil
}

// ---------------- ORDERS ----------------

// GetOrder → order with its items, nil when missing
func (d *DB) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var o models.Order
	err := d.Bun.NewSelect().
		Model(&o).
		Relation("Items", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("oi.id ASC")
		}).
		Where("o.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrders → newest first, items included
func (d *DB) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	orders := []models.Order{}
	q := d.Bun.NewSelect().
		Model(&orders).
		Relation("Items", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("oi.id ASC")
		}).
		Order("o.created_at DESC", "o.id DESC")

	if f.Phone != "" {
		q = q.Where("o.customer_phone = ?", f.Phone)
	}
	if f.Status != "" {
		q = q.Where("o.status = ?", f.Status)
	}
	if f.Search != "" {
		like := utils.ContainsPattern(f.Search)
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("LOWER(o.order_number) LIKE LOWER(?) ESCAPE '!'", like).
				WhereOr("LOWER(o.customer_name) LIKE LOWER(?) ESCAPE '!'", like).
				WhereOr("o.customer_phone LIKE ? ESCAPE '!'", like)
		})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrder → write only the named columns
func (d *DB) UpdateOrder(ctx context.Context, o *models.Order, columns ...string) error {
	_, err := d.Bun.NewUpdate().Model(o).Column(columns...).WherePK().Exec(ctx)
	return err
}

// DeleteOrder → items first, then the order
func (d *DB) DeleteOrder(ctx context.Context, id int64) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.OrderItem)(nil)).
			Where("order_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*models.Order)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
}
