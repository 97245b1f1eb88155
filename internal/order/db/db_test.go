package db_test

import (
	"context"
	"testing"
	"time"

	"storefront/internal/database/dbtest"
	"storefront/internal/models"
	"storefront/internal/order/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type fixture struct {
	bun     *bun.DB
	orders  *db.DB
	product *models.Product
	variant *models.ProductVariant
}

func setup(t *testing.T) *fixture {
	bunDB := dbtest.New(t)
	ctx := context.Background()
	now := time.Now()

	p := &models.Product{Name: "Tour Tee", Slug: "tour-tee", Price: 20, Stock: 5, MediaType: models.MediaTypeImage, MediaSrc: "/tee.jpg", IsAvailable: true, CreatedAt: now, UpdatedAt: now}
	_, err := bunDB.NewInsert().Model(p).Exec(ctx)
	require.NoError(t, err)

	v := &models.ProductVariant{ProductID: p.ID, Name: "Black", Price: 22, Stock: 2, IsAvailable: true, CreatedAt: now}
	_, err = bunDB.NewInsert().Model(v).Exec(ctx)
	require.NoError(t, err)

	return &fixture{bun: bunDB, orders: &db.DB{Bun: bunDB}, product: p, variant: v}
}

func (f *fixture) issueCode(t *testing.T, phone, code string) {
	now := time.Now()
	_, err := f.bun.NewInsert().Model(&models.VerificationCode{Phone: phone, Code: code, ExpiresAt: now.Add(time.Minute), CreatedAt: now}).Exec(context.Background())
	require.NoError(t, err)
}

func newOrder(number, phone string, items ...*models.OrderItem) *models.Order {
	now := time.Now()
	return &models.Order{
		OrderNumber:     number,
		CustomerName:    "Ana",
		CustomerPhone:   phone,
		CustomerAddress: "12 Main",
		TotalAmount:     45,
		Status:          models.StatusPending,
		IsVerified:      true,
		PaymentMethod:   models.PaymentCOD,
		CreatedAt:       now,
		UpdatedAt:       now,
		Items:           items,
	}
}

func (f *fixture) stock(t *testing.T) (int, int) {
	var p models.Product
	require.NoError(t, f.bun.NewSelect().Model(&p).Where("id = ?", f.product.ID).Scan(context.Background()))
	var v models.ProductVariant
	require.NoError(t, f.bun.NewSelect().Model(&v).Where("id = ?", f.variant.ID).Scan(context.Background()))
	return p.Stock, v.Stock
}

func TestPlaceOrderWritesEverything(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.issueCode(t, "5550102030", "123456")

	o := newOrder("ORD-1", "5550102030",
		&models.OrderItem{ProductID: f.product.ID, ProductName: "Tour Tee", Quantity: 2, Price: 20},
		&models.OrderItem{ProductID: f.product.ID, ProductName: "Tour Tee", Quantity: 1, Price: 22},
	)
	err := f.orders.PlaceOrder(ctx, db.Placement{
		Order: o,
		Draws: []db.StockDraw{
			{ProductID: f.product.ID, Quantity: 2},
			{ProductID: f.product.ID, VariantID: &f.variant.ID, Quantity: 1},
		},
		Customer: &models.User{Name: "Ana", Phone: "5550102030", Address: "12 Main", CreatedAt: o.CreatedAt, UpdatedAt: o.CreatedAt},
		Code:     "123456",
	})
	require.NoError(t, err)
	require.NotZero(t, o.ID)

	got, err := f.orders.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, o.ID, got.Items[0].OrderID)

	productStock, variantStock := f.stock(t)
	assert.Equal(t, 3, productStock)
	assert.Equal(t, 1, variantStock)

	users, err := f.bun.NewSelect().Model((*models.User)(nil)).Where("phone = ?", "5550102030").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, users)

	codes, err := f.bun.NewSelect().Model((*models.VerificationCode)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, codes, "code must be consumed")
}

func TestPlaceOrderRejectsUsedCode(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	err := f.orders.PlaceOrder(ctx, db.Placement{
		Order: newOrder("ORD-2", "5550102030"),
		Code:  "123456",
	})
	assert.ErrorIs(t, err, db.ErrCodeRejected)

	count, err := f.bun.NewSelect().Model((*models.Order)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestPlaceOrderRollsBackWhenStockRunsOut(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.issueCode(t, "5550102030", "123456")

	err := f.orders.PlaceOrder(ctx, db.Placement{
		Order: newOrder("ORD-3", "5550102030", &models.OrderItem{ProductID: f.product.ID, ProductName: "Tour Tee", Quantity: 1, Price: 20}),
		Draws: []db.StockDraw{
			{ProductID: f.product.ID, Quantity: 1},
			{ProductID: f.product.ID, VariantID: &f.variant.ID, Quantity: 3},
		},
		Code: "123456",
	})
	assert.ErrorIs(t, err, db.ErrOutOfStock)

	productStock, variantStock := f.stock(t)
	assert.Equal(t, 5, productStock)
	assert.Equal(t, 2, variantStock)

	codes, err := f.bun.NewSelect().Model((*models.VerificationCode)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, codes, "code survives a failed checkout")
}

func TestListOrdersFilters(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for i, phone := range []string{"5550102030", "5550102030", "5559999999"} {
		code := "00000" + string(rune('1'+i))
		f.issueCode(t, phone, code)
		o := newOrder("ORD-L"+string(rune('A'+i)), phone)
		if i == 1 {
			o.Status = models.StatusCompleted
			o.CustomerName = "Bea"
		}
		require.NoError(t, f.orders.PlaceOrder(ctx, db.Placement{Order: o, Code: code}))
	}

	byPhone, err := f.orders.ListOrders(ctx, models.OrderFilter{Phone: "5550102030"})
	require.NoError(t, err)
	assert.Len(t, byPhone, 2)

	byStatus, err := f.orders.ListOrders(ctx, models.OrderFilter{Status: models.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "Bea", byStatus[0].CustomerName)

	bySearch, err := f.orders.ListOrders(ctx, models.OrderFilter{Search: "bea"})
	require.NoError(t, err)
	assert.Len(t, bySearch, 1)

	wildcard, err := f.orders.ListOrders(ctx, models.OrderFilter{Search: "%"})
	require.NoError(t, err)
	assert.Empty(t, wildcard)

	underscore, err := f.orders.ListOrders(ctx, models.OrderFilter{Search: "ORD_L"})
	require.NoError(t, err)
	assert.Empty(t, underscore)

	limited, err := f.orders.ListOrders(ctx, models.OrderFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestUpdateAndDeleteOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.issueCode(t, "5550102030", "123456")

	o := newOrder("ORD-4", "5550102030", &models.OrderItem{ProductID: f.product.ID, ProductName: "Tour Tee", Quantity: 1, Price: 20})
	require.NoError(t, f.orders.PlaceOrder(ctx, db.Placement{Order: o, Code: "123456"}))

	o.Status = models.StatusPreparing
	o.IsConfirmedByTeam = true
	require.NoError(t, f.orders.UpdateOrder(ctx, o, "status", "is_confirmed_by_team"))

	got, err := f.orders.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, got.Status)
	assert.True(t, got.IsConfirmedByTeam)

	require.NoError(t, f.orders.DeleteOrder(ctx, o.ID))
	got, err = f.orders.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	items, err := f.bun.NewSelect().Model((*models.OrderItem)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, items)
}
