package database_test

import (
	"context"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/database/dbtest"
	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSchemaCreatesEveryTable(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	for _, model := range database.Models() {
		_, err := db.NewSelect().Model(model).Limit(1).Exists(ctx)
		assert.NoError(t, err, "%T", model)
	}
}

func TestCreateSchemaIsIdempotent(t *testing.T) {
	db := dbtest.New(t)
	require.NoError(t, database.CreateSchema(context.Background(), db))
}

func TestProductRelations(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	now := time.Now()

	p := &models.Product{Name: "Tour Tee", Slug: "tour-tee", Price: 25, MediaType: "image", MediaSrc: "/tee.jpg", IsAvailable: true, CreatedAt: now, UpdatedAt: now}
	_, err := db.NewInsert().Model(p).Exec(ctx)
	require.NoError(t, err)

	_, err = db.NewInsert().Model(&models.ProductSize{ProductID: p.ID, Size: "M", CreatedAt: now}).Exec(ctx)
	require.NoError(t, err)

	var got models.Product
	err = db.NewSelect().Model(&got).Relation("Sizes").Where("p.id = ?", p.ID).Scan(ctx)
	require.NoError(t, err)
	require.Len(t, got.Sizes, 1)
	assert.Equal(t, "M", got.Sizes[0].Size)
}

func TestDropSchema(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	require.NoError(t, database.DropSchema(ctx, db))
	_, err := db.NewSelect().Model((*models.Order)(nil)).Limit(1).Exists(ctx)
	assert.Error(t, err)
}
