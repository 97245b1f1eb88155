package db

import (
	"context"
	"database/sql"
	"errors"

	"storefront/internal/models"
	"storefront/internal/utils"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- CATEGORIES ----------------

// ListCategories → all categories by name
func (d *DB) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := d.Bun.NewSelect().Model(&categories).Order("name ASC").Scan(ctx)
	return categories, err
}

// CreateCategory → insert, filling the generated ID
func (d *DB) CreateCategory(ctx context.Context, c *models.Category) error {
	_, err := d.Bun.NewInsert().Model(c).Exec(ctx)
	return err
}

// ---------------- PRODUCTS ----------------

// ListProducts → products matching the filter, newest first
func (d *DB) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	products := []models.Product{}
	q := d.Bun.NewSelect().Model(&products).Order("p.created_at DESC", "p.id DESC")

	if f.CategoryID > 0 {
		q = q.Where("p.category_id = ?", f.CategoryID)
	}
	if f.Available != nil {
		q = q.Where("p.is_available = ?", *f.Available)
	}
	if f.Search != "" {
		like := utils.ContainsPattern(f.Search)
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("LOWER(p.name) LIKE LOWER(?) ESCAPE '!'", like).
				WhereOr("LOWER(p.description) LIKE LOWER(?) ESCAPE '!'", like)
		})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	err := q.Scan(ctx)
	return products, err
}

// GetProduct → one product with variants, sizes and ordered images. Nil when missing.
func (d *DB) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return d.getProduct(ctx, "p.id = ?", id)
}

// GetProductBySlug → same as GetProduct, keyed by slug
func (d *DB) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return d.getProduct(ctx, "p.slug = ?", slug)
}

func (d *DB) getProduct(ctx context.Context, where string, arg interface{}) (*models.Product, error) {
	var product models.Product
	err := d.Bun.NewSelect().
		Model(&product).
		Relation("Variants", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("pv.id ASC")
		}).
		Relation("Sizes", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("ps.id ASC")
		}).
		Relation("Images", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("pi.display_order ASC", "pi.id ASC")
		}).
		Where(where, arg).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct → insert, filling the generated ID
func (d *DB) CreateProduct(ctx context.Context, p *models.Product) error {
	_, err := d.Bun.NewInsert().Model(p).Exec(ctx)
	return err
}

// UpdateProduct → write the listed columns of p
func (d *DB) UpdateProduct(ctx context.Context, p *models.Product, columns ...string) error {
	_, err := d.Bun.NewUpdate().
		Model(p).
		Column(columns...).
		WherePK().
		Exec(ctx)
	return err
}

// DeleteProduct → remove the product and its child rows. Order items keep their snapshots.
func (d *DB) DeleteProduct(ctx context.Context, id int64) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, child := range []interface{}{
			(*models.ProductVariant)(nil),
			(*models.ProductSize)(nil),
			(*models.ProductImage)(nil),
		} {
			if _, err := tx.NewDelete().Model(child).Where("product_id = ?", id).Exec(ctx); err != nil {
				return err
			}
		}
		_, err := tx.NewDelete().Model((*models.Product)(nil)).Where("id = ?", id).Exec(ctx)
		return err
	})
}

// ---------------- VARIANTS ----------------

func (d *DB) ListVariants(ctx context.Context, productID int64) ([]models.ProductVariant, error) {
	variants := []models.ProductVariant{}
	err := d.Bun.NewSelect().Model(&variants).Where("product_id = ?", productID).Order("id ASC").Scan(ctx)
	return variants, err
}

// GetVariant → nil when the variant does not exist under productID
func (d *DB) GetVariant(ctx context.Context, productID, id int64) (*models.ProductVariant, error) {
	var v models.ProductVariant
	err := d.Bun.NewSelect().Model(&v).Where("id = ? AND product_id = ?", id, productID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (d *DB) CreateVariant(ctx context.Context, v *models.ProductVariant) error {
	_, err := d.Bun.NewInsert().Model(v).Exec(ctx)
	return err
}

func (d *DB) UpdateVariant(ctx context.Context, v *models.ProductVariant, columns ...string) error {
	_, err := d.Bun.NewUpdate().Model(v).Column(columns...).WherePK().Exec(ctx)
	return err
}

func (d *DB) DeleteVariant(ctx context.Context, productID, id int64) error {
	_, err := d.Bun.NewDelete().
		Model((*models.ProductVariant)(nil)).
		Where("id = ? AND product_id = ?", id, productID).
		Exec(ctx)
	return err
}

// ---------------- SIZES ----------------

func (d *DB) ListSizes(ctx context.Context, productID int64) ([]models.ProductSize, error) {
	sizes := []models.ProductSize{}
	err := d.Bun.NewSelect().Model(&sizes).Where("product_id = ?", productID).Order("id ASC").Scan(ctx)
	return sizes, err
}

func (d *DB) GetSize(ctx context.Context, productID, id int64) (*models.ProductSize, error) {
	var s models.ProductSize
	err := d.Bun.NewSelect().Model(&s).Where("id = ? AND product_id = ?", id, productID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (d *DB) CreateSize(ctx context.Context, s *models.ProductSize) error {
	_, err := d.Bun.NewInsert().Model(s).Exec(ctx)
	return err
}

func (d *DB) DeleteSize(ctx context.Context, productID, id int64) error {
	_, err := d.Bun.NewDelete().
		Model((*models.ProductSize)(nil)).
		Where("id = ? AND product_id = ?", id, productID).
		Exec(ctx)
	return err
}

// ---------------- IMAGES ----------------

func (d *DB) ListImages(ctx context.Context, productID int64) ([]models.ProductImage, error) {
	images := []models.ProductImage{}
	err := d.Bun.NewSelect().
		Model(&images).
		Where("product_id = ?", productID).
		Order("display_order ASC", "id ASC").
		Scan(ctx)
	return images, err
}

func (d *DB) GetImage(ctx context.Context, productID, id int64) (*models.ProductImage, error) {
	var img models.ProductImage
	err := d.Bun.NewSelect().Model(&img).Where("id = ? AND product_id = ?", id, productID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (d *DB) CreateImage(ctx context.Context, img *models.ProductImage) error {
	_, err := d.Bun.NewInsert().Model(img).Exec(ctx)
	return err
}

func (d *DB) DeleteImage(ctx context.Context, productID, id int64) error {
	_, err := d.Bun.NewDelete().
		Model((*models.ProductImage)(nil)).
		Where("id = ? AND product_id = ?", id, productID).
		Exec(ctx)
	return err
}
