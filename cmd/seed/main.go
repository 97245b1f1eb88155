package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/utils"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type seedProduct struct {
	product  models.Product
	category string
	variants []models.ProductVariant
	sizes    []string
	images   []string
}

func ptr[T any](v T) *T { return &v }

func catalog() []seedProduct {
	return []seedProduct{
		{
			product: models.Product{
				Name: "Tour Tee 2024", Slug: "tour-tee-2024", Description: "Heavyweight cotton tee with the tour dates on the back.",
				Price: 30, OriginalPrice: ptr(35.0), Stock: 120, MediaType: models.MediaTypeImage, MediaSrc: "/products/tour-tee.jpg",
			},
			category: "Apparel",
			sizes:    []string{"S", "M", "L", "XL"},
			images:   []string{"/products/tour-tee-back.jpg", "/products/tour-tee-detail.jpg"},
			variants: []models.ProductVariant{
				{Name: "Black", Price: 30, Stock: 60},
				{Name: "Bone", Price: 32, Stock: 40},
			},
		},
		{
			product: models.Product{
				Name: "Logo Hoodie", Slug: "logo-hoodie", Description: "Brushed fleece hoodie, embroidered logo.",
				Price: 65, Stock: 50, MediaType: models.MediaTypeVideo, MediaSrc: "/products/hoodie.mp4", MediaPoster: ptr("/products/hoodie-poster.jpg"),
			},
			category: "Apparel",
			sizes:    []string{"M", "L", "XL"},
		},
		{
			product: models.Product{
				Name: "Vinyl LP", Slug: "vinyl-lp", Description: "180g pressing with printed inner sleeve.",
				Price: 28, Stock: 200, MediaType: models.MediaTypeImage, MediaSrc: "/products/vinyl.jpg",
			},
			category: "Music",
			variants: []models.ProductVariant{
				{Name: "Black", Price: 28, Stock: 150},
				{Name: "Splatter", Price: 34, Stock: 25, OriginalPrice: ptr(38.0)},
			},
		},
		{
			product: models.Product{
				Name: "Sticker Pack", Slug: "sticker-pack", Description: "Five die-cut vinyl stickers.",
				Price: 6, Stock: 500, MediaType: models.MediaTypeImage, MediaSrc: "/products/stickers.jpg",
			},
			category: "Accessories",
		},
	}
}

var accessCodes = []string{"9426+777="}

func main() {
	reset := flag.Bool("reset", false, "drop every table before seeding")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.NewLogger("")
	ctx := context.Background()

	connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()

	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to database: %v", err))
	}
	db := bun.NewDB(sqldb, pgdialect.New())

	if *reset {
		log.Warn("SEED", "Dropping tables...")
		if err := database.DropSchema(ctx, db); err != nil {
			log.Fatal("SEED", err.Error())
		}
	}

	log.Info("SEED", "Creating tables...")
	if err := database.CreateSchema(ctx, db); err != nil {
		log.Fatal("SEED", err.Error())
	}

	log.Info("SEED", "Seeding sample data...")
	if err := seedData(ctx, db, log); err != nil {
		log.Fatal("SEED", err.Error())
	}
	log.Info("SEED", "Done")
}

func seedData(ctx context.Context, db *bun.DB, log *logger.Logger) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now()

		categories := map[string]int64{}
		for _, sp := range catalog() {
			if _, ok := categories[sp.category]; ok {
				continue
			}
			c := &models.Category{Name: sp.category, Slug: utils.Slugify(sp.category), CreatedAt: now}
			if _, err := tx.NewInsert().Model(c).On("CONFLICT (slug) DO UPDATE").Set("name = EXCLUDED.name").Returning("id").Exec(ctx); err != nil {
				return fmt.Errorf("seed category %s: %w", sp.category, err)
			}
			categories[sp.category] = c.ID
		}

		for _, sp := range catalog() {
			exists, err := tx.NewSelect().Model((*models.Product)(nil)).Where("slug = ?", sp.product.Slug).Exists(ctx)
			if err != nil {
				return err
			}
			if exists {
				log.Debug("SEED", fmt.Sprintf("Product %s already present", sp.product.Slug))
				continue
			}

			p := sp.product
			p.CategoryID = ptr(categories[sp.category])
			p.IsAvailable = true
			p.CreatedAt, p.UpdatedAt = now, now
			if _, err := tx.NewInsert().Model(&p).Exec(ctx); err != nil {
				return fmt.Errorf("seed product %s: %w", p.Slug, err)
			}

			for _, v := range sp.variants {
				v.ProductID, v.IsAvailable, v.CreatedAt = p.ID, true, now
				if _, err := tx.NewInsert().Model(&v).Exec(ctx); err != nil {
					return fmt.Errorf("seed variant %s/%s: %w", p.Slug, v.Name, err)
				}
			}
			for _, size := range sp.sizes {
				if _, err := tx.NewInsert().Model(&models.ProductSize{ProductID: p.ID, Size: size, CreatedAt: now}).Exec(ctx); err != nil {
					return fmt.Errorf("seed size %s/%s: %w", p.Slug, size, err)
				}
			}
			for i, url := range sp.images {
				if _, err := tx.NewInsert().Model(&models.ProductImage{ProductID: p.ID, ImageURL: url, DisplayOrder: i, CreatedAt: now}).Exec(ctx); err != nil {
					return fmt.Errorf("seed image %s: %w", url, err)
				}
			}
			log.Info("SEED", fmt.Sprintf("Product %s seeded", p.Slug))
		}

		count, err := tx.NewSelect().Model((*models.TeamAccessCode)(nil)).Count(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		for i, op := range accessCodes {
			code := &models.TeamAccessCode{Operation: op, SequenceOrder: i + 1, IsActive: true, CreatedAt: now}
			if _, err := tx.NewInsert().Model(code).Exec(ctx); err != nil {
				return fmt.Errorf("seed access code: %w", err)
			}
		}
		log.LogSecurity("SEED", fmt.Sprintf("%d team access codes created", len(accessCodes)))
		return nil
	})
}
