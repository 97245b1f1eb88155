package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

type Category struct {
	bun.BaseModel `bun:"table:categories,alias:c"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Slug      string    `bun:"slug,unique,notnull" json:"slug"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
}

type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Name          string    `bun:"name,notnull" json:"name"`
	Slug          string    `bun:"slug,unique,notnull" json:"slug"`
	Description   string    `bun:"description" json:"description"`
	CategoryID    *int64    `bun:"category_id" json:"categoryId"`
	Price         float64   `bun:"price,notnull" json:"price"`
	OriginalPrice *float64  `bun:"original_price" json:"originalPrice"`
	Stock         int       `bun:"stock,notnull" json:"stock"`
	MediaType     string    `bun:"media_type,notnull" json:"mediaType"`
	MediaSrc      string    `bun:"media_src,notnull" json:"mediaSrc"`
	MediaPoster   *string   `bun:"media_poster" json:"mediaPoster"`
	IsAvailable   bool      `bun:"is_available,notnull" json:"isAvailable"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt     time.Time `bun:"updated_at,notnull" json:"updatedAt"`

	Variants []*ProductVariant `bun:"rel:has-many,join:id=product_id" json:"variants,omitempty"`
	Sizes    []*ProductSize    `bun:"rel:has-many,join:id=product_id" json:"sizes,omitempty"`
	Images   []*ProductImage   `bun:"rel:has-many,join:id=product_id" json:"images,omitempty"`
}

type ProductVariant struct {
	bun.BaseModel `bun:"table:product_variants,alias:pv"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	ProductID     int64     `bun:"product_id,notnull" json:"productId"`
	Name          string    `bun:"name,notnull" json:"name"`
	Price         float64   `bun:"price,notnull" json:"price"`
	OriginalPrice *float64  `bun:"original_price" json:"originalPrice"`
	Stock         int       `bun:"stock,notnull" json:"stock"`
	IsAvailable   bool      `bun:"is_available,notnull" json:"isAvailable"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"createdAt"`
}

type ProductSize struct {
	bun.BaseModel `bun:"table:product_sizes,alias:ps"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	ProductID int64     `bun:"product_id,notnull" json:"productId"`
	Size      string    `bun:"size,notnull" json:"size"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
}

type ProductImage struct {
	bun.BaseModel `bun:"table:product_images,alias:pi"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	ProductID    int64     `bun:"product_id,notnull" json:"productId"`
	ImageURL     string    `bun:"image_url,notnull" json:"imageUrl"`
	DisplayOrder int       `bun:"display_order,notnull" json:"displayOrder"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"createdAt"`
}

// ProductFilter narrows GET /api/products.
type ProductFilter struct {
	Limit      int
	Offset     int
	CategoryID int64
	Available  *bool
	Search     string
}

type Availability struct {
	ProductID   int64 `json:"productId"`
	IsAvailable bool  `json:"isAvailable"`
	Stock       int   `json:"stock"`
}

// ---------------- REQUEST BODIES ----------------
// Pointer fields distinguish "absent" from zero values on partial updates.

type CategoryInput struct {
	Name string `json:"name" validate:"required"`
	Slug string `json:"slug" validate:"required"`
}

type ProductInput struct {
	Name          *string  `json:"name"`
	Slug          *string  `json:"slug"`
	Description   *string  `json:"description"`
	CategoryID    *int64   `json:"categoryId"`
	Price         *float64 `json:"price"`
	OriginalPrice *float64 `json:"originalPrice"`
	Stock         *int     `json:"stock"`
	MediaType     *string  `json:"mediaType"`
	MediaSrc      *string  `json:"mediaSrc"`
	MediaPoster   *string  `json:"mediaPoster"`
	IsAvailable   *bool    `json:"isAvailable"`
}

type VariantInput struct {
	Name          *string  `json:"name"`
	Price         *float64 `json:"price"`
	OriginalPrice *float64 `json:"originalPrice"`
	Stock         *int     `json:"stock"`
	IsAvailable   *bool    `json:"isAvailable"`
}

type SizeInput struct {
	Size string `json:"size"`
}

type ImageInput struct {
	ImageURL     string `json:"imageUrl"`
	DisplayOrder *int   `json:"displayOrder"`
}
