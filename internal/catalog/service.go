package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/utils"
)

var (
	ErrProductNotFound  = utils.NotFound("PRODUCT_NOT_FOUND", "Product not found")
	ErrVariantNotFound  = utils.NotFound("VARIANT_NOT_FOUND", "Variant not found")
	ErrSizeNotFound     = utils.NotFound("SIZE_NOT_FOUND", "Size not found")
	ErrImageNotFound    = utils.NotFound("IMAGE_NOT_FOUND", "Image not found")
	ErrMissingName      = utils.BadRequest("MISSING_NAME", "Name is required")
	ErrInvalidName      = utils.BadRequest("INVALID_NAME", "Name cannot be empty")
	ErrMissingPrice     = utils.BadRequest("MISSING_PRICE", "Price is required")
	ErrInvalidPrice     = utils.BadRequest("INVALID_PRICE", "Price must be a valid positive number")
	ErrInvalidStock     = utils.BadRequest("INVALID_STOCK", "Stock must be a valid non-negative number")
	ErrMissingSize      = utils.BadRequest("MISSING_SIZE", "Size is required")
	ErrMissingImageURL  = utils.BadRequest("MISSING_IMAGE_URL", "imageUrl is required")
	ErrMissingMediaSrc  = utils.BadRequest("MISSING_MEDIA_SRC", "mediaSrc is required")
	ErrInvalidMediaType = utils.BadRequest("INVALID_MEDIA_TYPE", `Media type must be "image" or "video"`)
	ErrSlugExists       = utils.Conflict("SLUG_EXISTS", "Slug is already in use")
	ErrInvalidSlug      = utils.BadRequest("INVALID_SLUG", "Slug must contain letters or digits")
)

type DBLayer interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error

	ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product, columns ...string) error
	DeleteProduct(ctx context.Context, id int64) error

	ListVariants(ctx context.Context, productID int64) ([]models.ProductVariant, error)
	GetVariant(ctx context.Context, productID, id int64) (*models.ProductVariant, error)
	CreateVariant(ctx context.Context, v *models.ProductVariant) error
	UpdateVariant(ctx context.Context, v *models.ProductVariant, columns ...string) error
	DeleteVariant(ctx context.Context, productID, id int64) error

	ListSizes(ctx context.Context, productID int64) ([]models.ProductSize, error)
	GetSize(ctx context.Context, productID, id int64) (*models.ProductSize, error)
	CreateSize(ctx context.Context, s *models.ProductSize) error
	DeleteSize(ctx context.Context, productID, id int64) error

	ListImages(ctx context.Context, productID int64) ([]models.ProductImage, error)
	GetImage(ctx context.Context, productID, id int64) (*models.ProductImage, error)
	CreateImage(ctx context.Context, img *models.ProductImage) error
	DeleteImage(ctx context.Context, productID, id int64) error
}

type Service struct {
	DB  DBLayer
	now func() time.Time
}

func NewService(db DBLayer) *Service {
	return &Service{DB: db, now: time.Now}
}

// ---------------- CATEGORIES ----------------

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.DB.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, in models.CategoryInput) (*models.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, ErrMissingName
	}
	slug, err := slugFor(&in.Slug, in.Name)
	if err != nil {
		return nil, err
	}
	c := &models.Category{Name: in.Name, Slug: slug, CreatedAt: s.now()}
	if err := s.DB.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// ---------------- PRODUCTS ----------------

func (s *Service) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	f.Search = strings.TrimSpace(f.Search)
	return s.DB.ListProducts(ctx, f)
}

// GetProduct → product with variants, sizes and images
func (s *Service) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.DB.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load product %d: %w", id, err)
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *Service) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	p, err := s.DB.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("load product %q: %w", slug, err)
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *Service) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, ErrMissingName
	}
	if in.Price == nil {
		return nil, ErrMissingPrice
	}
	if *in.Price <= 0 {
		return nil, ErrInvalidPrice
	}
	if in.MediaSrc == nil || strings.TrimSpace(*in.MediaSrc) == "" {
		return nil, ErrMissingMediaSrc
	}

	now := s.now()
	p := &models.Product{
		Name:          strings.TrimSpace(*in.Name),
		CategoryID:    in.CategoryID,
		Price:         *in.Price,
		OriginalPrice: positiveOrNil(in.OriginalPrice),
		MediaType:     models.MediaTypeImage,
		MediaSrc:      strings.TrimSpace(*in.MediaSrc),
		MediaPoster:   trimmedOrNil(in.MediaPoster),
		IsAvailable:   true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	slug, err := slugFor(in.Slug, p.Name)
	if err != nil {
		return nil, err
	}
	p.Slug = slug
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.MediaType != nil {
		if !validMediaType(*in.MediaType) {
			return nil, ErrInvalidMediaType
		}
		p.MediaType = *in.MediaType
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, ErrInvalidStock
		}
		p.Stock = *in.Stock
	}
	if in.IsAvailable != nil {
		p.IsAvailable = *in.IsAvailable
	}

	existing, err := s.DB.GetProductBySlug(ctx, p.Slug)
	if err != nil {
		return nil, fmt.Errorf("check slug: %w", err)
	}
	if existing != nil {
		return nil, ErrSlugExists
	}

	if err := s.DB.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// slugFor normalizes an explicit slug or derives one from name. Names with no
// letters or digits get a random suffix.
func slugFor(explicit *string, name string) (string, error) {
	if explicit != nil && strings.TrimSpace(*explicit) != "" {
		slug := utils.Slugify(*explicit)
		if slug == "" {
			return "", ErrInvalidSlug
		}
		return slug, nil
	}
	if slug := utils.Slugify(name); slug != "" {
		return slug, nil
	}
	return "item-" + utils.GenerateEventID()[:8], nil
}

// UpdateProduct merges the provided fields and bumps updatedAt.
func (s *Service) UpdateProduct(ctx context.Context, id int64, in models.ProductInput) (*models.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.MediaType != nil && !validMediaType(*in.MediaType) {
		return nil, ErrInvalidMediaType
	}

	columns := []string{"updated_at"}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
		p.Name = name
		columns = append(columns, "name")
	}
	if in.Slug != nil {
		slug := utils.Slugify(*in.Slug)
		if slug == "" {
			return nil, ErrInvalidSlug
		}
		if slug != p.Slug {
			other, err := s.DB.GetProductBySlug(ctx, slug)
			if err != nil {
				return nil, fmt.Errorf("check slug: %w", err)
			}
			if other != nil {
				return nil, ErrSlugExists
			}
		}
		p.Slug = slug
		columns = append(columns, "slug")
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
		columns = append(columns, "description")
	}
	if in.CategoryID != nil {
		p.CategoryID = in.CategoryID
		columns = append(columns, "category_id")
	}
	if in.Price != nil {
		if *in.Price <= 0 {
			return nil, ErrInvalidPrice
		}
		p.Price = *in.Price
		columns = append(columns, "price")
	}
	if in.OriginalPrice != nil {
		p.OriginalPrice = positiveOrNil(in.OriginalPrice)
		columns = append(columns, "original_price")
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, ErrInvalidStock
		}
		p.Stock = *in.Stock
		columns = append(columns, "stock")
	}
	if in.MediaType != nil {
		p.MediaType = *in.MediaType
		columns = append(columns, "media_type")
	}
	if in.MediaSrc != nil {
		src := strings.TrimSpace(*in.MediaSrc)
		if src == "" {
			return nil, ErrMissingMediaSrc
		}
		p.MediaSrc = src
		columns = append(columns, "media_src")
	}
	if in.MediaPoster != nil {
		p.MediaPoster = trimmedOrNil(in.MediaPoster)
		columns = append(columns, "media_poster")
	}
	if in.IsAvailable != nil {
		p.IsAvailable = *in.IsAvailable
		columns = append(columns, "is_available")
	}

	p.UpdatedAt = s.now()
	if err := s.DB.UpdateProduct(ctx, p, columns...); err != nil {
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}
	return p, nil
}

// DeleteProduct returns the removed row.
func (s *Service) DeleteProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.DeleteProduct(ctx, id); err != nil {
		return nil, fmt.Errorf("delete product %d: %w", id, err)
	}
	return p, nil
}

func (s *Service) GetAvailability(ctx context.Context, id int64) (*models.Availability, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.Availability{ProductID: p.ID, IsAvailable: p.IsAvailable, Stock: p.Stock}, nil
}

// ToggleAvailability flips isAvailable and returns the updated product.
func (s *Service) ToggleAvailability(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	p.IsAvailable = !p.IsAvailable
	p.UpdatedAt = s.now()
	if err := s.DB.UpdateProduct(ctx, p, "is_available", "updated_at"); err != nil {
		return nil, fmt.Errorf("toggle availability %d: %w", id, err)
	}
	return p, nil
}

// ---------------- VARIANTS ----------------

func (s *Service) ListVariants(ctx context.Context, productID int64) ([]models.ProductVariant, error) {
	return s.DB.ListVariants(ctx, productID)
}

func (s *Service) CreateVariant(ctx context.Context, productID int64, in models.VariantInput) (*models.ProductVariant, error) {
	if _, err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, ErrMissingName
	}
	if in.Price == nil {
		return nil, ErrMissingPrice
	}
	if *in.Price <= 0 {
		return nil, ErrInvalidPrice
	}

	v := &models.ProductVariant{
		ProductID:     productID,
		Name:          strings.TrimSpace(*in.Name),
		Price:         *in.Price,
		OriginalPrice: positiveOrNil(in.OriginalPrice),
		IsAvailable:   true,
		CreatedAt:     s.now(),
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, ErrInvalidStock
		}
		v.Stock = *in.Stock
	}
	if in.IsAvailable != nil {
		v.IsAvailable = *in.IsAvailable
	}

	if err := s.DB.CreateVariant(ctx, v); err != nil {
		return nil, fmt.Errorf("create variant: %w", err)
	}
	return v, nil
}

// UpdateVariant with no fields set returns the stored variant unchanged.
func (s *Service) UpdateVariant(ctx context.Context, productID, id int64, in models.VariantInput) (*models.ProductVariant, error) {
	v, err := s.DB.GetVariant(ctx, productID, id)
	if err != nil {
		return nil, fmt.Errorf("load variant %d: %w", id, err)
	}
	if v == nil {
		return nil, ErrVariantNotFound
	}

	var columns []string
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
		v.Name = name
		columns = append(columns, "name")
	}
	if in.Price != nil {
		if *in.Price <= 0 {
			return nil, ErrInvalidPrice
		}
		v.Price = *in.Price
		columns = append(columns, "price")
	}
	if in.OriginalPrice != nil {
		v.OriginalPrice = positiveOrNil(in.OriginalPrice)
		columns = append(columns, "original_price")
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, ErrInvalidStock
		}
		v.Stock = *in.Stock
		columns = append(columns, "stock")
	}
	if in.IsAvailable != nil {
		v.IsAvailable = *in.IsAvailable
		columns = append(columns, "is_available")
	}
	if len(columns) == 0 {
		return v, nil
	}

	if err := s.DB.UpdateVariant(ctx, v, columns...); err != nil {
		return nil, fmt.Errorf("update variant %d: %w", id, err)
	}
	return v, nil
}

func (s *Service) DeleteVariant(ctx context.Context, productID, id int64) (*models.ProductVariant, error) {
	v, err := s.DB.GetVariant(ctx, productID, id)
	if err != nil {
		return nil, fmt.Errorf("load variant %d: %w", id, err)
	}
	if v == nil {
		return nil, ErrVariantNotFound
	}
	if err := s.DB.DeleteVariant(ctx, productID, id); err != nil {
		return nil, fmt.Errorf("delete variant %d: %w", id, err)
	}
	return v, nil
}

// ---------------- SIZES ----------------

func (s *Service) ListSizes(ctx context.Context, productID int64) ([]models.ProductSize, error) {
	return s.DB.ListSizes(ctx, productID)
}

func (s *Service) CreateSize(ctx context.Context, productID int64, in models.SizeInput) (*models.ProductSize, error) {
	if _, err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}
	size := strings.TrimSpace(in.Size)
	if size == "" {
		return nil, ErrMissingSize
	}
	ps := &models.ProductSize{ProductID: productID, Size: size, CreatedAt: s.now()}
	if err := s.DB.CreateSize(ctx, ps); err != nil {
		return nil, fmt.Errorf("create size: %w", err)
	}
	return ps, nil
}

func (s *Service) DeleteSize(ctx context.Context, productID, id int64) (*models.ProductSize, error) {
	ps, err := s.DB.GetSize(ctx, productID, id)
	if err != nil {
		return nil, fmt.Errorf("load size %d: %w", id, err)
	}
	if ps == nil {
		return nil, ErrSizeNotFound
	}
	if err := s.DB.DeleteSize(ctx, productID, id); err != nil {
		return nil, fmt.Errorf("delete size %d: %w", id, err)
	}
	return ps, nil
}

// ---------------- IMAGES ----------------

func (s *Service) ListImages(ctx context.Context, productID int64) ([]models.ProductImage, error) {
	return s.DB.ListImages(ctx, productID)
}

func (s *Service) CreateImage(ctx context.Context, productID int64, in models.ImageInput) (*models.ProductImage, error) {
	if _, err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}
	url := strings.TrimSpace(in.ImageURL)
	if url == "" {
		return nil, ErrMissingImageURL
	}
	img := &models.ProductImage{ProductID: productID, ImageURL: url, CreatedAt: s.now()}
	if in.DisplayOrder != nil {
		img.DisplayOrder = *in.DisplayOrder
	}
	if err := s.DB.CreateImage(ctx, img); err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}
	return img, nil
}

func (s *Service) DeleteImage(ctx context.Context, productID, id int64) (*models.ProductImage, error) {
	img, err := s.DB.GetImage(ctx, productID, id)
	if err != nil {
		return nil, fmt.Errorf("load image %d: %w", id, err)
	}
	if img == nil {
		return nil, ErrImageNotFound
	}
	if err := s.DB.DeleteImage(ctx, productID, id); err != nil {
		return nil, fmt.Errorf("delete image %d: %w", id, err)
	}
	return img, nil
}

func (s *Service) requireProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.DB.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load product %d: %w", id, err)
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func validMediaType(t string) bool {
	return t == models.MediaTypeImage || t == models.MediaTypeVideo
}

// positiveOrNil treats 0 as "no original price".
func positiveOrNil(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	p := *v
	return &p
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
