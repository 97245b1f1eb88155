package cart

import (
	"context"
	"fmt"
	"math"
	"strings"

	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/utils"
)

var (
	ErrEmptyCart          = utils.BadRequest("EMPTY_CART", "Cart is empty")
	ErrInvalidQuantity    = utils.BadRequest("INVALID_QUANTITY", "Quantity must be at least 1")
	ErrProductUnavailable = utils.BadRequest("PRODUCT_UNAVAILABLE", "Product is not available")
	ErrInsufficientStock  = utils.BadRequest("INSUFFICIENT_STOCK", "Not enough stock")
	ErrInvalidSize        = utils.BadRequest("INVALID_SIZE", "Size is not offered for this product")
)

// ProductSource loads a product with its variants, sizes and images. Nil when missing.
type ProductSource interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
}

type Pricing struct {
	ShippingFee           float64
	FreeShippingThreshold float64
}

type Line struct {
	ProductID   int64    `json:"productId"`
	VariantID   *int64   `json:"variantId,omitempty"`
	ProductName string   `json:"productName"`
	Variant     *string  `json:"variant"`
	Size        *string  `json:"size"`
	Quantity    int      `json:"quantity"`
	UnitPrice   float64  `json:"unitPrice"`
	LineTotal   float64  `json:"lineTotal"`
	ImageURL    *string  `json:"imageUrl"`
	Original    *float64 `json:"originalPrice,omitempty"`
}

type Quote struct {
	Items    []Line  `json:"items"`
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

// Snapshot converts the priced lines into order items.
func (q *Quote) Snapshot() []*models.OrderItem {
	items := make([]*models.OrderItem, 0, len(q.Items))
	for _, l := range q.Items {
		items = append(items, &models.OrderItem{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Variant:     l.Variant,
			Size:        l.Size,
			Quantity:    l.Quantity,
			Price:       l.UnitPrice,
			ImageURL:    l.ImageURL,
		})
	}
	return items
}

type Service struct {
	Products ProductSource
	Pricing  Pricing
}

func NewService(products ProductSource, pricing Pricing) *Service {
	return &Service{Products: products, Pricing: pricing}
}

type stockKey struct {
	productID int64
	variantID int64
}

// Quote prices the cart against current catalog data. Stock is checked against
// the summed quantity of every line that draws from the same product or variant.
func (s *Service) Quote(ctx context.Context, lines []models.CartLine) (*Quote, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	products := map[int64]*models.Product{}
	demand := map[stockKey]int{}
	available := map[stockKey]int{}
	q := &Quote{Items: make([]Line, 0, len(lines))}

	for _, cl := range lines {
		if cl.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}

		p, ok := products[cl.ProductID]
		if !ok {
			var err error
			p, err = s.Products.GetProduct(ctx, cl.ProductID)
			if err != nil {
				return nil, fmt.Errorf("load product %d: %w", cl.ProductID, err)
			}
			if p == nil {
				return nil, fmt.Errorf("product %d: %w", cl.ProductID, catalog.ErrProductNotFound)
			}
			products[cl.ProductID] = p
		}
		if !p.IsAvailable {
			return nil, fmt.Errorf("%s: %w", p.Name, ErrProductUnavailable)
		}

		line := Line{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    cl.Quantity,
			UnitPrice:   p.Price,
			Original:    p.OriginalPrice,
			ImageURL:    primaryImage(p),
		}
		key := stockKey{productID: p.ID}
		available[key] = p.Stock

		if cl.VariantID != nil {
			v := findVariant(p, *cl.VariantID)
			if v == nil {
				return nil, fmt.Errorf("variant %d: %w", *cl.VariantID, catalog.ErrVariantNotFound)
			}
			if !v.IsAvailable {
				return nil, fmt.Errorf("%s %s: %w", p.Name, v.Name, ErrProductUnavailable)
			}
			name := v.Name
			line.VariantID = &v.ID
			line.Variant = &name
			line.UnitPrice = v.Price
			line.Original = v.OriginalPrice
			key = stockKey{productID: p.ID, variantID: v.ID}
			available[key] = v.Stock
		}

		if cl.Size != nil && strings.TrimSpace(*cl.Size) != "" {
			size := strings.TrimSpace(*cl.Size)
			if len(p.Sizes) > 0 && !hasSize(p, size) {
				return nil, fmt.Errorf("size %q: %w", size, ErrInvalidSize)
			}
			line.Size = &size
		}

		demand[key] += cl.Quantity
		if demand[key] > available[key] {
			return nil, fmt.Errorf("%s: %w", p.Name, ErrInsufficientStock)
		}

		line.LineTotal = roundMoney(line.UnitPrice * float64(cl.Quantity))
		q.Subtotal += line.LineTotal
		q.Items = append(q.Items, line)
	}

	q.Subtotal = roundMoney(q.Subtotal)
	q.Shipping = s.shippingFor(q.Subtotal)
	q.Total = roundMoney(q.Subtotal + q.Shipping)
	return q, nil
}

func (s *Service) shippingFor(subtotal float64) float64 {
	if s.Pricing.FreeShippingThreshold > 0 && subtotal >= s.Pricing.FreeShippingThreshold {
		return 0
	}
	return roundMoney(s.Pricing.ShippingFee)
}

// primaryImage is the lowest displayOrder image, falling back to the product media.
func primaryImage(p *models.Product) *string {
	var best *models.ProductImage
	for _, img := range p.Images {
		if best == nil || img.DisplayOrder < best.DisplayOrder {
			best = img
		}
	}
	if best != nil {
		url := best.ImageURL
		return &url
	}
	if p.MediaSrc == "" {
		return nil
	}
	src := p.MediaSrc
	if p.MediaType == models.MediaTypeVideo && p.MediaPoster != nil {
		src = *p.MediaPoster
	}
	return &src
}

func findVariant(p *models.Product, id int64) *models.ProductVariant {
	for _, v := range p.Variants {
		if v.ID == id {
			return v
		}
	}
	return nil
}

func hasSize(p *models.Product, size string) bool {
	for _, s := range p.Sizes {
		if strings.EqualFold(s.Size, size) {
			return true
		}
	}
	return false
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
