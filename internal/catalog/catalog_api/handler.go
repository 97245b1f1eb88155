package catalog_api

import (
	"fmt"
	"net/http"
	"strconv"

	"storefront/internal/catalog"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/utils"

	"github.com/go-chi/chi/v5"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

var (
	errInvalidID        = utils.BadRequest("INVALID_ID", "Valid ID is required")
	errInvalidProductID = utils.BadRequest("INVALID_PRODUCT_ID", "Valid product ID is required")
	errInvalidSizeID    = utils.BadRequest("INVALID_SIZE_ID", "Valid size ID is required")
	errInvalidQuery     = utils.BadRequest("INVALID_QUERY", "limit, offset and category must be non-negative integers")
)

type Handler struct {
	Service *catalog.Service
	Logger  *logger.Logger
}

func NewHandler(service *catalog.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// RegisterPublicRoutes → storefront browsing
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/api/categories", h.ListCategories)
	r.Get("/api/products", h.ListProducts)
	r.Get("/api/products/slug/{slug}", h.GetProductBySlug)
	r.Get("/api/products/{id}", h.GetProduct)
	r.Get("/api/products/{id}/availability", h.GetAvailability)
	r.Get("/api/products/{id}/variants", h.ListVariants)
	r.Get("/api/products/{id}/sizes", h.ListSizes)
	r.Get("/api/products/{id}/images", h.ListImages)
}

// RegisterTeamRoutes → catalog management, mounted behind team auth.
// Paths are flat because the public group shares them.
func (h *Handler) RegisterTeamRoutes(r chi.Router) {
	r.Post("/api/categories", h.CreateCategory)
	r.Post("/api/products", h.CreateProduct)
	r.Put("/api/products", h.UpdateProduct)
	r.Put("/api/products/{id}", h.UpdateProduct)
	r.Delete("/api/products", h.DeleteProduct)
	r.Delete("/api/products/{id}", h.DeleteProduct)
	r.Put("/api/products/{id}/availability", h.ToggleAvailability)

	r.Post("/api/products/{id}/variants", h.CreateVariant)
	r.Put("/api/products/{id}/variants", h.UpdateVariant)
	r.Delete("/api/products/{id}/variants", h.DeleteVariant)

	r.Post("/api/products/{id}/sizes", h.CreateSize)
	r.Delete("/api/products/{id}/sizes", h.DeleteSize)

	r.Post("/api/products/{id}/images", h.CreateImage)
	r.Delete("/api/products/{id}/images", h.DeleteImage)
}

// ---------------- CATEGORIES ----------------

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.ListCategories(r.Context())
	if err != nil {
		utils.Fail(w, h.Logger, "ListCategories", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, categories)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in models.CategoryInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.Fail(w, h.Logger, "CreateCategory", utils.ErrInvalidBody)
		return
	}
	c, err := h.Service.CreateCategory(r.Context(), in)
	if err != nil {
		utils.Fail(w, h.Logger, "CreateCategory", err)
		return
	}
	h.Logger.Info("CATALOG", fmt.Sprintf("Category %q created", c.Slug))
	utils.WriteJSON(w, http.StatusCreated, c)
}

// ---------------- PRODUCTS ----------------

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	f, err := parseProductFilter(r)
	if err != nil {
		utils.Fail(w, h.Logger, "ListProducts", err)
		return
	}
	products, err := h.Service.ListProducts(r.Context(), f)
	if err != nil {
		utils.Fail(w, h.Logger, "ListProducts", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, products)
}

func parseProductFilter(r *http.Request) (models.ProductFilter, error) {
	q := r.URL.Query()
	f := models.ProductFilter{Search: q.Get("search")}

	limit, err := utils.QueryInt(r, "limit", defaultPageSize)
	if err != nil || limit < 0 {
		return f, errInvalidQuery
	}
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	f.Limit = limit

	offset, err := utils.QueryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		return f, errInvalidQuery
	}
	f.Offset = offset

	category, err := utils.QueryInt(r, "category", 0)
	if err != nil || category < 0 {
		return f, errInvalidQuery
	}
	f.CategoryID = int64(category)

	if raw := q.Get("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			return f, errInvalidQuery
		}
		f.Available = &available
	}
	return f, nil
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := utils.URLParamID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "GetProduct", errInvalidID)
		return
	}
	p, err := h.Service.GetProduct(r.Context(), id)
	if err != nil {
		utils.Fail(w, h.Logger, "GetProduct", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

// productID reads /api/products/{id} or /api/products?id=.
func productID(r *http.Request) (int64, error) {
	if raw := chi.URLParam(r, "id"); raw != "" {
		return utils.ParseID(raw)
	}
	return utils.QueryID(r, "id")
}

func (h *Handler) GetProductBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetProductBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		utils.Fail(w, h.Logger, "GetProductBySlug", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in models.ProductInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.Fail(w, h.Logger, "CreateProduct", utils.ErrInvalidBody)
		return
	}
	p, err := h.Service.CreateProduct(r.Context(), in)
	if err != nil {
		utils.Fail(w, h.Logger, "CreateProduct", err)
		return
	}
	h.Logger.Info("CATALOG", fmt.Sprintf("Product %d (%s) created", p.ID, p.Slug))
	utils.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		utils.Fail(w, h.Logger, "UpdateProduct", errInvalidID)
		return
	}
	var in models.ProductInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.Fail(w, h.Logger, "UpdateProduct", utils.ErrInvalidBody)
		return
	}
	p, err := h.Service.UpdateProduct(r.Context(), id, in)
	if err != nil {
		utils.Fail(w, h.Logger, "UpdateProduct", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		utils.Fail(w, h.Logger, "DeleteProduct", errInvalidID)
		return
	}
	p, err := h.Service.DeleteProduct(r.Context(), id)
	if err != nil {
		utils.Fail(w, h.Logger, "DeleteProduct", err)
		return
	}
	h.Logger.Info("CATALOG", fmt.Sprintf("Product %d deleted", id))
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Product deleted successfully",
		"product": p,
	})
}

func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := utils.URLParamID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "GetAvailability", errInvalidID)
		return
	}
	a, err := h.Service.GetAvailability(r.Context(), id)
	if err != nil {
		utils.Fail(w, h.Logger, "GetAvailability", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) ToggleAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := utils.URLParamID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "ToggleAvailability", errInvalidID)
		return
	}
	p, err := h.Service.ToggleAvailability(r.Context(), id)
	if err != nil {
		utils.Fail(w, h.Logger, "ToggleAvailability", err)
		return
	}
	h.Logger.Info("CATALOG", fmt.Sprintf("Product %d availability set to %t", id, p.IsAvailable))
	utils.WriteJSON(w, http.StatusOK, p)
}

// ---------------- VARIANTS ----------------

func (h *Handler) ListVariants(w http.ResponseWriter, r *http.Request) {
	productID, err := utils.URLParamID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "ListVariants", errInvalidProductID)
		return
	}
	variants, err := h.Service.ListVariants(r.Context(), productID)
	if err != nil {
		utils.Fail(w, h.Logger, "ListVariants", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, variants)
}

func (h *Handler) CreateVariant(w http.ResponseWriter, r *http.Request) {
	productID, err := utils.URLParamID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "CreateVariant", errInvalidProductID)
		return
	}
	var in models.VariantInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.Fail(w, h.Logger, "CreateVariant", utils.ErrInvalidBody)
		return
	}
	v, err := h.Service.CreateVariant(r.Context(), productID, in)
	if err != nil {
		utils.Fail(w, h.Logger, "CreateVariant", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, v)
}

func (h *Handler) UpdateVariant(w http.ResponseWriter, r *http.Request) {
	productID, err := utils.URLParamID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "UpdateVariant", errInvalidProductID)
		return
	}
	variantID, err := utils.QueryID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "UpdateVariant", utils.BadRequest("INVALID_ID", "Valid variant ID is required"))
		return
	}
	var in models.VariantInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.Fail(w, h.Logger, "UpdateVariant", utils.ErrInvalidBody)
		return
	}
	v, err := h.Service.UpdateVariant(r.Context(), productID, variantID, in)
	if err != nil {
		utils.Fail(w, h.Logger, "UpdateVariant", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) DeleteVariant(w http.ResponseWriter, r *http.Request) {
	productID, err := utils.URLParamID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "DeleteVariant", errInvalidProductID)
		return
	}
	variantID, err := utils.QueryID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "DeleteVariant", utils.BadRequest("INVALID_ID", "Valid variant ID is required"))
		return
	}
	v, err := h.Service.DeleteVariant(r.Context(), productID, variantID)
	if err != nil {
		utils.Fail(w, h.Logger, "DeleteVariant", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Variant deleted successfully",
		"variant": v,
	})
}

// ---------------- SIZES ----------------

func (h *Handler) ListSizes(w http.ResponseWriter, r *http.Request) {
	productID, err := utils.URLParamID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "ListSizes", errInvalidProductID)
		return
	}
	sizes, err := h.Service.ListSizes(r.Context(), productID)
	if err != nil {
		utils.Fail(w, h.Logger, "ListSizes", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, sizes)
}

func (h *Handler) CreateSize(w http.ResponseWriter, r *http.Request) {
	productID, err := utils.URLParamID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "CreateSize", errInvalidProductID)
		return
	}
	var in models.SizeInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.Fail(w, h.Logger, "CreateSize", utils.ErrInvalidBody)
		return
	}
	s, err := h.Service.CreateSize(r.Context(), productID, in)
	if err != nil {
		utils.Fail(w, h.Logger, "CreateSize", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, s)
}

func (h *Handler) DeleteSize(w http.ResponseWriter, r *http.Request) {
	productID, err := utils.URLParamID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "DeleteSize", errInvalidProductID)
		return
	}
	sizeID, err := utils.QueryID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "DeleteSize", errInvalidSizeID)
		return
	}
	s, err := h.Service.DeleteSize(r.Context(), productID, sizeID)
	if err != nil {
		utils.Fail(w, h.Logger, "DeleteSize", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Size deleted successfully",
		"deleted": s,
	})
}

// ---------------- IMAGES ----------------

func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	productID, err := utils.URLParamID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "ListImages", errInvalidProductID)
		return
	}
	images, err := h.Service.ListImages(r.Context(), productID)
	if err != nil {
		utils.Fail(w, h.Logger, "ListImages", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, images)
}

func (h *Handler) CreateImage(w http.ResponseWriter, r *http.Request) {
	productID, err := utils.URLParamID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "CreateImage", errInvalidProductID)
		return
	}
	var in models.ImageInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.Fail(w, h.Logger, "CreateImage", utils.ErrInvalidBody)
		return
	}
	img, err := h.Service.CreateImage(r.Context(), productID, in)
	if err != nil {
		utils.Fail(w, h.Logger, "CreateImage", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, img)
}

func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	productID, err := utils.URLParamID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "DeleteImage", errInvalidProductID)
		return
	}
	imageID, err := utils.QueryID(r, "id")
	if err != nil {
		utils.Fail(w, h.Logger, "DeleteImage", utils.BadRequest("INVALID_ID", "Valid image ID is required"))
		return
	}
	img, err := h.Service.DeleteImage(r.Context(), productID, imageID)
	if err != nil {
		utils.Fail(w, h.Logger, "DeleteImage", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Image deleted successfully",
		"image":   img,
	})
}
