package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/storefront/internal/apperror"
	"github.com/sakif/storefront/internal/service"
)

// maxUploadBytes caps multipart request memory for product images.
const maxUploadBytes = 10 << 20 // 10 MiB

// CatalogHandler serves product listing, discovery, and catalog
// management routes.
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// HandleAllProducts returns a filtered, paginated listing.
//
// HTTP: GET /products/allproducts?page&limit&category&minPrice&maxPrice
func (h *CatalogHandler) HandleAllProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := service.ListFilter{Category: q.Get("category")}

	var err error
	if filter.MinPrice, err = parsePriceParam(q.Get("minPrice")); err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("minPrice", "minPrice must be a number"))
		return
	}
	if filter.MaxPrice, err = parsePriceParam(q.Get("maxPrice")); err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("maxPrice", "maxPrice must be a number"))
		return
	}

	page := parseIntParam(q.Get("page"), 1)
	limit := parseIntParam(q.Get("limit"), service.DefaultPageLimit)

	result, err := h.catalog.ListProducts(r.Context(), page, limit, filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleNewCollections returns the newest products first.
//
// HTTP: GET /products/newcollections?page&limit
func (h *CatalogHandler) HandleNewCollections(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parseIntParam(q.Get("page"), 1)
	limit := parseIntParam(q.Get("limit"), service.DefaultNewCollections)

	products, err := h.catalog.NewCollections(r.Context(), page, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// HandlePopularProducts returns the most purchased products.
//
// HTTP: GET /products/popularproducts?limit
func (h *CatalogHandler) HandlePopularProducts(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r.URL.Query().Get("limit"), service.DefaultPopularLimit)

	products, err := h.catalog.PopularProducts(r.Context(), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// HandleRelatedProducts returns up to 8 products related to the one in
// the URL, strongest signal first.
//
// HTTP: GET /products/relatedproducts/{productId}
func (h *CatalogHandler) HandleRelatedProducts(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	products, err := h.catalog.RelatedProducts(r.Context(), productID, service.DefaultRelatedTarget)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// HandleProductDetails batch-fetches products by id.
//
// HTTP: POST /products/details {ids: [..]}
func (h *CatalogHandler) HandleProductDetails(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	products, err := h.catalog.ProductDetails(r.Context(), req.IDs)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// HandleAddProduct creates a product from a multipart form, uploading the
// attached image to the image host first.
//
// HTTP: POST /products/addproduct (multipart: image + fields)
func (h *CatalogHandler) HandleAddProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("body", "invalid multipart form"))
		return
	}

	in := service.AddProductInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Sizes:       splitCSV(r.FormValue("sizes")),
		Tags:        splitCSV(r.FormValue("tags")),
	}

	var err error
	if in.NewPrice, err = parseFloatField(r.FormValue("new_price")); err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("new_price", "new_price must be a number"))
		return
	}
	if in.OldPrice, err = parseFloatField(r.FormValue("old_price")); err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("old_price", "old_price must be a number"))
		return
	}
	if stockStr := r.FormValue("stock"); stockStr != "" {
		if in.Stock, err = strconv.Atoi(stockStr); err != nil {
			writeError(w, h.logger, apperror.ValidationFailed("stock", "stock must be an integer"))
			return
		}
	}

	if file, header, ferr := r.FormFile("image"); ferr == nil {
		defer file.Close()
		in.Image = file
		in.ImageName = header.Filename
	}

	product, err := h.catalog.AddProduct(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"product": product,
	})
}

// HandleUploadImage uploads an image without creating a product.
//
// HTTP: POST /products/upload (multipart: image, optional category)
func (h *CatalogHandler) HandleUploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("body", "invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("image", "No file uploaded."))
		return
	}
	defer file.Close()

	url, err := h.catalog.UploadImage(r.Context(), header.Filename, file, r.FormValue("category"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "File uploaded successfully",
		"image":   url,
	})
}

// HandleRemoveProduct deletes a product by id.
//
// HTTP: POST /products/removeproduct {_id} (or {id})
func (h *CatalogHandler) HandleRemoveProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MongoID string `json:"_id"`
		ID      string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	id := req.MongoID
	if id == "" {
		id = req.ID
	}

	product, err := h.catalog.RemoveProduct(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"name":    product.Name,
	})
}

func parseIntParam(raw string, def int) int {
	if raw == "" {
		return def
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	return def
}

func parsePriceParam(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseFloatField(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
