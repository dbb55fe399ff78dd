package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sakif/storefront/internal/apperror"
	"github.com/sakif/storefront/internal/imagehost"
	"github.com/sakif/storefront/internal/model"
	"github.com/sakif/storefront/internal/repository"
)

// Catalog paging defaults.
const (
	DefaultPageLimit      = 10
	MaxPageLimit          = 100
	DefaultNewCollections = 8
	DefaultPopularLimit   = 5
	DefaultRelatedTarget  = 8
	imageFolderPrefix     = "E-commerce/Category/"
	defaultImageFolder    = "defaultCategory"
)

// canonicalCategories maps upper-cased input to the canonical display
// form. A fixed table, not state; unrecognized categories pass through
// unchanged.
var canonicalCategories = map[string]string{
	"MEN":   "Men",
	"WOMEN": "Women",
	"KID":   "Kid",
}

// NormalizeCategory returns the canonical capitalization for known
// categories ("MEN" → "Men") and the input unchanged otherwise.
func NormalizeCategory(category string) string {
	if canonical, ok := canonicalCategories[strings.ToUpper(strings.TrimSpace(category))]; ok {
		return canonical
	}
	return category
}

// CatalogService answers read-only catalog queries and handles catalog
// management (add/remove product, image upload). Queries need no auth.
type CatalogService struct {
	products repository.ProductRepository
	sales    repository.SaleRepository
	images   imagehost.Uploader
	logger   *slog.Logger
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(
	products repository.ProductRepository,
	sales repository.SaleRepository,
	images imagehost.Uploader,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		products: products,
		sales:    sales,
		images:   images,
		logger:   logger,
	}
}

// ProductPage is one page of a catalog listing.
type ProductPage struct {
	TotalProducts int             `json:"totalProducts"`
	TotalPages    int             `json:"totalPages"`
	CurrentPage   int             `json:"currentPage"`
	Products      []model.Product `json:"products"`
}

// ListFilter narrows a product listing. Category is normalized before
// matching.
type ListFilter struct {
	Category string
	MinPrice *float64
	MaxPrice *float64
}

// ListProducts returns a filtered, paginated product listing in stable
// creation order.
func (s *CatalogService) ListProducts(ctx context.Context, page, limit int, filter ListFilter) (*ProductPage, error) {
	page, limit = clampPaging(page, limit, DefaultPageLimit)

	repoFilter := repository.ProductFilter{
		MinPrice: filter.MinPrice,
		MaxPrice: filter.MaxPrice,
	}
	if filter.Category != "" {
		repoFilter.Category = NormalizeCategory(filter.Category)
	}

	products, total, err := s.products.ListProducts(ctx, repoFilter, repository.ListOptions{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("service/catalog: listing products: %w", err)
	}

	return &ProductPage{
		TotalProducts: total,
		TotalPages:    (total + limit - 1) / limit,
		CurrentPage:   page,
		Products:      products,
	}, nil
}

// NewCollections returns the most recently created products first.
func (s *CatalogService) NewCollections(ctx context.Context, page, limit int) ([]model.Product, error) {
	page, limit = clampPaging(page, limit, DefaultNewCollections)

	products, err := s.products.ListNewestProducts(ctx, repository.ListOptions{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("service/catalog: listing new collections: %w", err)
	}
	return products, nil
}

// PopularProducts returns products ordered by times purchased.
func (s *CatalogService) PopularProducts(ctx context.Context, limit int) ([]model.Product, error) {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	products, err := s.products.ListPopularProducts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: listing popular products: %w", err)
	}
	return products, nil
}

// RelatedProducts fills a result set of up to target products from three
// progressively weaker relevance tiers:
//
//  1. bought together — products sharing a checkout batch with productID;
//  2. bought by the same users;
//  3. same category.
//
// Each tier is deduplicated against the previous ones, the original
// product never appears, and the concatenation is truncated to target.
func (s *CatalogService) RelatedProducts(ctx context.Context, productID string, target int) ([]model.Product, error) {
	if target <= 0 {
		target = DefaultRelatedTarget
	}

	product, err := s.products.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{productID: true}
	ordered := make([]string, 0, target)
	appendNew := func(ids []string) {
		for _, id := range ids {
			if len(ordered) >= target || seen[id] {
				continue
			}
			seen[id] = true
			ordered = append(ordered, id)
		}
	}

	tier1, err := s.sales.BoughtTogether(ctx, productID, target)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: bought-together tier: %w", err)
	}
	appendNew(tier1)

	if len(ordered) < target {
		tier2, err := s.sales.BoughtBySameUsers(ctx, productID, target)
		if err != nil {
			return nil, fmt.Errorf("service/catalog: same-users tier: %w", err)
		}
		appendNew(tier2)
	}

	if len(ordered) < target {
		tier3, err := s.products.SameCategory(ctx, product.Category, productID, target)
		if err != nil {
			return nil, fmt.Errorf("service/catalog: same-category tier: %w", err)
		}
		appendNew(tier3)
	}

	products, err := s.products.GetProductsByIDs(ctx, ordered)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: loading related products: %w", err)
	}

	// GetProductsByIDs returns creation order; restore tier order.
	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	result := make([]model.Product, 0, len(ordered))
	for _, id := range ordered {
		if p, ok := byID[id]; ok {
			result = append(result, p)
		}
	}

	return result, nil
}

// ProductDetails batch-fetches products by id.
func (s *CatalogService) ProductDetails(ctx context.Context, ids []string) ([]model.Product, error) {
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, apperror.ValidationFailed("ids", "product ids must be provided in a non-empty array")
	}

	products, err := s.products.GetProductsByIDs(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: fetching product details: %w", err)
	}
	if len(products) == 0 {
		return nil, apperror.NotFound("products", strings.Join(cleaned, ","))
	}

	return products, nil
}

// AddProductInput carries the fields of a new catalog entry. Image holds
// the upload stream from the multipart request; it may be nil, in which
// case the product is created without an image URL.
type AddProductInput struct {
	Name        string
	Description string
	Category    string
	NewPrice    float64
	OldPrice    float64
	Stock       int
	Sizes       []string
	Tags        []string
	ImageName   string
	Image       io.Reader
}

// AddProduct uploads the image (if any) to the image host and persists
// the product. The category is stored in canonical form.
func (s *CatalogService) AddProduct(ctx context.Context, in AddProductInput) (*model.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)

	if in.Name == "" {
		return nil, apperror.ValidationFailed("name", "product name is required")
	}
	if in.Category == "" {
		return nil, apperror.ValidationFailed("category", "product category is required")
	}
	if in.NewPrice < 0 || in.OldPrice < 0 {
		return nil, apperror.ValidationFailed("price", "prices must not be negative")
	}
	if in.Stock < 0 {
		return nil, apperror.ValidationFailed("stock", "stock must not be negative")
	}

	var imageURL string
	if in.Image != nil {
		url, err := s.UploadImage(ctx, in.ImageName, in.Image, in.Category)
		if err != nil {
			return nil, err
		}
		imageURL = url
	}

	product := &model.Product{
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Category:    NormalizeCategory(in.Category),
		Image:       imageURL,
		NewPrice:    in.NewPrice,
		OldPrice:    in.OldPrice,
		Stock:       in.Stock,
		Sizes:       in.Sizes,
		Tags:        in.Tags,
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("service/catalog: creating product: %w", err)
	}

	s.logger.Info("product added",
		slog.String("productID", product.ID),
		slog.String("name", product.Name),
		slog.String("category", product.Category),
	)

	return product, nil
}

// RemoveProduct deletes a catalog entry and returns the removed record.
func (s *CatalogService) RemoveProduct(ctx context.Context, id string) (*model.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "product id is required")
	}

	product, err := s.products.DeleteProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("product removed",
		slog.String("productID", product.ID),
		slog.String("name", product.Name),
	)

	return product, nil
}

// UploadImage streams an image to the image host and returns the hosted
// URL. The destination folder is derived from the category.
func (s *CatalogService) UploadImage(ctx context.Context, filename string, content io.Reader, category string) (string, error) {
	folder := defaultImageFolder
	if c := strings.TrimSpace(category); c != "" {
		folder = NormalizeCategory(c)
	}

	url, err := s.images.Upload(ctx, filename, content, imageFolderPrefix+folder)
	if err != nil {
		s.logger.Error("image upload failed",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("service/catalog: uploading image: %w", err)
	}
	return url, nil
}

// clampPaging applies defaults and sane bounds to page/limit pairs.
func clampPaging(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}
