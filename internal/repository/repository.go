// Package repository defines the storage interfaces the services depend
// on. The sqlite subpackage provides the production implementation; tests
// substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/storefront/internal/model"
)

// ListOptions is a limit/offset pagination window.
type ListOptions struct {
	Limit  int
	Offset int
}

// ProductFilter narrows a catalog listing. The zero value matches
// everything; nil price bounds are open-ended.
type ProductFilter struct {
	Category string
	MinPrice *float64
	MaxPrice *float64
}

// CheckoutItem is one line of a checkout batch.
type CheckoutItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// UserRepository persists user identities and credentials.
type UserRepository interface {
	// Create inserts a new user, filling ID and CreatedAt. A duplicate
	// email returns apperror.Conflict.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByEmail returns apperror.NotFound when no user has the email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// CartRepository mutates a user's cart. All mutations are single-statement
// atomic operations keyed by (user, product) — never read-modify-write of
// the whole cart — so concurrent requests cannot lose updates.
type CartRepository interface {
	// AddItem inserts a line or atomically increments an existing one.
	AddItem(ctx context.Context, userID, productID string, quantity int) error
	// SetQuantity sets a line exactly, creating it if absent.
	SetQuantity(ctx context.Context, userID, productID string, quantity int) error
	// RemoveItem deletes a line. Absent lines are a no-op, not an error.
	RemoveItem(ctx context.Context, userID, productID string) error
	// GetCart returns the cart lines in insertion order.
	GetCart(ctx context.Context, userID string) ([]model.CartLine, error)
}

// ProductRepository persists catalog entries. Method names carry the
// Product prefix because the sqlite implementation satisfies every store
// interface with a single type.
type ProductRepository interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	GetProductByID(ctx context.Context, id string) (*model.Product, error)
	// GetProductsByIDs fetches every existing product among ids; missing
	// ids are simply absent from the result.
	GetProductsByIDs(ctx context.Context, ids []string) ([]model.Product, error)
	// DeleteProduct removes a product and returns the deleted record.
	DeleteProduct(ctx context.Context, id string) (*model.Product, error)
	// ListProducts returns a filtered page in stable creation order plus
	// the total count matching the filter.
	ListProducts(ctx context.Context, filter ProductFilter, opts ListOptions) ([]model.Product, int, error)
	// ListNewestProducts returns a page ordered most-recently-created first.
	ListNewestProducts(ctx context.Context, opts ListOptions) ([]model.Product, error)
	// ListPopularProducts returns products ordered by times purchased,
	// descending.
	ListPopularProducts(ctx context.Context, limit int) ([]model.Product, error)
	// SameCategory returns ids of products in the category, excluding
	// excludeID, in stable creation order.
	SameCategory(ctx context.Context, category, excludeID string, limit int) ([]string, error)
}

// SaleRepository reads the append-only sale ledger. Writes happen only
// through CheckoutStore.
type SaleRepository interface {
	// BoughtTogether returns ids of products that share a checkout batch
	// with productID, most frequent first.
	BoughtTogether(ctx context.Context, productID string, limit int) ([]string, error)
	// BoughtBySameUsers returns ids of other products bought by users who
	// bought productID, most frequent first.
	BoughtBySameUsers(ctx context.Context, productID string, limit int) ([]string, error)
	// ListSalesByUser returns a user's sales, newest first.
	ListSalesByUser(ctx context.Context, userID string, opts ListOptions) ([]model.Sale, error)
}

// CheckoutStore converts a checkout batch into ledger entries.
//
// The whole batch runs in one transaction: every line decrements stock
// (only when sufficient), increments the purchase counter, and appends a
// Sale row — or none of that happens. Purchased lines are removed from
// the user's cart in the same transaction.
type CheckoutStore interface {
	CompletePurchase(ctx context.Context, userID string, items []CheckoutItem) (*model.Receipt, error)
}
