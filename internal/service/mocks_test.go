package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/sakif/storefront/internal/apperror"
	"github.com/sakif/storefront/internal/model"
	"github.com/sakif/storefront/internal/repository"
)

// memStore is an in-memory implementation of every repository interface,
// shared by the service tests in this package. It mirrors the real
// store's contracts: conflict on duplicate email, not-found sentinels,
// atomic all-or-nothing checkout.
type memStore struct {
	users        map[string]*model.User
	products     map[string]*model.Product
	productOrder []string
	carts        map[string]map[string]int // userID → productID → quantity
	cartOrder    map[string][]string
	sales        []model.Sale

	// preset answers for the ledger queries
	together  map[string][]string
	sameUsers map[string][]string

	nextID int
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[string]*model.User),
		products:  make(map[string]*model.Product),
		carts:     make(map[string]map[string]int),
		cartOrder: make(map[string][]string),
		together:  make(map[string][]string),
		sameUsers: make(map[string][]string),
	}
}

func (m *memStore) genID(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

// --- UserRepository ---

func (m *memStore) Create(_ context.Context, user *model.User) error {
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return apperror.Conflict("email", "existing user found with this email")
		}
	}
	user.ID = m.genID("user")
	user.CreatedAt = time.Now()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copy := *u
	return &copy, nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

// --- ProductRepository ---

func (m *memStore) CreateProduct(_ context.Context, p *model.Product) error {
	p.ID = m.genID("prod")
	p.CreatedAt = time.Now()
	stored := *p
	m.products[p.ID] = &stored
	m.productOrder = append(m.productOrder, p.ID)
	return nil
}

func (m *memStore) GetProductByID(_ context.Context, id string) (*model.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, apperror.NotFound("product", id)
	}
	copy := *p
	return &copy, nil
}

func (m *memStore) GetProductsByIDs(_ context.Context, ids []string) ([]model.Product, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	result := []model.Product{}
	for _, id := range m.productOrder {
		if want[id] {
			result = append(result, *m.products[id])
		}
	}
	return result, nil
}

func (m *memStore) DeleteProduct(_ context.Context, id string) (*model.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, apperror.NotFound("product", id)
	}
	delete(m.products, id)
	for i, pid := range m.productOrder {
		if pid == id {
			m.productOrder = append(m.productOrder[:i], m.productOrder[i+1:]...)
			break
		}
	}
	copy := *p
	return &copy, nil
}

func (m *memStore) ListProducts(_ context.Context, filter repository.ProductFilter, opts repository.ListOptions) ([]model.Product, int, error) {
	matched := []model.Product{}
	for _, id := range m.productOrder {
		p := m.products[id]
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.MinPrice != nil && p.NewPrice < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && p.NewPrice > *filter.MaxPrice {
			continue
		}
		matched = append(matched, *p)
	}

	total := len(matched)
	if opts.Offset >= len(matched) {
		return []model.Product{}, total, nil
	}
	matched = matched[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return matched, total, nil
}

func (m *memStore) ListNewestProducts(_ context.Context, opts repository.ListOptions) ([]model.Product, error) {
	result := []model.Product{}
	for i := len(m.productOrder) - 1; i >= 0; i-- {
		result = append(result, *m.products[m.productOrder[i]])
	}
	if opts.Offset >= len(result) {
		return []model.Product{}, nil
	}
	result = result[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (m *memStore) ListPopularProducts(_ context.Context, limit int) ([]model.Product, error) {
	result := []model.Product{}
	for _, id := range m.productOrder {
		result = append(result, *m.products[id])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TimesPurchased > result[j].TimesPurchased
	})
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (m *memStore) SameCategory(_ context.Context, category, excludeID string, limit int) ([]string, error) {
	ids := []string{}
	for _, id := range m.productOrder {
		if id == excludeID || m.products[id].Category != category {
			continue
		}
		ids = append(ids, id)
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}

// --- CartRepository ---

func (m *memStore) AddItem(_ context.Context, userID, productID string, quantity int) error {
	cart := m.carts[userID]
	if cart == nil {
		cart = make(map[string]int)
		m.carts[userID] = cart
	}
	if _, exists := cart[productID]; !exists {
		m.cartOrder[userID] = append(m.cartOrder[userID], productID)
	}
	cart[productID] += quantity
	return nil
}

func (m *memStore) SetQuantity(_ context.Context, userID, productID string, quantity int) error {
	cart := m.carts[userID]
	if cart == nil {
		cart = make(map[string]int)
		m.carts[userID] = cart
	}
	if _, exists := cart[productID]; !exists {
		m.cartOrder[userID] = append(m.cartOrder[userID], productID)
	}
	cart[productID] = quantity
	return nil
}

func (m *memStore) RemoveItem(_ context.Context, userID, productID string) error {
	cart := m.carts[userID]
	if cart == nil {
		return nil
	}
	if _, exists := cart[productID]; !exists {
		return nil
	}
	delete(cart, productID)
	order := m.cartOrder[userID]
	for i, id := range order {
		if id == productID {
			m.cartOrder[userID] = append(order[:i], order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memStore) GetCart(_ context.Context, userID string) ([]model.CartLine, error) {
	lines := []model.CartLine{}
	for _, productID := range m.cartOrder[userID] {
		lines = append(lines, model.CartLine{
			ProductID: productID,
			Quantity:  m.carts[userID][productID],
		})
	}
	return lines, nil
}

// --- SaleRepository ---

func (m *memStore) BoughtTogether(_ context.Context, productID string, limit int) ([]string, error) {
	return capIDs(m.together[productID], limit), nil
}

func (m *memStore) BoughtBySameUsers(_ context.Context, productID string, limit int) ([]string, error) {
	return capIDs(m.sameUsers[productID], limit), nil
}

func (m *memStore) ListSalesByUser(_ context.Context, userID string, _ repository.ListOptions) ([]model.Sale, error) {
	result := []model.Sale{}
	for _, s := range m.sales {
		if s.UserID == userID {
			result = append(result, s)
		}
	}
	return result, nil
}

func capIDs(ids []string, limit int) []string {
	if limit > 0 && limit < len(ids) {
		return ids[:limit]
	}
	return ids
}

// --- CheckoutStore ---

// CompletePurchase applies the batch all-or-nothing: every line is
// checked before any mutation happens, matching the real store's
// transactional behavior.
func (m *memStore) CompletePurchase(_ context.Context, userID string, items []repository.CheckoutItem) (*model.Receipt, error) {
	for _, item := range items {
		p, ok := m.products[item.ProductID]
		if !ok {
			return nil, apperror.NotFound("product", item.ProductID)
		}
		if p.Stock < item.Quantity {
			return nil, apperror.InsufficientStock(item.ProductID, p.Stock, item.Quantity)
		}
	}

	receipt := &model.Receipt{CheckoutID: m.genID("checkout")}
	for _, item := range items {
		p := m.products[item.ProductID]
		p.Stock -= item.Quantity
		p.TimesPurchased += item.Quantity

		saleID := m.genID("sale")
		m.sales = append(m.sales, model.Sale{
			ID:         saleID,
			CheckoutID: receipt.CheckoutID,
			UserID:     userID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			Price:      item.Price,
			CreatedAt:  time.Now(),
		})
		_ = m.RemoveItem(context.Background(), userID, item.ProductID)

		receipt.SaleIDs = append(receipt.SaleIDs, saleID)
		receipt.Total += item.Price * float64(item.Quantity)
	}
	return receipt, nil
}

// --- shared test helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// seedUser creates a user directly in the store.
func seedUser(t *testing.T, store *memStore, name, email string) *model.User {
	t.Helper()
	user := &model.User{Name: name, Email: email, PasswordHash: "x"}
	if err := store.Create(context.Background(), user); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return user
}

// seedProduct creates a product with the given category, price, and stock.
func seedProduct(t *testing.T, store *memStore, name, category string, price float64, stock int) *model.Product {
	t.Helper()
	p := &model.Product{Name: name, Category: category, NewPrice: price, Stock: stock}
	if err := store.CreateProduct(context.Background(), p); err != nil {
		t.Fatalf("seeding product: %v", err)
	}
	return p
}

// nopUploader satisfies imagehost.Uploader for catalog tests.
type nopUploader struct {
	url string
	err error
}

func (u nopUploader) Upload(_ context.Context, filename string, r io.Reader, folder string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	if u.url != "" {
		return u.url, nil
	}
	return "https://img.example/" + strings.TrimSpace(folder) + "/" + filename, nil
}
