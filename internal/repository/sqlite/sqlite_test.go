package sqlite

import (
	"context"
	"testing"

	"github.com/sakif/storefront/internal/model"
	"github.com/sakif/storefront/internal/repository"
)

// newTestDB opens a throwaway in-memory database with the full schema.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustSeedUser(t *testing.T, db *DB, name, email string) *model.User {
	t.Helper()
	user := &model.User{Name: name, Email: email, PasswordHash: "hash"}
	if err := db.Create(context.Background(), user); err != nil {
		t.Fatalf("seeding user %s: %v", email, err)
	}
	return user
}

func mustSeedProduct(t *testing.T, db *DB, name, category string, price float64, stock int) *model.Product {
	t.Helper()
	p := &model.Product{Name: name, Category: category, NewPrice: price, Stock: stock}
	if err := db.CreateProduct(context.Background(), p); err != nil {
		t.Fatalf("seeding product %s: %v", name, err)
	}
	return p
}

// mustCheckout completes a purchase and fails the test on error.
func mustCheckout(t *testing.T, db *DB, userID string, items ...repository.CheckoutItem) *model.Receipt {
	t.Helper()
	receipt, err := db.CompletePurchase(context.Background(), userID, items)
	if err != nil {
		t.Fatalf("completing purchase for user %s: %v", userID, err)
	}
	return receipt
}

func productStock(t *testing.T, db *DB, id string) int {
	t.Helper()
	p, err := db.GetProductByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reading product %s: %v", id, err)
	}
	return p.Stock
}
