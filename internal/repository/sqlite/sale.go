package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/storefront/internal/apperror"
	"github.com/sakif/storefront/internal/model"
	"github.com/sakif/storefront/internal/repository"
)

// compile-time checks
var (
	_ repository.SaleRepository = (*DB)(nil)
	_ repository.CheckoutStore  = (*DB)(nil)
)

// CompletePurchase converts a checkout batch into ledger entries inside a
// single transaction.
//
// Per line: a conditional UPDATE decrements stock and bumps the purchase
// counter only when enough stock remains; zero rows affected means the
// product is either unknown or short on stock, and the whole transaction
// rolls back — items 1..N-1 are undone with it. Sale rows are inserted
// sharing one checkout id, and the purchased lines leave the user's cart
// in the same transaction. After a failure no partial state is
// observable.
//
// The decrement-if-sufficient form (not read-then-write) is what keeps
// stock non-negative under concurrent checkouts of the same product: the
// row lock serializes the two updates and the loser's WHERE clause no
// longer matches.
func (db *DB) CompletePurchase(ctx context.Context, userID string, items []repository.CheckoutItem) (*model.Receipt, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning checkout transaction: %w", err)
	}
	defer tx.Rollback()

	receipt := &model.Receipt{
		CheckoutID: xid.New().String(),
		SaleIDs:    make([]string, 0, len(items)),
	}
	now := time.Now().UTC()

	for _, item := range items {
		res, err := tx.ExecContext(ctx,
			`UPDATE products
			 SET stock = stock - ?, times_purchased = times_purchased + ?
			 WHERE id = ? AND stock >= ?`,
			item.Quantity, item.Quantity, item.ProductID, item.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: decrementing stock for %s: %w", item.ProductID, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("sqlite: checking stock decrement for %s: %w", item.ProductID, err)
		}
		if affected == 0 {
			return nil, db.classifyStockFailure(ctx, tx, item)
		}

		saleID := xid.New().String()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sales (id, checkout_id, user_id, product_id, quantity, price, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			saleID, receipt.CheckoutID, userID, item.ProductID, item.Quantity, item.Price, now,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: inserting sale for %s: %w", item.ProductID, err)
		}

		// The purchased line leaves the cart atomically with the sale.
		_, err = tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE user_id = ? AND product_id = ?`,
			userID, item.ProductID,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: clearing cart line for %s: %w", item.ProductID, err)
		}

		receipt.SaleIDs = append(receipt.SaleIDs, saleID)
		receipt.Total += item.Price * float64(item.Quantity)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing checkout: %w", err)
	}

	return receipt, nil
}

// classifyStockFailure tells an unknown product apart from one that is
// short on stock, reading within the failed transaction for a consistent
// view.
func (db *DB) classifyStockFailure(ctx context.Context, tx *sql.Tx, item repository.CheckoutItem) error {
	var stock int
	err := tx.QueryRowContext(ctx,
		`SELECT stock FROM products WHERE id = ?`, item.ProductID,
	).Scan(&stock)
	if err == sql.ErrNoRows {
		return apperror.NotFound("product", item.ProductID)
	}
	if err != nil {
		return fmt.Errorf("sqlite: inspecting stock for %s: %w", item.ProductID, err)
	}
	return apperror.InsufficientStock(item.ProductID, stock, item.Quantity)
}

// BoughtTogether returns ids of products sharing a checkout batch with
// productID, most frequently co-purchased first. Ties break on product id
// so the ordering is deterministic.
func (db *DB) BoughtTogether(ctx context.Context, productID string, limit int) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT s2.product_id
		 FROM sales s1
		 JOIN sales s2 ON s2.checkout_id = s1.checkout_id
		                AND s2.product_id != s1.product_id
		 WHERE s1.product_id = ?
		 GROUP BY s2.product_id
		 ORDER BY COUNT(*) DESC, s2.product_id
		 LIMIT ?`,
		productID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: bought-together query for %s: %w", productID, err)
	}
	defer rows.Close()

	return collectIDs(rows)
}

// BoughtBySameUsers returns ids of other products purchased by users who
// bought productID, most frequent first.
func (db *DB) BoughtBySameUsers(ctx context.Context, productID string, limit int) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT s2.product_id
		 FROM sales s1
		 JOIN sales s2 ON s2.user_id = s1.user_id
		                AND s2.product_id != s1.product_id
		 WHERE s1.product_id = ?
		 GROUP BY s2.product_id
		 ORDER BY COUNT(*) DESC, s2.product_id
		 LIMIT ?`,
		productID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: bought-by-same-users query for %s: %w", productID, err)
	}
	defer rows.Close()

	return collectIDs(rows)
}

// ListSalesByUser returns a user's ledger entries, newest first.
func (db *DB) ListSalesByUser(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Sale, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, checkout_id, user_id, product_id, quantity, price, created_at
		 FROM sales WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		userID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing sales for user %s: %w", userID, err)
	}
	defer rows.Close()

	sales := []model.Sale{}
	for rows.Next() {
		var s model.Sale
		if err := rows.Scan(&s.ID, &s.CheckoutID, &s.UserID, &s.ProductID, &s.Quantity, &s.Price, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning sale: %w", err)
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating sales: %w", err)
	}

	return sales, nil
}
