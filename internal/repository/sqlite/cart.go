package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/storefront/internal/model"
	"github.com/sakif/storefront/internal/repository"
)

// compile-time check that *DB implements repository.CartRepository
var _ repository.CartRepository = (*DB)(nil)

// AddItem inserts a cart line or increments an existing one, in a single
// upsert. The increment happens inside SQLite — two concurrent AddItem
// calls for the same line both land, never a lost update.
func (db *DB) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO cart_items (user_id, product_id, quantity)
		 VALUES (?, ?, ?)
		 ON CONFLICT(user_id, product_id)
		 DO UPDATE SET quantity = quantity + excluded.quantity`,
		userID, productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding cart item (user=%s product=%s): %w", userID, productID, err)
	}
	return nil
}

// SetQuantity sets a cart line to an exact quantity, creating the line if
// it doesn't exist. Callers handle quantity <= 0 by removing the line
// instead; the CHECK constraint rejects it here.
func (db *DB) SetQuantity(ctx context.Context, userID, productID string, quantity int) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO cart_items (user_id, product_id, quantity)
		 VALUES (?, ?, ?)
		 ON CONFLICT(user_id, product_id)
		 DO UPDATE SET quantity = excluded.quantity`,
		userID, productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting cart quantity (user=%s product=%s): %w", userID, productID, err)
	}
	return nil
}

// RemoveItem deletes a cart line. Deleting an absent line affects zero
// rows and is deliberately not an error — RemoveItem is idempotent.
func (db *DB) RemoveItem(ctx context.Context, userID, productID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = ? AND product_id = ?`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing cart item (user=%s product=%s): %w", userID, productID, err)
	}
	return nil
}

// GetCart returns the user's cart lines in insertion order (rowid), which
// is stable across reads.
func (db *DB) GetCart(ctx context.Context, userID string) ([]model.CartLine, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT product_id, quantity FROM cart_items WHERE user_id = ? ORDER BY rowid`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading cart (user=%s): %w", userID, err)
	}
	defer rows.Close()

	lines := []model.CartLine{}
	for rows.Next() {
		var line model.CartLine
		if err := rows.Scan(&line.ProductID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("sqlite: scanning cart line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating cart lines: %w", err)
	}

	return lines, nil
}
