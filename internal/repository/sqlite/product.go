package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/storefront/internal/apperror"
	"github.com/sakif/storefront/internal/model"
	"github.com/sakif/storefront/internal/repository"
)

// compile-time check that *DB implements repository.ProductRepository
var _ repository.ProductRepository = (*DB)(nil)

const productColumns = `id, name, description, category, image, new_price,
	old_price, stock, times_purchased, sizes, tags, created_at`

// CreateProduct inserts a new product, generating the ID and creation
// timestamp.
func (db *DB) CreateProduct(ctx context.Context, p *model.Product) error {
	p.ID = xid.New().String()
	p.CreatedAt = time.Now().UTC()

	sizes, err := encodeStrings(p.Sizes)
	if err != nil {
		return fmt.Errorf("sqlite: encoding sizes: %w", err)
	}
	tags, err := encodeStrings(p.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: encoding tags: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO products (id, name, description, category, image,
		   new_price, old_price, stock, times_purchased, sizes, tags, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Category, p.Image,
		p.NewPrice, p.OldPrice, p.Stock, p.TimesPurchased, sizes, tags, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting product %q: %w", p.Name, err)
	}

	return nil
}

// GetProductByID retrieves a product.
// Returns apperror.ErrNotFound for unknown ids.
func (db *DB) GetProductByID(ctx context.Context, id string) (*model.Product, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id)

	p, err := scanProductRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("product", id)
		}
		return nil, fmt.Errorf("sqlite: getting product %s: %w", id, err)
	}
	return p, nil
}

// GetProductsByIDs fetches every existing product among ids, in stable
// creation order. Unknown ids are silently absent from the result.
func (db *DB) GetProductsByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE id IN (`+placeholders+`) ORDER BY rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting products by ids: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// DeleteProduct removes a product and returns the deleted record, so
// callers can report what was removed.
//
// Cart lines referencing the product are deleted in the same transaction;
// the sales ledger keeps its rows. A removed product can therefore still
// show up in purchase history, which is the point of a ledger.
func (db *DB) DeleteProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := db.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE product_id = ?`, id); err != nil {
		return nil, fmt.Errorf("sqlite: clearing cart lines for product %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("sqlite: deleting product %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing product delete: %w", err)
	}

	return p, nil
}

// ListProducts returns a filtered page ordered by creation order (rowid),
// plus the total count matching the filter. The ordering is stable: two
// calls over unchanged data return identical pages.
func (db *DB) ListProducts(ctx context.Context, filter repository.ProductFilter, opts repository.ListOptions) ([]model.Product, int, error) {
	where, args := buildProductFilter(filter)

	var total int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting products: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products `+where+` ORDER BY rowid LIMIT ? OFFSET ?`,
		append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing products: %w", err)
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListNewestProducts returns a page of products, most recently created
// first.
func (db *DB) ListNewestProducts(ctx context.Context, opts repository.ListOptions) ([]model.Product, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY rowid DESC LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing newest products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// ListPopularProducts returns products ordered by times purchased,
// descending; creation order breaks ties so the result is deterministic.
func (db *DB) ListPopularProducts(ctx context.Context, limit int) ([]model.Product, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products
		 ORDER BY times_purchased DESC, rowid LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing popular products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// SameCategory returns ids of other products in the category, in stable
// creation order.
func (db *DB) SameCategory(ctx context.Context, category, excludeID string, limit int) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id FROM products WHERE category = ? AND id != ? ORDER BY rowid LIMIT ?`,
		category, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing same-category products: %w", err)
	}
	defer rows.Close()

	return collectIDs(rows)
}

func buildProductFilter(filter repository.ProductFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.MinPrice != nil {
		conds = append(conds, "new_price >= ?")
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		conds = append(conds, "new_price <= ?")
		args = append(args, *filter.MaxPrice)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProductRow(row rowScanner) (*model.Product, error) {
	var (
		p           model.Product
		sizes, tags string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &p.Image,
		&p.NewPrice, &p.OldPrice, &p.Stock, &p.TimesPurchased,
		&sizes, &tags, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if p.Sizes, err = decodeStrings(sizes); err != nil {
		return nil, fmt.Errorf("sqlite: decoding sizes for product %s: %w", p.ID, err)
	}
	if p.Tags, err = decodeStrings(tags); err != nil {
		return nil, fmt.Errorf("sqlite: decoding tags for product %s: %w", p.ID, err)
	}

	return &p, nil
}

func collectProducts(rows *sql.Rows) ([]model.Product, error) {
	products := []model.Product{}
	for rows.Next() {
		p, err := scanProductRow(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating products: %w", err)
	}
	return products, nil
}

func collectIDs(rows *sql.Rows) ([]string, error) {
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating ids: %w", err)
	}
	return ids, nil
}

// Sizes and tags are small string lists; JSON text columns beat a join
// table for them.
func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeStrings(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	return values, nil
}
