// Package sqlite implements the repository interfaces on SQLite using the
// pure-Go modernc.org/sqlite driver (no CGo, cross-compiles cleanly).
//
// The schema encodes the data-model invariants directly: UNIQUE email,
// CHECK(quantity >= 1) on cart lines, CHECK(stock >= 0) on products. The
// checkout path additionally guards stock with a conditional UPDATE, so
// the constraint is a backstop rather than the primary mechanism.
package sqlite

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements every repository
// interface. One type for all stores keeps cross-store transactions
// (checkout) on a single connection pool.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" in tests for a throwaway database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// An in-memory database exists per connection; cap the pool at one so
	// every query and transaction sees the same data.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads during writes; busy_timeout makes
	// writers queue briefly instead of failing with SQLITE_BUSY under
	// concurrent checkouts.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. Every statement is idempotent, so this is
// safe to run on an existing database.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS products (
			id              TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			category        TEXT NOT NULL,
			image           TEXT NOT NULL DEFAULT '',
			new_price       REAL NOT NULL,
			old_price       REAL NOT NULL DEFAULT 0,
			stock           INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
			times_purchased INTEGER NOT NULL DEFAULT 0,
			sizes           TEXT NOT NULL DEFAULT '[]',
			tags            TEXT NOT NULL DEFAULT '[]',
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
		CREATE INDEX IF NOT EXISTS idx_products_times_purchased ON products(times_purchased);
	`)
	if err != nil {
		return fmt.Errorf("creating products table: %w", err)
	}

	// Cart lines are individual rows, not a blob on the user record:
	// mutations become single-statement upserts keyed by
	// (user_id, product_id) and concurrent requests cannot clobber each
	// other's writes.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS cart_items (
			user_id    TEXT NOT NULL REFERENCES users(id),
			product_id TEXT NOT NULL REFERENCES products(id),
			quantity   INTEGER NOT NULL CHECK (quantity >= 1),
			PRIMARY KEY (user_id, product_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating cart_items table: %w", err)
	}

	// Sales are append-only and must outlive the products they reference:
	// removing a product from the catalog keeps its ledger rows, so
	// product_id carries no foreign key.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS sales (
			id          TEXT PRIMARY KEY,
			checkout_id TEXT NOT NULL,
			user_id     TEXT NOT NULL REFERENCES users(id),
			product_id  TEXT NOT NULL,
			quantity    INTEGER NOT NULL CHECK (quantity >= 1),
			price       REAL NOT NULL,
			created_at  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sales_checkout_id ON sales(checkout_id);
		CREATE INDEX IF NOT EXISTS idx_sales_user_id ON sales(user_id);
		CREATE INDEX IF NOT EXISTS idx_sales_product_id ON sales(product_id);
	`)
	if err != nil {
		return fmt.Errorf("creating sales table: %w", err)
	}

	return nil
}
