// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered customer account.
//
// PasswordHash holds the bcrypt hash produced at signup — the plaintext
// password is never stored. The json:"-" tag keeps the hash out of every
// API response, no matter which handler serializes a User.
//
// Email is UNIQUE at the database level; signup with an existing email is
// rejected as a conflict rather than creating a second account.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// CartLine is one (product, quantity) pair in a user's cart.
//
// Quantity is always >= 1: a line whose quantity would drop to zero is
// deleted, never stored as 0. The cart is persisted as individual rows
// keyed by (user_id, product_id) so concurrent mutations can use atomic
// per-line increments instead of replacing the whole cart.
type CartLine struct {
	ProductID string `json:"productId" db:"product_id"`
	Quantity  int    `json:"quantity"  db:"quantity"`
}
