package model

import "time"

// Sale is one ledger entry: a quantity of one product sold to one user at
// a recorded price. Sales are append-only — no code path updates or
// deletes a row once written.
//
// CheckoutID groups the lines created by a single checkout call. Lines
// sharing a CheckoutID were bought together, which is the strongest
// signal the related-products query has.
type Sale struct {
	ID         string    `json:"id"         db:"id"`
	CheckoutID string    `json:"checkoutId" db:"checkout_id"`
	UserID     string    `json:"userId"     db:"user_id"`
	ProductID  string    `json:"productId"  db:"product_id"`
	Quantity   int       `json:"quantity"   db:"quantity"`
	Price      float64   `json:"price"      db:"price"`
	CreatedAt  time.Time `json:"date"       db:"created_at"`
}

// Receipt summarizes a completed checkout.
type Receipt struct {
	CheckoutID string   `json:"checkoutId"`
	SaleIDs    []string `json:"saleIds"`
	Total      float64  `json:"total"`
}
