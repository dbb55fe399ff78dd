package model

import "time"

// Product is a catalog entry.
//
// Image is a URL owned by the external image host — the backend never
// retains the uploaded bytes. NewPrice is the current selling price,
// OldPrice the previous one (for strike-through display).
//
// Stock never goes below zero: checkout decrements it with a conditional
// update and the schema carries a CHECK(stock >= 0) constraint as a second
// line of defence. TimesPurchased only ever grows.
type Product struct {
	ID             string    `json:"id"             db:"id"`
	Name           string    `json:"name"           db:"name"`
	Description    string    `json:"description"    db:"description"`
	Category       string    `json:"category"       db:"category"`
	Image          string    `json:"image"          db:"image"`
	NewPrice       float64   `json:"new_price"      db:"new_price"`
	OldPrice       float64   `json:"old_price"      db:"old_price"`
	Stock          int       `json:"stock"          db:"stock"`
	TimesPurchased int       `json:"timesPurchased" db:"times_purchased"`
	Sizes          []string  `json:"sizes"          db:"sizes"`
	Tags           []string  `json:"tags"           db:"tags"`
	CreatedAt      time.Time `json:"createdAt"      db:"created_at"`
}
