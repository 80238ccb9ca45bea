package product

import (
	"errors"
	"time"
)

var ErrProductNotFound = errors.New("product not found")

// Product is a catalog row. Stock is never written through this package;
// only order transactions mutate it, via conditional updates.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
	Image       string `json:"image"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
	Featured    bool   `json:"featured"`
	Deleted     bool   `json:"deleted,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Placeholder synthesizes a stand-in for a product that has been removed
// from the catalog, so historical orders stay readable.
func Placeholder(id string) *Product {
	return &Product{
		ID:      id,
		Name:    "Deleted product",
		Deleted: true,
	}
}
