package cart

import (
	"time"

	"mobimart-be/internal/product"
)

// CartItem is one (product, quantity) line in a user's cart. Product is
// resolved to live catalog data on reads; orders freeze their own copy.
type CartItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product *product.Product `json:"product,omitempty"`
}

type AddItemParams struct {
	ProductID string
	Quantity  int
}

type CreateItemParams struct {
	UserID    string
	ProductID string
	Quantity  int
}
