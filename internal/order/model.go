package order

import (
	"time"

	"mobimart-be/internal/product"
)

// ShippingAddress is a value object frozen into the order at creation.
type ShippingAddress struct {
	RecipientName string `json:"recipient_name"`
	PhoneNumber   string `json:"phone_number"`
	HouseNumber   string `json:"house_number"`
	Street        string `json:"street"`
	Ward          string `json:"ward"`
	District      string `json:"district"`
	City          string `json:"city"`
}

// OrderItem is a frozen copy of a cart line: the price is the product's
// unit price at order time and is never recomputed afterwards.
type OrderItem struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`

	// Resolved at read time; a placeholder when the product was deleted.
	Product *product.Product `json:"product,omitempty"`
}

type OrderUser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Deleted bool   `json:"deleted,omitempty"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	TotalAmount     int64           `json:"total_amount"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	Status          OrderStatus     `json:"status"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Resolved at read time; a placeholder when the account was deleted.
	User *OrderUser `json:"user,omitempty"`
}

type CreateOrderParams struct {
	UserID          string
	ShippingAddress ShippingAddress
	PaymentMethod   PaymentMethod
}

type ListParams struct {
	Status   *OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
	Search   *string
	SortBy   string
	SortDir  string
	Limit    *int32
	Page     *int32
}

type UpdateStatusParams struct {
	Status        *OrderStatus
	PaymentStatus *PaymentStatus
}
