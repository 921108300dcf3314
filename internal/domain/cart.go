package domain

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one (user, product) line in a shopping cart. A line exists only
// while its quantity is positive; removal and cart clearing delete the row.
type CartItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Product is populated by queries that join cart lines with the catalog.
	// It is a read-only view, never an owning reference.
	Product *Product `json:"product,omitempty" db:"-"`
}

// Cart is a user's cart lines with precomputed aggregates
type Cart struct {
	Items      []*CartItem `json:"items"`
	TotalPrice float64     `json:"total_price"`
	TotalItems int         `json:"total_items"`
}
