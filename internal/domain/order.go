package domain

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses. Transitions are one-way: pending moves to confirmed or
// cancelled exactly once and is immutable afterwards.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCancelled = "cancelled"
)

// Payment statuses. An order's payment status tracks the order status:
// confirmed orders have completed payments, cancelled orders failed ones.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Order represents one checkout attempt
type Order struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	TotalPrice float64   `json:"total_price" db:"total_price"`
	Status     string    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	Items []*OrderItem `json:"items,omitempty" db:"-"`
}

// OrderItem is an immutable snapshot of (product, quantity, price) taken at
// order-creation time. Price is decoupled from the live product price.
type OrderItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrderID   uuid.UUID `json:"order_id" db:"order_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Price     float64   `json:"price" db:"price"`
}

// Payment is the single payment record attached to an order
type Payment struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	OrderID       uuid.UUID  `json:"order_id" db:"order_id"`
	PaymentMethod string     `json:"payment_method" db:"payment_method"`
	Status        string     `json:"status" db:"status"`
	PaidAt        *time.Time `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}
