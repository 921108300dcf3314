package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrStockConflict is returned when a confirmed checkout would drive a
	// product's stock below zero. The conditional decrement makes this safe
	// against concurrent checkouts of the same product.
	ErrStockConflict = errors.New("insufficient stock")
)

// OrderRepository defines the interface for order, order item, and payment
// data access. Checkout creation and the status transitions are transactional.
type OrderRepository interface {
	CreateCheckout(ctx context.Context, order *domain.Order, payment *domain.Payment) error
	Confirm(ctx context.Context, order *domain.Order, paidAt time.Time) error
	Cancel(ctx context.Context, orderID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	FindPayment(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// CreateCheckout inserts the order, its items, and the pending payment in one
// transaction. Either all rows exist afterwards or none do.
func (r *orderRepository) CreateCheckout(ctx context.Context, order *domain.Order, payment *domain.Payment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin checkout transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO orders (id, user_id, total_price, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		order.ID,
		order.UserID,
		order.TotalPrice,
		order.Status,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO order_items (id, order_id, product_id, quantity, price)
			 VALUES ($1, $2, $3, $4, $5)`,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Quantity,
			item.Price,
		)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO payments (id, order_id, payment_method, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		payment.ID,
		payment.OrderID,
		payment.PaymentMethod,
		payment.Status,
		payment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checkout transaction: %w", err)
	}

	return nil
}

// Confirm applies the successful-payment transition in one transaction: the
// payment becomes completed, the order confirmed, each product's stock is
// decremented, and the user's cart is cleared. The decrement is conditional
// on sufficient stock; a conflict rolls the whole transition back.
func (r *orderRepository) Confirm(ctx context.Context, order *domain.Order, paidAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin confirm transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`UPDATE payments SET status = $2, paid_at = $3 WHERE order_id = $1`,
		order.ID,
		domain.PaymentStatusCompleted,
		paidAt,
	)
	if err != nil {
		return fmt.Errorf("failed to complete payment: %w", err)
	}

	result, err := tx.ExecContext(
		ctx,
		`UPDATE orders SET status = $2 WHERE id = $1 AND status = $3`,
		order.ID,
		domain.OrderStatusConfirmed,
		domain.OrderStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to confirm order: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	} else if n == 0 {
		return ErrOrderNotFound
	}

	for _, item := range order.Items {
		result, err := tx.ExecContext(
			ctx,
			`UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`,
			item.ProductID,
			item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("product %s: %w", item.ProductID, ErrStockConflict)
		}
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, order.UserID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit confirm transaction: %w", err)
	}

	return nil
}

// Cancel applies the failed-payment transition: payment failed, order
// cancelled. The rows persist as an audit record of the attempt.
func (r *orderRepository) Cancel(ctx context.Context, orderID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cancel transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`UPDATE payments SET status = $2 WHERE order_id = $1`,
		orderID,
		domain.PaymentStatusFailed,
	)
	if err != nil {
		return fmt.Errorf("failed to fail payment: %w", err)
	}

	result, err := tx.ExecContext(
		ctx,
		`UPDATE orders SET status = $2 WHERE id = $1 AND status = $3`,
		orderID,
		domain.OrderStatusCancelled,
		domain.OrderStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	} else if n == 0 {
		return ErrOrderNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cancel transaction: %w", err)
	}

	return nil
}

// FindByID retrieves an order with its items
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `
		SELECT id, user_id, total_price, status, created_at
		FROM orders
		WHERE id = $1
	`

	order := &domain.Order{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&order.TotalPrice,
		&order.Status,
		&order.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	items, err := r.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// ListByUser retrieves a user's orders, newest first, items included
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	query := `
		SELECT id, user_id, total_price, status, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order := &domain.Order{}
		err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.TotalPrice,
			&order.Status,
			&order.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	for _, order := range orders {
		items, err := r.listItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}

	return orders, nil
}

// FindPayment retrieves the payment attached to an order
func (r *orderRepository) FindPayment(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	query := `
		SELECT id, order_id, payment_method, status, paid_at, created_at
		FROM payments
		WHERE order_id = $1
	`

	payment := &domain.Payment{}
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.PaymentMethod,
		&payment.Status,
		&payment.PaidAt,
		&payment.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}

	return payment, nil
}

func (r *orderRepository) listItems(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, quantity, price
		FROM order_items
		WHERE order_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	items := []*domain.OrderItem{}
	for rows.Next() {
		item := &domain.OrderItem{}
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.Price,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}
