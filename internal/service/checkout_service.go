package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrPaymentFailed     = errors.New("payment processing failed")
	ErrOrderAccessDenied = errors.New("not authorized to access this order")
)

// OrderEventSink receives order lifecycle notifications. Publishing is
// best-effort; implementations must not fail the checkout.
type OrderEventSink interface {
	OrderConfirmed(ctx context.Context, order *domain.Order)
	OrderCancelled(ctx context.Context, order *domain.Order)
}

// CheckoutService converts a cart into an order plus a payment attempt, and
// serves order reads
type CheckoutService interface {
	Checkout(ctx context.Context, userID uuid.UUID, paymentMethod string) (*domain.Order, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
}

type checkoutService struct {
	cartRepo  repository.CartRepository
	orderRepo repository.OrderRepository
	gateway   PaymentGateway
	events    OrderEventSink
}

// NewCheckoutService creates a new instance of CheckoutService
func NewCheckoutService(
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	gateway PaymentGateway,
	events OrderEventSink,
) CheckoutService {
	return &checkoutService{
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
		gateway:   gateway,
		events:    events,
	}
}

// Checkout runs the full flow: load the cart, validate stock, snapshot
// prices, persist the pending order with its items and payment, charge the
// gateway, and commit the outcome.
//
// On a completed payment the order is confirmed, stock decremented, and the
// cart cleared, all in one transaction. On a failed payment the order and
// payment rows persist in cancelled/failed state as an audit record, the
// cart and stock stay untouched, and ErrPaymentFailed is returned. A failed
// payment is terminal for this call; retrying means a fresh checkout and a
// fresh order.
func (s *checkoutService) Checkout(ctx context.Context, userID uuid.UUID, paymentMethod string) (*domain.Order, error) {
	cartItems, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cartItems) == 0 {
		return nil, ErrEmptyCart
	}

	// Validate stock and snapshot prices at this instant. The authoritative
	// check is the conditional decrement inside Confirm; this pass exists to
	// fail fast and to name the offending product.
	orderID := uuid.New()
	var totalPrice float64
	items := make([]*domain.OrderItem, 0, len(cartItems))

	for _, cartItem := range cartItems {
		product := cartItem.Product
		if cartItem.Quantity > product.Stock {
			return nil, fmt.Errorf("product %s: %w", product.Name, ErrInsufficientStock)
		}

		totalPrice += product.Price * float64(cartItem.Quantity)
		items = append(items, &domain.OrderItem{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: product.ID,
			Quantity:  cartItem.Quantity,
			Price:     product.Price,
		})
	}

	now := time.Now()
	order := &domain.Order{
		ID:         orderID,
		UserID:     userID,
		TotalPrice: totalPrice,
		Status:     domain.OrderStatusPending,
		CreatedAt:  now,
		Items:      items,
	}
	payment := &domain.Payment{
		ID:            uuid.New(),
		OrderID:       orderID,
		PaymentMethod: paymentMethod,
		Status:        domain.PaymentStatusPending,
		CreatedAt:     now,
	}

	if err := s.orderRepo.CreateCheckout(ctx, order, payment); err != nil {
		return nil, fmt.Errorf("failed to create checkout: %w", err)
	}

	result := s.gateway.Process(orderID, totalPrice, paymentMethod)

	if !result.Completed() {
		if err := s.orderRepo.Cancel(ctx, orderID); err != nil {
			return nil, fmt.Errorf("failed to cancel order after payment failure: %w", err)
		}
		s.events.OrderCancelled(ctx, order)
		return nil, ErrPaymentFailed
	}

	if err := s.orderRepo.Confirm(ctx, order, time.Now()); err != nil {
		// The charge went through but stock ran out under us. Refund and
		// cancel so the ledger stays consistent with the payment outcome.
		if errors.Is(err, repository.ErrStockConflict) {
			s.gateway.Refund(result.TransactionID, totalPrice)
			if cancelErr := s.orderRepo.Cancel(ctx, orderID); cancelErr != nil {
				return nil, fmt.Errorf("failed to cancel order after stock conflict: %w", cancelErr)
			}
			s.events.OrderCancelled(ctx, order)
			return nil, fmt.Errorf("%w: %w", ErrInsufficientStock, err)
		}
		return nil, fmt.Errorf("failed to confirm order: %w", err)
	}

	confirmed, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load confirmed order: %w", err)
	}
	s.events.OrderConfirmed(ctx, confirmed)

	return confirmed, nil
}

// GetOrder retrieves one of the user's orders with its items. Accessing
// another user's order is denied.
func (s *checkoutService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != userID {
		return nil, ErrOrderAccessDenied
	}

	return order, nil
}

// ListOrders retrieves the user's orders, newest first
func (s *checkoutService) ListOrders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}
