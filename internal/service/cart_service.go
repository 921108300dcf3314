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
	// ErrInsufficientStock is returned when a requested quantity exceeds the
	// product's available stock. Wrapped errors name the offending product.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// CartService defines the interface for shopping cart business logic
type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error)
	UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart returns the user's cart lines with product data and aggregate
// totals: total_price = Σ(price × quantity), total_items = Σ(quantity).
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	cart := &domain.Cart{Items: items}
	for _, item := range items {
		cart.TotalPrice += item.Product.Price * float64(item.Quantity)
		cart.TotalItems += item.Quantity
	}

	return cart, nil
}

// AddItem creates or increments the cart line for a product. The prospective
// total (existing quantity plus the requested amount) may not exceed the
// product's current stock.
func (s *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	existing, err := s.cartRepo.FindItem(ctx, userID, productID)
	if err != nil && err != repository.ErrCartItemNotFound {
		return nil, fmt.Errorf("failed to check existing cart item: %w", err)
	}

	total := quantity
	if existing != nil {
		total += existing.Quantity
	}
	if total > product.Stock {
		return nil, fmt.Errorf("product %s: %w", product.Name, ErrInsufficientStock)
	}

	if existing != nil {
		if err := s.cartRepo.UpdateQuantity(ctx, existing.ID, total); err != nil {
			return nil, err
		}
		existing.Quantity = total
		existing.Product = product
		return existing, nil
	}

	item := &domain.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: time.Now(),
		Product:   product,
	}
	if err := s.cartRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// UpdateItem sets the quantity of an existing cart line. A quantity of zero
// or less removes the line; the returned item is nil in that case.
func (s *cartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	item, err := s.cartRepo.FindItem(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if quantity > product.Stock {
		return nil, fmt.Errorf("product %s: %w", product.Name, ErrInsufficientStock)
	}

	if quantity <= 0 {
		if err := s.cartRepo.Delete(ctx, item.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if err := s.cartRepo.UpdateQuantity(ctx, item.ID, quantity); err != nil {
		return nil, err
	}
	item.Quantity = quantity
	item.Product = product

	return item, nil
}

// RemoveItem deletes a cart line
func (s *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	item, err := s.cartRepo.FindItem(ctx, userID, productID)
	if err != nil {
		return err
	}

	return s.cartRepo.Delete(ctx, item.ID)
}

// ClearCart removes every line from the user's cart. Idempotent.
func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return s.cartRepo.Clear(ctx, userID)
}
