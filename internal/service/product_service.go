package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// ProductInput carries the fields for creating a product
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Stock       int
	Category    string
	ImageURL    string
}

// ProductService defines the interface for catalog business logic
type ProductService interface {
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, skip, limit int) ([]*domain.Product, error)
	Search(ctx context.Context, name string) ([]*domain.Product, error)
	GetByCategory(ctx context.Context, category string) ([]*domain.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

// Create adds a new product to the catalog
func (s *productService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	now := time.Now()
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		Category:    input.Category,
		ImageURL:    input.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// Update applies a partial update. Only fields set in the patch change; the
// rest keep their stored values.
func (s *productService) Update(ctx context.Context, id uuid.UUID, patch domain.ProductPatch) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Stock != nil {
		product.Stock = *patch.Stock
	}
	if patch.Category != nil {
		product.Category = *patch.Category
	}
	if patch.ImageURL != nil {
		product.ImageURL = *patch.ImageURL
	}
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// Delete removes a product from the catalog
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}

// GetByID retrieves a single product
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// List retrieves a page of products
func (s *productService) List(ctx context.Context, skip, limit int) ([]*domain.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if skip < 0 {
		skip = 0
	}
	return s.productRepo.List(ctx, skip, limit)
}

// Search finds products by name substring, case-insensitively
func (s *productService) Search(ctx context.Context, name string) ([]*domain.Product, error) {
	return s.productRepo.SearchByName(ctx, name)
}

// GetByCategory retrieves products in an exactly matching category
func (s *productService) GetByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	return s.productRepo.FindByCategory(ctx, category)
}
