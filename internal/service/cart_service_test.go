package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// In-memory fakes shared by the cart and checkout tests.

type memProductRepo struct {
	products map[uuid.UUID]*domain.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *memProductRepo) add(name string, price float64, stock int) *domain.Product {
	p := &domain.Product{
		ID:       uuid.New(),
		Name:     name,
		Price:    price,
		Stock:    stock,
		Category: "general",
	}
	m.products[p.ID] = p
	return p
}

func (m *memProductRepo) Create(ctx context.Context, product *domain.Product) error {
	m.products[product.ID] = product
	return nil
}

func (m *memProductRepo) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.products[product.ID] = product
	return nil
}

func (m *memProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *memProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *memProductRepo) List(ctx context.Context, skip, limit int) ([]*domain.Product, error) {
	out := make([]*domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *memProductRepo) SearchByName(ctx context.Context, name string) ([]*domain.Product, error) {
	return nil, nil
}

func (m *memProductRepo) FindByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	return nil, nil
}

type memCartRepo struct {
	items    map[uuid.UUID]*domain.CartItem
	products *memProductRepo
}

func newMemCartRepo(products *memProductRepo) *memCartRepo {
	return &memCartRepo{
		items:    make(map[uuid.UUID]*domain.CartItem),
		products: products,
	}
}

func (m *memCartRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	var out []*domain.CartItem
	for _, item := range m.items {
		if item.UserID != userID {
			continue
		}
		copied := *item
		copied.Product = m.products.products[item.ProductID]
		out = append(out, &copied)
	}
	return out, nil
}

func (m *memCartRepo) FindItem(ctx context.Context, userID, productID uuid.UUID) (*domain.CartItem, error) {
	for _, item := range m.items {
		if item.UserID == userID && item.ProductID == productID {
			return item, nil
		}
	}
	return nil, repository.ErrCartItemNotFound
}

func (m *memCartRepo) Create(ctx context.Context, item *domain.CartItem) error {
	m.items[item.ID] = item
	return nil
}

func (m *memCartRepo) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	item, ok := m.items[id]
	if !ok {
		return repository.ErrCartItemNotFound
	}
	item.Quantity = quantity
	return nil
}

func (m *memCartRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return repository.ErrCartItemNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memCartRepo) Clear(ctx context.Context, userID uuid.UUID) error {
	for id, item := range m.items {
		if item.UserID == userID {
			delete(m.items, id)
		}
	}
	return nil
}

func newCartFixture() (*memProductRepo, *memCartRepo, CartService) {
	products := newMemProductRepo()
	carts := newMemCartRepo(products)
	return products, carts, NewCartService(carts, products)
}

func TestAddItem_CreatesNewLine(t *testing.T) {
	products, _, svc := newCartFixture()
	product := products.add("Espresso Beans", 12.50, 10)
	userID := uuid.New()

	item, err := svc.AddItem(context.Background(), userID, product.ID, 3)
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if item.Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", item.Quantity)
	}
	if item.Product == nil || item.Product.ID != product.ID {
		t.Errorf("expected product to be populated on the line")
	}
}

func TestAddItem_IncrementsExistingLine(t *testing.T) {
	products, carts, svc := newCartFixture()
	product := products.add("Espresso Beans", 12.50, 10)
	userID := uuid.New()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, userID, product.ID, 3); err != nil {
		t.Fatalf("first AddItem failed: %v", err)
	}
	item, err := svc.AddItem(ctx, userID, product.ID, 4)
	if err != nil {
		t.Fatalf("second AddItem failed: %v", err)
	}
	if item.Quantity != 7 {
		t.Errorf("expected merged quantity 7, got %d", item.Quantity)
	}

	lines, _ := carts.ListByUser(ctx, userID)
	if len(lines) != 1 {
		t.Errorf("expected a single merged line, got %d", len(lines))
	}
}

func TestAddItem_RejectsQuantityBeyondStock(t *testing.T) {
	products, _, svc := newCartFixture()
	product := products.add("Espresso Beans", 12.50, 5)
	userID := uuid.New()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, userID, product.ID, 3); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	// 3 already in the cart; another 3 would exceed the stock of 5
	_, err := svc.AddItem(ctx, userID, product.ID, 3)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got: %v", err)
	}
}

func TestAddItem_UnknownProduct(t *testing.T) {
	_, _, svc := newCartFixture()

	_, err := svc.AddItem(context.Background(), uuid.New(), uuid.New(), 1)
	if !errors.Is(err, repository.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got: %v", err)
	}
}

func TestUpdateItem_SetsQuantity(t *testing.T) {
	products, _, svc := newCartFixture()
	product := products.add("Espresso Beans", 12.50, 10)
	userID := uuid.New()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, userID, product.ID, 3); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	item, err := svc.UpdateItem(ctx, userID, product.ID, 8)
	if err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	if item.Quantity != 8 {
		t.Errorf("expected quantity 8, got %d", item.Quantity)
	}
}

func TestUpdateItem_ZeroQuantityRemovesLine(t *testing.T) {
	products, carts, svc := newCartFixture()
	product := products.add("Espresso Beans", 12.50, 10)
	userID := uuid.New()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, userID, product.ID, 3); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	item, err := svc.UpdateItem(ctx, userID, product.ID, 0)
	if err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	if item != nil {
		t.Errorf("expected nil item after removal, got %+v", item)
	}

	lines, _ := carts.ListByUser(ctx, userID)
	if len(lines) != 0 {
		t.Errorf("expected empty cart, got %d lines", len(lines))
	}
}

func TestUpdateItem_RejectsQuantityBeyondStock(t *testing.T) {
	products, _, svc := newCartFixture()
	product := products.add("Espresso Beans", 12.50, 5)
	userID := uuid.New()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, userID, product.ID, 3); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	_, err := svc.UpdateItem(ctx, userID, product.ID, 6)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got: %v", err)
	}
}

func TestRemoveItem_MissingLine(t *testing.T) {
	products, _, svc := newCartFixture()
	product := products.add("Espresso Beans", 12.50, 10)

	err := svc.RemoveItem(context.Background(), uuid.New(), product.ID)
	if !errors.Is(err, repository.ErrCartItemNotFound) {
		t.Fatalf("expected ErrCartItemNotFound, got: %v", err)
	}
}

func TestClearCart_Idempotent(t *testing.T) {
	products, _, svc := newCartFixture()
	product := products.add("Espresso Beans", 12.50, 10)
	userID := uuid.New()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, userID, product.ID, 2); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	if err := svc.ClearCart(ctx, userID); err != nil {
		t.Fatalf("first ClearCart failed: %v", err)
	}
	if err := svc.ClearCart(ctx, userID); err != nil {
		t.Fatalf("ClearCart on empty cart should succeed, got: %v", err)
	}

	cart, err := svc.GetCart(ctx, userID)
	if err != nil {
		t.Fatalf("GetCart failed: %v", err)
	}
	if len(cart.Items) != 0 || cart.TotalItems != 0 || cart.TotalPrice != 0 {
		t.Errorf("expected empty cart with zero totals, got %+v", cart)
	}
}

func TestProperty_CartTotalsMatchLines(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("total_price and total_items equal the sums over lines", prop.ForAll(
		func(prices []float64, quantities []int) bool {
			if len(prices) == 0 {
				return true
			}
			if len(quantities) > len(prices) {
				quantities = quantities[:len(prices)]
			}

			products, _, svc := newCartFixture()
			userID := uuid.New()
			ctx := context.Background()

			var wantPrice float64
			var wantItems int
			for i, price := range prices {
				qty := 1
				if i < len(quantities) {
					qty = quantities[i]
				}
				product := products.add(fmt.Sprintf("product-%d", i), price, qty)
				if _, err := svc.AddItem(ctx, userID, product.ID, qty); err != nil {
					t.Logf("FAIL: AddItem failed: %v", err)
					return false
				}
				wantPrice += price * float64(qty)
				wantItems += qty
			}

			cart, err := svc.GetCart(ctx, userID)
			if err != nil {
				t.Logf("FAIL: GetCart failed: %v", err)
				return false
			}

			if cart.TotalItems != wantItems {
				t.Logf("FAIL: total_items = %d, want %d", cart.TotalItems, wantItems)
				return false
			}
			if diff := cart.TotalPrice - wantPrice; diff > 1e-6 || diff < -1e-6 {
				t.Logf("FAIL: total_price = %f, want %f", cart.TotalPrice, wantPrice)
				return false
			}
			return true
		},
		gen.SliceOfN(5, gen.Float64Range(0.01, 500)),
		gen.SliceOfN(5, gen.IntRange(1, 20)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
