package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type stubCartService struct {
	item *domain.CartItem
	err  error
}

func (s *stubCartService) GetCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	return &domain.Cart{Items: []*domain.CartItem{}}, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	return s.item, s.err
}

func (s *stubCartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	return s.item, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	return s.err
}

func (s *stubCartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return s.err
}

func newCartRouter(svc service.CartService) *chi.Mux {
	logger := zap.NewNop()
	router := chi.NewRouter()
	handler := NewCartHandler(svc, logger)
	handler.RegisterRoutes(router, middleware.AuthMiddleware("test-secret", logger))
	return router
}

func TestUpdateCartItem_RemovalReturnsMessage(t *testing.T) {
	// A nil item from the service means the line was removed
	router := newCartRouter(&stubCartService{item: nil})

	body := []byte(`{"quantity": 0}`)
	req := httptest.NewRequest(http.MethodPut, "/api/cart/items/"+uuid.New().String(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["message"] == "" {
		t.Errorf("expected a removal message, got %v", resp)
	}
}

func TestAddCartItem_InsufficientStock(t *testing.T) {
	stockErr := fmt.Errorf("product Espresso Beans: %w", service.ErrInsufficientStock)
	router := newCartRouter(&stubCartService{err: stockErr})

	body, _ := json.Marshal(AddCartItemRequest{ProductID: uuid.New().String(), Quantity: 5})
	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for insufficient stock, got %d", w.Code)
	}
}

func TestAddCartItem_RejectsZeroQuantity(t *testing.T) {
	router := newCartRouter(&stubCartService{})

	body, _ := json.Marshal(AddCartItemRequest{ProductID: uuid.New().String(), Quantity: 0})
	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for zero quantity, got %d", w.Code)
	}
}

func TestCartRoutes_RequireAuthentication(t *testing.T) {
	router := newCartRouter(&stubCartService{})

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %d", w.Code)
	}
}
