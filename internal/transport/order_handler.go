package transport

import (
	"errors"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutRequest represents the checkout payload
type CheckoutRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=card paypal bank_transfer"`
}

// OrderHandler handles HTTP requests for orders and checkout
type OrderHandler struct {
	checkoutService service.CheckoutService
	logger          *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(checkoutService service.CheckoutService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		checkoutService: checkoutService,
		logger:          logger,
	}
}

// RegisterRoutes registers order routes; all require authentication
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/checkout", h.Checkout)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
	})
}

// Checkout converts the user's cart into an order and charges the payment gateway
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.checkoutService.Checkout(r.Context(), userID, req.PaymentMethod)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			middleware.RespondWithError(w, http.StatusBadRequest, "cart is empty")
		case errors.Is(err, service.ErrInsufficientStock):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPaymentFailed):
			middleware.RespondWithError(w, http.StatusPaymentRequired, "payment failed")
		default:
			h.logger.Error("Checkout failed", zap.String("user_id", userID.String()), zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "checkout failed")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

// ListOrders returns the user's orders, newest first
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.checkoutService.ListOrders(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// GetOrder returns a single order owned by the user
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.checkoutService.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, service.ErrOrderAccessDenied):
			middleware.RespondWithError(w, http.StatusForbidden, "access denied")
		default:
			h.logger.Error("Failed to get order", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get order")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}
