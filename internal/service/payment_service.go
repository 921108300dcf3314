package service

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

// Payment outcome statuses reported by the gateway
const (
	PaymentOutcomeCompleted = "completed"
	PaymentOutcomeFailed    = "failed"
	PaymentOutcomeRefunded  = "refunded"
)

// PaymentResult is the outcome of a payment attempt
type PaymentResult struct {
	Status        string
	TransactionID string
	Amount        float64
	PaymentMethod string
	Reason        string
}

// Completed reports whether the payment went through
func (r PaymentResult) Completed() bool {
	return r.Status == PaymentOutcomeCompleted
}

// RefundResult is the outcome of a refund request
type RefundResult struct {
	Status   string
	RefundID string
	Amount   float64
}

// PaymentGateway processes payments and refunds. The shipped implementation
// is a simulation; a real processor must sit behind the same interface with
// an idempotency key derived from the order ID.
type PaymentGateway interface {
	Process(orderID uuid.UUID, amount float64, paymentMethod string) PaymentResult
	Refund(transactionID string, amount float64) RefundResult
}

// DefaultSuccessRate is the fraction of simulated payments that complete
const DefaultSuccessRate = 0.9

type simulatedGateway struct {
	successRate float64
}

// NewSimulatedGateway creates a PaymentGateway that completes payments with
// the given probability. Transaction IDs are not guaranteed unique; that is
// acceptable only because this is a simulation stand-in.
func NewSimulatedGateway(successRate float64) PaymentGateway {
	return &simulatedGateway{successRate: successRate}
}

// Process simulates charging the given amount
func (g *simulatedGateway) Process(orderID uuid.UUID, amount float64, paymentMethod string) PaymentResult {
	transactionID := fmt.Sprintf("txn_%s_%04d", orderID, rand.IntN(9000)+1000)

	if rand.Float64() < g.successRate {
		return PaymentResult{
			Status:        PaymentOutcomeCompleted,
			TransactionID: transactionID,
			Amount:        amount,
			PaymentMethod: paymentMethod,
		}
	}

	return PaymentResult{
		Status:        PaymentOutcomeFailed,
		Amount:        amount,
		PaymentMethod: paymentMethod,
		Reason:        "payment processing failed",
	}
}

// Refund simulates a refund. It succeeds unconditionally; no reversal logic
// exists behind it.
func (g *simulatedGateway) Refund(transactionID string, amount float64) RefundResult {
	return RefundResult{
		Status:   PaymentOutcomeRefunded,
		RefundID: fmt.Sprintf("ref_%s_%04d", transactionID, rand.IntN(9000)+1000),
		Amount:   amount,
	}
}
