// Package gateway abstracts the payment provider. Production wiring uses
// the simulated provider; tests plug in deterministic fakes.
package gateway

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

type ChargeRequest struct {
	OrderID       string
	CustomerID    string
	AmountCents   int64
	PaymentMethod string
}

type ChargeResult struct {
	PaymentID     string
	Succeeded     bool
	FailureReason string
}

type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// methodSuccessRates mirrors typical acquirer behaviour per method.
var methodSuccessRates = map[string]float64{
	"credit_card":   0.95,
	"debit_card":    0.98,
	"paypal":        0.92,
	"bank_transfer": 0.99,
	"crypto":        0.85,
}

var methodFailureReasons = map[string][]string{
	"credit_card": {
		"Insufficient funds",
		"Card expired",
		"Invalid CVV",
		"Card blocked by issuer",
		"Transaction declined by bank",
	},
	"debit_card": {
		"Insufficient funds",
		"Card expired",
		"Daily limit exceeded",
		"Card blocked",
	},
	"paypal": {
		"PayPal account suspended",
		"Insufficient PayPal balance",
		"Payment method not verified",
		"Transaction limit exceeded",
	},
	"bank_transfer": {
		"Account not found",
		"Insufficient funds",
		"Transfer limit exceeded",
		"Bank system unavailable",
	},
	"crypto": {
		"Insufficient wallet balance",
		"Network congestion",
		"Invalid wallet address",
		"Transaction fee too high",
	},
}

// SimulatedGateway approves or declines charges at per-method rates.
// High amounts are declined more often, mimicking fraud screening.
type SimulatedGateway struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedGateway builds a gateway seeded for reproducible runs; pass
// seed 0 for a time-based seed.
func NewSimulatedGateway(seed int64) *SimulatedGateway {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedGateway{rng: rand.New(rand.NewSource(seed))}
}

func (g *SimulatedGateway) Charge(_ context.Context, req ChargeRequest) (ChargeResult, error) {
	rate, ok := methodSuccessRates[req.PaymentMethod]
	if !ok {
		rate = 0.90
	}
	if req.AmountCents > 500000 {
		rate *= 0.8
	} else if req.AmountCents > 100000 {
		rate *= 0.9
	}

	g.mu.Lock()
	roll := g.rng.Float64()
	var reasonIdx int
	if reasons := methodFailureReasons[req.PaymentMethod]; len(reasons) > 0 {
		reasonIdx = g.rng.Intn(len(reasons))
	}
	g.mu.Unlock()

	if roll < rate {
		return ChargeResult{PaymentID: uuid.NewString(), Succeeded: true}, nil
	}

	reason := "Transaction declined"
	if reasons := methodFailureReasons[req.PaymentMethod]; len(reasons) > 0 {
		reason = reasons[reasonIdx]
	}
	return ChargeResult{PaymentID: uuid.NewString(), Succeeded: false, FailureReason: reason}, nil
}
