// Package saga holds the order saga state machine and its stores.
package saga

import (
	"time"

	"kafka-ecommerce/shared/pkg/models"
)

type State string

const (
	StateCreated           State = "created"
	StateValidating        State = "validating"
	StateValidated         State = "validated"
	StateReservingStock    State = "reserving_inventory"
	StateStockReserved     State = "inventory_reserved"
	StateProcessingPayment State = "processing_payment"
	StatePaymentCompleted  State = "payment_completed"
	StateCompletingOrder   State = "completing_order"
	StateCompleted         State = "completed"
	StateFailed            State = "failed"
	StateCancelled         State = "cancelled"
)

// Terminal reports whether no further transitions are allowed from s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Step names recorded in StepsCompleted as the saga advances.
const (
	StepValidation        = "validation"
	StepInventoryReserved = "inventory_reserved"
	StepPaymentCompleted  = "payment_completed"
	StepCompletion        = "completion"
)

type Saga struct {
	OrderID        string             `json:"order_id"`
	CustomerID     string             `json:"customer_id"`
	Items          []models.OrderItem `json:"items"`
	TotalCents     int64              `json:"total_cents"`
	State          State              `json:"state"`
	StepsCompleted []string           `json:"steps_completed"`
	PaymentID      string             `json:"payment_id,omitempty"`
	ReservationID  string             `json:"reservation_id,omitempty"`
	FailureReason  string             `json:"failure_reason,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	TimeoutAt      time.Time          `json:"timeout_at"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty"`
}

func (s *Saga) markStep(step string) {
	for _, done := range s.StepsCompleted {
		if done == step {
			return
		}
	}
	s.StepsCompleted = append(s.StepsCompleted, step)
}

func (s *Saga) transition(to State, now time.Time) {
	s.State = to
	s.UpdatedAt = now
	if to.Terminal() {
		t := now
		s.CompletedAt = &t
	}
}
