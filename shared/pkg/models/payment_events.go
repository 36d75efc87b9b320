package models

import (
	"time"

	"github.com/google/uuid"
)

const DefaultPaymentMethod = "credit_card"

type PaymentRequestedPayload struct {
	CustomerID    string `json:"customer_id"`
	AmountCents   int64  `json:"amount_cents"`
	PaymentMethod string `json:"payment_method"`
}

type PaymentCompletedPayload struct {
	PaymentID   string `json:"payment_id"`
	AmountCents int64  `json:"amount_cents"`
}

type PaymentFailedPayload struct {
	Reason string `json:"failure_reason"`
}

func NewPaymentRequested(orderID, customerID string, amountCents int64, method string) Envelope[PaymentRequestedPayload] {
	if method == "" {
		method = DefaultPaymentMethod
	}
	return Envelope[PaymentRequestedPayload]{
		ID:      uuid.NewString(),
		Type:    TopicPaymentsRequested,
		Version: 1,
		Time:    time.Now().UTC(),
		OrderID: orderID,
		Payload: PaymentRequestedPayload{CustomerID: customerID, AmountCents: amountCents, PaymentMethod: method},
	}
}

func NewPaymentCompleted(orderID, paymentID string, amountCents int64) Envelope[PaymentCompletedPayload] {
	return Envelope[PaymentCompletedPayload]{
		ID:      uuid.NewString(),
		Type:    TopicPaymentsCompleted,
		Version: 1,
		Time:    time.Now().UTC(),
		OrderID: orderID,
		Payload: PaymentCompletedPayload{PaymentID: paymentID, AmountCents: amountCents},
	}
}

func NewPaymentFailed(orderID, reason string) Envelope[PaymentFailedPayload] {
	return Envelope[PaymentFailedPayload]{
		ID:      uuid.NewString(),
		Type:    TopicPaymentsFailed,
		Version: 1,
		Time:    time.Now().UTC(),
		OrderID: orderID,
		Payload: PaymentFailedPayload{Reason: reason},
	}
}
