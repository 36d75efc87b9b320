package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderItem struct {
	ProductID      string `json:"product_id"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type OrderCreatedPayload struct {
	CustomerID string      `json:"customer_id"`
	Items      []OrderItem `json:"items"`
	TotalCents int64       `json:"total_cents"`
}

type OrderValidatedPayload struct {
	Items      []OrderItem `json:"items"`
	TotalCents int64       `json:"total_cents"`
}

type OrderCompletedPayload struct {
	PaymentID     string `json:"payment_id"`
	ReservationID string `json:"reservation_id"`
}

type OrderFailedPayload struct {
	Reason         string   `json:"failure_reason"`
	StepsCompleted []string `json:"steps_completed"`
}

func NewOrderCreated(orderID, customerID string, items []OrderItem, totalCents int64) Envelope[OrderCreatedPayload] {
	return Envelope[OrderCreatedPayload]{
		ID:      uuid.NewString(),
		Type:    TopicOrdersCreated,
		Version: 1,
		Time:    time.Now().UTC(),
		OrderID: orderID,
		Payload: OrderCreatedPayload{CustomerID: customerID, Items: items, TotalCents: totalCents},
	}
}

func NewOrderValidated(orderID string, items []OrderItem, totalCents int64) Envelope[OrderValidatedPayload] {
	return Envelope[OrderValidatedPayload]{
		ID:      uuid.NewString(),
		Type:    TopicOrdersValidated,
		Version: 1,
		Time:    time.Now().UTC(),
		OrderID: orderID,
		Payload: OrderValidatedPayload{Items: items, TotalCents: totalCents},
	}
}

func NewOrderCompleted(orderID, paymentID, reservationID string) Envelope[OrderCompletedPayload] {
	return Envelope[OrderCompletedPayload]{
		ID:      uuid.NewString(),
		Type:    TopicOrdersCompleted,
		Version: 1,
		Time:    time.Now().UTC(),
		OrderID: orderID,
		Payload: OrderCompletedPayload{PaymentID: paymentID, ReservationID: reservationID},
	}
}

func NewOrderFailed(orderID, reason string, stepsCompleted []string) Envelope[OrderFailedPayload] {
	if stepsCompleted == nil {
		stepsCompleted = []string{}
	}
	return Envelope[OrderFailedPayload]{
		ID:      uuid.NewString(),
		Type:    TopicOrdersFailed,
		Version: 1,
		Time:    time.Now().UTC(),
		OrderID: orderID,
		Payload: OrderFailedPayload{Reason: reason, StepsCompleted: stepsCompleted},
	}
}
