package models

import (
	"time"

	"github.com/google/uuid"
)

type InsufficientItem struct {
	ProductID string `json:"product_id"`
	Reason    string `json:"reason"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

type InventoryReservedPayload struct {
	ReservationID string      `json:"reservation_id"`
	Items         []OrderItem `json:"items"`
}

type InventoryReleasedPayload struct {
	ReservationID     string             `json:"reservation_id,omitempty"`
	Reason            string             `json:"reason"`
	InsufficientItems []InsufficientItem `json:"insufficient_items,omitempty"`
}

func NewInventoryReserved(orderID, reservationID string, items []OrderItem) Envelope[InventoryReservedPayload] {
	return Envelope[InventoryReservedPayload]{
		ID:      uuid.NewString(),
		Type:    TopicInventoryReserved,
		Version: 1,
		Time:    time.Now().UTC(),
		OrderID: orderID,
		Payload: InventoryReservedPayload{ReservationID: reservationID, Items: items},
	}
}

func NewInventoryReleased(orderID, reservationID, reason string, insufficient []InsufficientItem) Envelope[InventoryReleasedPayload] {
	return Envelope[InventoryReleasedPayload]{
		ID:      uuid.NewString(),
		Type:    TopicInventoryReleased,
		Version: 1,
		Time:    time.Now().UTC(),
		OrderID: orderID,
		Payload: InventoryReleasedPayload{
			ReservationID:     reservationID,
			Reason:            reason,
			InsufficientItems: insufficient,
		},
	}
}
