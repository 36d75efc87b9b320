package models

import (
	"encoding/json"
	"errors"
	"time"
)

// Envelope wraps every event on the bus. ID is the correlation id minted by
// the producer: it identifies one physical send, not the order, so retried
// sends of the same logical event dedup while new events about the same
// order do not.
type Envelope[T any] struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Version int       `json:"version"`
	Time    time.Time `json:"time"`
	OrderID string    `json:"order_id"`
	Payload T         `json:"payload"`
}

type EnvelopeRaw = Envelope[json.RawMessage]

var ErrBadEnvelope = errors.New("envelope missing id or order_id")

// DecodeEnvelope parses a bus message body. Missing id/order_id is rejected
// here so handlers never see a partial event.
func DecodeEnvelope(b []byte) (EnvelopeRaw, error) {
	var evt EnvelopeRaw
	if err := json.Unmarshal(b, &evt); err != nil {
		return EnvelopeRaw{}, err
	}
	if evt.ID == "" || evt.OrderID == "" {
		return EnvelopeRaw{}, ErrBadEnvelope
	}
	return evt, nil
}

// DecodePayload decodes the payload of a raw envelope into its typed form.
func DecodePayload[T any](evt EnvelopeRaw) (T, error) {
	var p T
	err := json.Unmarshal(evt.Payload, &p)
	return p, err
}
