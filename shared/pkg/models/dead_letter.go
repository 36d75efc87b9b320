package models

import (
	"encoding/json"
	"time"
)

// DeadLetter is appended to the DLQ topic when a message could not be
// published. It is consumed out-of-band for triage, never by the saga.
type DeadLetter struct {
	OriginalTopic   string          `json:"original_topic"`
	OriginalPayload json.RawMessage `json:"original_payload,omitempty"`
	ErrorType       string          `json:"error_type"`
	FailedAt        time.Time       `json:"failed_at"`
}
