// Package worker turns terminal order events into customer notifications.
// Deliveries are recorded in memory and echoed as notifications.email
// events for downstream senders.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"kafka-ecommerce/shared/pkg/messaging"
	"kafka-ecommerce/shared/pkg/models"
)

type Notification struct {
	OrderID  string    `json:"order_id"`
	Template string    `json:"template"`
	Status   string    `json:"status"`
	SentAt   time.Time `json:"sent_at"`
}

type Consumer struct {
	Producer *messaging.Producer
	Log      zerolog.Logger

	mu   sync.Mutex
	sent []Notification
}

func (c *Consumer) Handle(ctx context.Context, evt models.EnvelopeRaw) error {
	var (
		template string
		subject  string
	)
	switch evt.Type {
	case models.TopicOrdersCompleted:
		template = "order_confirmation"
		subject = "Your order is confirmed"
	case models.TopicOrdersFailed:
		template = "order_failed"
		subject = "There was a problem with your order"
	default:
		c.Log.Warn().Str("type", evt.Type).Msg("unexpected event type")
		return nil
	}

	email := models.NewEmailNotification(evt.OrderID, "customer", template, subject)
	if err := messaging.Send(ctx, c.Producer, models.TopicNotificationsEmail, email); err != nil {
		return fmt.Errorf("notify order %s: %w", evt.OrderID, err)
	}

	n := Notification{
		OrderID:  evt.OrderID,
		Template: template,
		Status:   "sent",
		SentAt:   time.Now().UTC(),
	}
	c.mu.Lock()
	c.sent = append(c.sent, n)
	c.mu.Unlock()

	c.Log.Info().Str("order_id", evt.OrderID).Str("template", template).Msg("notification sent")
	return nil
}

// Sent returns a snapshot of everything delivered so far.
func (c *Consumer) Sent() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.sent...)
}
