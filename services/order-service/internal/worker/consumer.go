// Package worker validates newly created orders and reports the verdict on
// the bus.
package worker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"kafka-ecommerce/services/order-service/internal/validation"
	"kafka-ecommerce/shared/pkg/messaging"
	"kafka-ecommerce/shared/pkg/models"
)

type Consumer struct {
	Producer *messaging.Producer
	Log      zerolog.Logger
}

// Handle consumes orders.created, emitting orders.validated on success or
// orders.failed with the collected validation errors.
func (c *Consumer) Handle(ctx context.Context, evt models.EnvelopeRaw) error {
	if evt.Type != models.TopicOrdersCreated {
		c.Log.Warn().Str("type", evt.Type).Msg("unexpected event type")
		return nil
	}

	p, err := models.DecodePayload[models.OrderCreatedPayload](evt)
	if err != nil {
		return fmt.Errorf("decode order created: %w", err)
	}

	if errs := validation.Validate(p); len(errs) > 0 {
		failed := models.NewOrderFailed(evt.OrderID, validation.FailureReason(errs), nil)
		if err := messaging.Send(ctx, c.Producer, models.TopicOrdersFailed, failed); err != nil {
			return err
		}
		c.Log.Warn().Str("order_id", evt.OrderID).Strs("errors", errs).Msg("order rejected")
		return nil
	}

	validated := models.NewOrderValidated(evt.OrderID, p.Items, p.TotalCents)
	if err := messaging.Send(ctx, c.Producer, models.TopicOrdersValidated, validated); err != nil {
		return err
	}
	c.Log.Info().Str("order_id", evt.OrderID).Int64("total_cents", p.TotalCents).Msg("order validated")
	return nil
}
