// Package worker charges payment requests through the configured gateway
// and reports the outcome on the bus.
package worker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"kafka-ecommerce/services/payment-service/internal/gateway"
	"kafka-ecommerce/shared/pkg/messaging"
	"kafka-ecommerce/shared/pkg/models"
)

type Consumer struct {
	Gateway  gateway.Gateway
	Producer *messaging.Producer
	Log      zerolog.Logger
}

// Handle consumes payments.requested. A gateway error is returned to the
// consumer loop; a declined charge is a normal outcome and becomes
// payments.failed.
func (c *Consumer) Handle(ctx context.Context, evt models.EnvelopeRaw) error {
	if evt.Type != models.TopicPaymentsRequested {
		c.Log.Warn().Str("type", evt.Type).Msg("unexpected event type")
		return nil
	}

	p, err := models.DecodePayload[models.PaymentRequestedPayload](evt)
	if err != nil {
		return fmt.Errorf("decode payment request: %w", err)
	}

	res, err := c.Gateway.Charge(ctx, gateway.ChargeRequest{
		OrderID:       evt.OrderID,
		CustomerID:    p.CustomerID,
		AmountCents:   p.AmountCents,
		PaymentMethod: p.PaymentMethod,
	})
	if err != nil {
		return fmt.Errorf("charge order %s: %w", evt.OrderID, err)
	}

	if !res.Succeeded {
		failed := models.NewPaymentFailed(evt.OrderID, res.FailureReason)
		if err := messaging.Send(ctx, c.Producer, models.TopicPaymentsFailed, failed); err != nil {
			return err
		}
		c.Log.Warn().Str("order_id", evt.OrderID).Str("reason", res.FailureReason).Msg("payment declined")
		return nil
	}

	completed := models.NewPaymentCompleted(evt.OrderID, res.PaymentID, p.AmountCents)
	if err := messaging.Send(ctx, c.Producer, models.TopicPaymentsCompleted, completed); err != nil {
		return err
	}
	c.Log.Info().Str("order_id", evt.OrderID).Str("payment_id", res.PaymentID).
		Int64("amount_cents", p.AmountCents).Msg("payment completed")
	return nil
}
