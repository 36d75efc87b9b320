// Package worker wires the reservation manager to the bus: it reserves on
// validated orders, confirms on completed ones and releases on every
// failure path.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"kafka-ecommerce/services/inventory-service/internal/inventory"
	"kafka-ecommerce/shared/pkg/messaging"
	"kafka-ecommerce/shared/pkg/models"
)

type Consumer struct {
	Manager  *inventory.Manager
	Producer *messaging.Producer
	Log      zerolog.Logger
}

// Handle dispatches one order lifecycle event.
func (c *Consumer) Handle(ctx context.Context, evt models.EnvelopeRaw) error {
	switch evt.Type {
	case models.TopicOrdersValidated:
		return c.handleOrderValidated(ctx, evt)
	case models.TopicPaymentsFailed:
		return c.compensate(ctx, evt.OrderID, models.ReasonPaymentFailed)
	case models.TopicOrdersFailed:
		return c.compensate(ctx, evt.OrderID, models.ReasonOrderFailed)
	case models.TopicOrdersCompleted:
		return c.handleOrderCompleted(ctx, evt)
	default:
		c.Log.Warn().Str("type", evt.Type).Msg("unexpected event type")
		return nil
	}
}

func (c *Consumer) handleOrderValidated(ctx context.Context, evt models.EnvelopeRaw) error {
	p, err := models.DecodePayload[models.OrderValidatedPayload](evt)
	if err != nil {
		return fmt.Errorf("decode order validated: %w", err)
	}

	res, short, err := c.Manager.Reserve(evt.OrderID, p.Items)
	if err != nil {
		return err
	}
	if len(short) > 0 {
		released := models.NewInventoryReleased(evt.OrderID, "", models.ReasonInsufficientInventory, short)
		if err := messaging.Send(ctx, c.Producer, models.TopicInventoryReleased, released); err != nil {
			return err
		}
		c.Log.Info().Str("order_id", evt.OrderID).Int("short_items", len(short)).
			Msg("reservation rejected")
		return nil
	}

	reserved := models.NewInventoryReserved(evt.OrderID, res.ID, res.Items)
	if err := messaging.Send(ctx, c.Producer, models.TopicInventoryReserved, reserved); err != nil {
		return err
	}
	c.Log.Info().Str("order_id", evt.OrderID).Str("reservation_id", res.ID).Msg("inventory reserved")
	return nil
}

// compensate releases the order's active reservation, if any, and reports
// the release on the bus. Failure events for orders that never reserved
// stock are acknowledged silently.
func (c *Consumer) compensate(ctx context.Context, orderID, reason string) error {
	resID, ok := c.Manager.ReleaseForOrder(orderID, reason)
	if !ok {
		c.Log.Debug().Str("order_id", orderID).Str("reason", reason).Msg("no active reservation to release")
		return nil
	}

	released := models.NewInventoryReleased(orderID, resID, reason, nil)
	if err := messaging.Send(ctx, c.Producer, models.TopicInventoryReleased, released); err != nil {
		return err
	}
	c.Log.Info().Str("order_id", orderID).Str("reservation_id", resID).Str("reason", reason).
		Msg("reservation released")
	return nil
}

func (c *Consumer) handleOrderCompleted(_ context.Context, evt models.EnvelopeRaw) error {
	resID, ok := c.Manager.ConfirmForOrder(evt.OrderID)
	if !ok {
		c.Log.Debug().Str("order_id", evt.OrderID).Msg("no active reservation to confirm")
		return nil
	}
	c.Log.Info().Str("order_id", evt.OrderID).Str("reservation_id", resID).Msg("reservation confirmed")
	return nil
}

// Sweeper expires stale reservations on a fixed interval and reports each
// release on the bus.
type Sweeper struct {
	Manager  *inventory.Manager
	Producer *messaging.Producer
	Log      zerolog.Logger
	Interval time.Duration
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, res := range s.Manager.SweepExpired(now.UTC()) {
				released := models.NewInventoryReleased(res.OrderID, res.ID, models.ReasonExpired, nil)
				if err := messaging.Send(ctx, s.Producer, models.TopicInventoryReleased, released); err != nil {
					s.Log.Error().Err(err).Str("reservation_id", res.ID).Msg("expiry publish failed")
				}
				s.Log.Warn().Str("order_id", res.OrderID).Str("reservation_id", res.ID).
					Msg("reservation expired")
			}
		}
	}
}
