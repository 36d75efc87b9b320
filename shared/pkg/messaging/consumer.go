package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"kafka-ecommerce/shared/pkg/bus"
	"kafka-ecommerce/shared/pkg/metrics"
	"kafka-ecommerce/shared/pkg/models"
)

// Handler processes one decoded event. Returning an error marks the message
// failed in metrics and logs, but the message is still committed: retrying a
// poison message forever would stall the whole group.
type Handler func(ctx context.Context, evt models.EnvelopeRaw) error

type Consumer struct {
	Bus        bus.Bus
	Log        zerolog.Logger
	Topics     []string
	Group      string
	Handler    Handler
	WindowSize int
}

// Run consumes until ctx is cancelled. Event ids are recorded in the dedup
// window only after the handler returns, so a crash mid-handling leads to a
// redelivery rather than a lost event.
func (c *Consumer) Run(ctx context.Context) error {
	sub, err := c.Bus.Subscribe(c.Topics, c.Group)
	if err != nil {
		return err
	}
	defer sub.Close()

	window := newDedupWindow(c.WindowSize)
	log := c.Log.With().Str("group", c.Group).Logger()
	log.Info().Strs("topics", c.Topics).Msg("consumer started")

	for {
		msg, err := sub.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			log.Error().Err(err).Msg("fetch failed")
			select {
			case <-time.After(time.Second):
				continue
			case <-ctx.Done():
				return nil
			}
		}

		c.handle(ctx, log, window, msg)

		if err := sub.Commit(ctx, msg); err != nil {
			log.Error().Err(err).Str("topic", msg.Topic).Msg("commit failed")
		}
	}
}

func (c *Consumer) handle(ctx context.Context, log zerolog.Logger, window *dedupWindow, msg bus.Message) {
	evt, err := models.DecodeEnvelope(msg.Value)
	if err != nil {
		metrics.ConsumeErrors.WithLabelValues(msg.Topic, c.Group).Inc()
		log.Error().Err(err).Str("topic", msg.Topic).Msg("dropping undecodable message")
		return
	}

	if window.Seen(evt.ID) {
		metrics.DuplicatesSkipped.WithLabelValues(c.Group).Inc()
		log.Debug().Str("event_id", evt.ID).Str("topic", msg.Topic).Msg("duplicate skipped")
		return
	}

	if err := c.Handler(ctx, evt); err != nil {
		metrics.ConsumeErrors.WithLabelValues(msg.Topic, c.Group).Inc()
		log.Error().Err(err).
			Str("topic", msg.Topic).
			Str("event_id", evt.ID).
			Str("order_id", evt.OrderID).
			Msg("handler failed")
		return
	}

	window.Record(evt.ID)
	metrics.MessagesConsumed.WithLabelValues(msg.Topic, c.Group).Inc()
}
