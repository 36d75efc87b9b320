// Package messaging builds the event-level producer and consumer loops on
// top of the transport bus: envelope encoding, dead-lettering, dedup and
// commit handling live here so services only write handlers.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"kafka-ecommerce/shared/pkg/bus"
	"kafka-ecommerce/shared/pkg/metrics"
	"kafka-ecommerce/shared/pkg/models"
)

type Producer struct {
	Bus      bus.Bus
	Log      zerolog.Logger
	DLQTopic string

	sent        atomic.Int64
	failed      atomic.Int64
	deadLetters atomic.Int64
}

// ProducerStats is a point-in-time snapshot of send outcomes.
type ProducerStats struct {
	Sent        int64 `json:"sent"`
	Failed      int64 `json:"failed"`
	DeadLetters int64 `json:"dead_letters"`
}

func (p *Producer) Stats() ProducerStats {
	return ProducerStats{
		Sent:        p.sent.Load(),
		Failed:      p.failed.Load(),
		DeadLetters: p.deadLetters.Load(),
	}
}

func NewProducer(b bus.Bus, log zerolog.Logger) *Producer {
	return &Producer{Bus: b, Log: log, DLQTopic: models.TopicDeadLetter}
}

// Send publishes evt to topic keyed by the order id. A missing event id or
// timestamp is filled in before encoding. On publish failure the envelope is
// dead-lettered best-effort and the original error is returned.
func Send[T any](ctx context.Context, p *Producer, topic string, evt models.Envelope[T]) error {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Time.IsZero() {
		evt.Time = time.Now().UTC()
	}
	if evt.Type == "" {
		evt.Type = topic
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}

	pubErr := p.Bus.Publish(ctx, bus.Message{Topic: topic, Key: evt.OrderID, Value: body})
	if pubErr == nil {
		p.sent.Add(1)
		metrics.MessagesProduced.WithLabelValues(topic).Inc()
		p.Log.Debug().Str("topic", topic).Str("event_id", evt.ID).Str("order_id", evt.OrderID).Msg("event published")
		return nil
	}

	p.failed.Add(1)
	metrics.ProduceErrors.WithLabelValues(topic).Inc()
	p.Log.Error().Err(pubErr).Str("topic", topic).Str("order_id", evt.OrderID).Msg("publish failed, dead-lettering")
	p.deadLetter(ctx, topic, body, pubErr)
	return fmt.Errorf("publish to %s: %w", topic, pubErr)
}

func (p *Producer) deadLetter(ctx context.Context, topic string, payload []byte, cause error) {
	dl := models.DeadLetter{
		OriginalTopic:   topic,
		OriginalPayload: payload,
		ErrorType:       cause.Error(),
		FailedAt:        time.Now().UTC(),
	}
	body, err := json.Marshal(dl)
	if err != nil {
		p.Log.Error().Err(err).Msg("encode dead letter")
		return
	}
	if err := p.Bus.Publish(ctx, bus.Message{Topic: p.DLQTopic, Key: topic, Value: body}); err != nil {
		p.Log.Error().Err(err).Str("topic", topic).Msg("dead letter publish failed, message lost")
		return
	}
	p.deadLetters.Add(1)
	metrics.DeadLettered.WithLabelValues(topic).Inc()
}
