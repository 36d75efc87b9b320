package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kafka-ecommerce/shared/pkg/bus"
	"kafka-ecommerce/shared/pkg/messaging"
	"kafka-ecommerce/shared/pkg/models"
)

type recordBus struct {
	mu        sync.Mutex
	published []bus.Message
}

func (r *recordBus) Publish(_ context.Context, msg bus.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, msg)
	return nil
}

func (r *recordBus) Subscribe([]string, string) (bus.Subscription, error) { return nil, nil }
func (r *recordBus) Close() error                                        { return nil }

func toRaw(t *testing.T, evt any) models.EnvelopeRaw {
	t.Helper()
	body, err := json.Marshal(evt)
	require.NoError(t, err)
	raw, err := models.DecodeEnvelope(body)
	require.NoError(t, err)
	return raw
}

func TestNotifiesOnCompletion(t *testing.T) {
	rb := &recordBus{}
	c := &Consumer{Producer: messaging.NewProducer(rb, zerolog.Nop()), Log: zerolog.Nop()}

	completed := models.NewOrderCompleted("order-1", "pay-1", "res-1")
	require.NoError(t, c.Handle(context.Background(), toRaw(t, completed)))

	require.Len(t, rb.published, 1)
	assert.Equal(t, models.TopicNotificationsEmail, rb.published[0].Topic)

	var evt models.Envelope[models.EmailNotificationPayload]
	require.NoError(t, json.Unmarshal(rb.published[0].Value, &evt))
	assert.Equal(t, "order_confirmation", evt.Payload.Template)

	sent := c.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "order-1", sent[0].OrderID)
	assert.Equal(t, "sent", sent[0].Status)
}

func TestNotifiesOnFailure(t *testing.T) {
	rb := &recordBus{}
	c := &Consumer{Producer: messaging.NewProducer(rb, zerolog.Nop()), Log: zerolog.Nop()}

	failed := models.NewOrderFailed("order-1", "payment_failed: Card expired", []string{"validation"})
	require.NoError(t, c.Handle(context.Background(), toRaw(t, failed)))

	sent := c.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "order_failed", sent[0].Template)
}
