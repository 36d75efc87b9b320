package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kafka-ecommerce/services/inventory-service/internal/inventory"
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

func (r *recordBus) byTopic(topic string) []bus.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []bus.Message
	for _, m := range r.published {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

func newTestConsumer(t *testing.T) (*Consumer, *recordBus) {
	t.Helper()
	m := inventory.NewManager(30 * time.Minute)
	m.AddProduct("LAPTOP001", "Gaming Laptop", 5, 129999)
	rb := &recordBus{}
	return &Consumer{
		Manager:  m,
		Producer: messaging.NewProducer(rb, zerolog.Nop()),
		Log:      zerolog.Nop(),
	}, rb
}

func toRaw(t *testing.T, evt any) models.EnvelopeRaw {
	t.Helper()
	body, err := json.Marshal(evt)
	require.NoError(t, err)
	raw, err := models.DecodeEnvelope(body)
	require.NoError(t, err)
	return raw
}

func TestHandleValidatedReserves(t *testing.T) {
	c, rb := newTestConsumer(t)
	items := []models.OrderItem{{ProductID: "LAPTOP001", Quantity: 2, UnitPriceCents: 129999}}

	validated := models.NewOrderValidated("order-1", items, 259998)
	require.NoError(t, c.Handle(context.Background(), toRaw(t, validated)))

	reserved := rb.byTopic(models.TopicInventoryReserved)
	require.Len(t, reserved, 1)
	var evt models.Envelope[models.InventoryReservedPayload]
	require.NoError(t, json.Unmarshal(reserved[0].Value, &evt))
	assert.NotEmpty(t, evt.Payload.ReservationID)
	assert.Equal(t, "order-1", evt.OrderID)

	p, _ := c.Manager.Product("LAPTOP001")
	assert.Equal(t, 3, p.Available)
	assert.Equal(t, 2, p.Reserved)
}

func TestHandleValidatedShortStock(t *testing.T) {
	c, rb := newTestConsumer(t)
	items := []models.OrderItem{{ProductID: "LAPTOP001", Quantity: 50, UnitPriceCents: 129999}}

	validated := models.NewOrderValidated("order-1", items, 6499950)
	require.NoError(t, c.Handle(context.Background(), toRaw(t, validated)))

	assert.Empty(t, rb.byTopic(models.TopicInventoryReserved))
	released := rb.byTopic(models.TopicInventoryReleased)
	require.Len(t, released, 1)

	var evt models.Envelope[models.InventoryReleasedPayload]
	require.NoError(t, json.Unmarshal(released[0].Value, &evt))
	assert.Equal(t, models.ReasonInsufficientInventory, evt.Payload.Reason)
	require.Len(t, evt.Payload.InsufficientItems, 1)
	assert.Equal(t, 50, evt.Payload.InsufficientItems[0].Requested)
	assert.Equal(t, 5, evt.Payload.InsufficientItems[0].Available)
}

func TestCompensationReleasesOnce(t *testing.T) {
	c, rb := newTestConsumer(t)
	items := []models.OrderItem{{ProductID: "LAPTOP001", Quantity: 2, UnitPriceCents: 129999}}
	require.NoError(t, c.Handle(context.Background(), toRaw(t, models.NewOrderValidated("order-1", items, 259998))))

	// Payment failure then the orchestrator's failure event for the same
	// order: only the first releases stock.
	require.NoError(t, c.Handle(context.Background(), toRaw(t, models.NewPaymentFailed("order-1", "Card expired"))))
	require.NoError(t, c.Handle(context.Background(), toRaw(t, models.NewOrderFailed("order-1", "payment_failed: Card expired", nil))))

	released := rb.byTopic(models.TopicInventoryReleased)
	assert.Len(t, released, 1)

	p, _ := c.Manager.Product("LAPTOP001")
	assert.Equal(t, 5, p.Available)
	assert.Equal(t, 0, p.Reserved)
}

func TestFailureWithoutReservationIsSilent(t *testing.T) {
	c, rb := newTestConsumer(t)
	require.NoError(t, c.Handle(context.Background(), toRaw(t, models.NewOrderFailed("order-x", "validation_failed: no items in order", nil))))
	assert.Empty(t, rb.byTopic(models.TopicInventoryReleased))
}

func TestCompletedConfirms(t *testing.T) {
	c, _ := newTestConsumer(t)
	items := []models.OrderItem{{ProductID: "LAPTOP001", Quantity: 2, UnitPriceCents: 129999}}
	require.NoError(t, c.Handle(context.Background(), toRaw(t, models.NewOrderValidated("order-1", items, 259998))))

	completed := models.NewOrderCompleted("order-1", "pay-1", "res-1")
	require.NoError(t, c.Handle(context.Background(), toRaw(t, completed)))

	p, _ := c.Manager.Product("LAPTOP001")
	assert.Equal(t, 3, p.Total)
	assert.Equal(t, 0, p.Reserved)
}
