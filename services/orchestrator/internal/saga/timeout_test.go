package saga

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kafka-ecommerce/shared/pkg/models"
)

func TestSweepTimeoutsFailsOverdueSagas(t *testing.T) {
	o, rb := newTestOrchestrator(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return base }

	orderID := startSaga(t, o)
	require.NoError(t, o.HandleOrderEvent(ctx, toRaw(t, models.NewOrderValidated(orderID, testItems(), 105000))))

	// Before the deadline nothing happens.
	n, err := o.SweepTimeouts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	o.now = func() time.Time { return base.Add(6 * time.Minute) }
	n, err = o.SweepTimeouts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	s, _ := o.Get(ctx, orderID)
	assert.Equal(t, StateFailed, s.State)
	assert.Equal(t, models.ReasonProcessingTimeout, s.FailureReason)

	failed := rb.byTopic(models.TopicOrdersFailed)
	require.Len(t, failed, 1)
	var evt models.Envelope[models.OrderFailedPayload]
	require.NoError(t, json.Unmarshal(failed[0].Value, &evt))
	assert.Equal(t, []string{StepValidation}, evt.Payload.StepsCompleted)

	// Sweeping again does nothing.
	n, err = o.SweepTimeouts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweepSkipsCompletedSagas(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return base }

	orderID := startSaga(t, o)
	require.NoError(t, o.HandleOrderEvent(ctx, toRaw(t, models.NewOrderValidated(orderID, testItems(), 105000))))
	require.NoError(t, o.HandleInventoryEvent(ctx, toRaw(t, models.NewInventoryReserved(orderID, "res-1", testItems()))))
	require.NoError(t, o.HandlePaymentEvent(ctx, toRaw(t, models.NewPaymentCompleted(orderID, "pay-1", 105000))))

	o.now = func() time.Time { return base.Add(time.Hour) }
	n, err := o.SweepTimeouts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	s, _ := o.Get(ctx, orderID)
	assert.Equal(t, StateCompleted, s.State)
}
