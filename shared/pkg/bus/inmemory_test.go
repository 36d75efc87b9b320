package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryBusFanOutAcrossGroups(t *testing.T) {
	b := NewInMemoryBus()
	defer b.Close()

	subA, err := b.Subscribe([]string{"orders.created"}, "group-a")
	require.NoError(t, err)
	subB, err := b.Subscribe([]string{"orders.created"}, "group-b")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, b.Publish(ctx, Message{Topic: "orders.created", Key: "o1", Value: []byte(`{}`)}))

	msgA, err := subA.Fetch(ctx)
	require.NoError(t, err)
	msgB, err := subB.Fetch(ctx)
	require.NoError(t, err)

	assert.Equal(t, "o1", msgA.Key)
	assert.Equal(t, "o1", msgB.Key)
}

func TestInMemoryBusTopicFilter(t *testing.T) {
	b := NewInMemoryBus()
	defer b.Close()

	sub, err := b.Subscribe([]string{"payments.completed"}, "g")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, b.Publish(ctx, Message{Topic: "orders.created", Key: "skip"}))
	require.NoError(t, b.Publish(ctx, Message{Topic: "payments.completed", Key: "take"}))

	fetchCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	msg, err := sub.Fetch(fetchCtx)
	require.NoError(t, err)
	assert.Equal(t, "take", msg.Key)
}

func TestInMemoryBusSameGroupSplitsStream(t *testing.T) {
	b := NewInMemoryBus()
	defer b.Close()

	sub1, err := b.Subscribe([]string{"t"}, "workers")
	require.NoError(t, err)
	sub2, err := b.Subscribe([]string{"t"}, "workers")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, b.Publish(ctx, Message{Topic: "t", Key: "m1"}))
	require.NoError(t, b.Publish(ctx, Message{Topic: "t", Key: "m2"}))

	fetchCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	m1, err := sub1.Fetch(fetchCtx)
	require.NoError(t, err)
	m2, err := sub2.Fetch(fetchCtx)
	require.NoError(t, err)

	got := map[string]bool{m1.Key: true, m2.Key: true}
	assert.True(t, got["m1"] && got["m2"], "each message delivered exactly once per group")
}

func TestInMemoryBusFetchRespectsContext(t *testing.T) {
	b := NewInMemoryBus()
	defer b.Close()

	sub, err := b.Subscribe([]string{"t"}, "g")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = sub.Fetch(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInMemoryBusClosed(t *testing.T) {
	b := NewInMemoryBus()
	require.NoError(t, b.Close())

	err := b.Publish(context.Background(), Message{Topic: "t"})
	assert.ErrorIs(t, err, ErrBusClosed)

	_, err = b.Subscribe([]string{"t"}, "g")
	assert.ErrorIs(t, err, ErrBusClosed)
}
