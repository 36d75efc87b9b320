package bus

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const exchangeEvents = "orders.events"

// RabbitBus maps the bus contract onto a topic exchange: topic names are
// routing keys, a consumer group is a shared durable queue bound to its
// topic set.
type RabbitBus struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewRabbitBus(url string) (*RabbitBus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchangeEvents, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &RabbitBus{conn: conn, ch: ch}, nil
}

func (b *RabbitBus) Publish(ctx context.Context, msg Message) error {
	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	if msg.Key != "" {
		headers["x-message-key"] = msg.Key
	}
	return b.ch.PublishWithContext(ctx, exchangeEvents, msg.Topic, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        msg.Value,
		Headers:     headers,
		Timestamp:   time.Now(),
	})
}

func (b *RabbitBus) Subscribe(topics []string, group string) (Subscription, error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, err
	}
	queue := group + ".q"
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, err
	}
	for _, topic := range topics {
		if err := ch.QueueBind(queue, topic, exchangeEvents, false, nil); err != nil {
			_ = ch.Close()
			return nil, err
		}
	}
	if err := ch.Qos(20, 0, false); err != nil {
		_ = ch.Close()
		return nil, err
	}
	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	return &rabbitSubscription{ch: ch, deliveries: deliveries}, nil
}

func (b *RabbitBus) Close() error {
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}

type rabbitSubscription struct {
	ch         *amqp.Channel
	deliveries <-chan amqp.Delivery
	pending    amqp.Delivery
}

func (s *rabbitSubscription) Fetch(ctx context.Context) (Message, error) {
	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case d, ok := <-s.deliveries:
		if !ok {
			return Message{}, amqp.ErrClosed
		}
		s.pending = d
		msg := Message{Topic: d.RoutingKey, Value: d.Body}
		if k, ok := d.Headers["x-message-key"].(string); ok {
			msg.Key = k
		}
		return msg, nil
	}
}

func (s *rabbitSubscription) Commit(_ context.Context, _ Message) error {
	return s.pending.Ack(false)
}

func (s *rabbitSubscription) Close() error {
	return s.ch.Close()
}
