package bus

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaBus is the primary transport. One shared writer handles all topics;
// each Subscribe opens a group reader over the requested topic set.
type KafkaBus struct {
	brokers []string
	writer  *kafka.Writer
}

func NewKafkaBus(brokers []string, clientID string) *KafkaBus {
	transport := &kafka.Transport{ClientID: clientID}
	return &KafkaBus{
		brokers: brokers,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			MaxAttempts:            3,
			BatchTimeout:           10 * time.Millisecond,
			WriteTimeout:           10 * time.Second,
			AllowAutoTopicCreation: true,
			Transport:              transport,
		},
	}
}

func (b *KafkaBus) Publish(ctx context.Context, msg Message) error {
	km := kafka.Message{
		Topic: msg.Topic,
		Key:   []byte(msg.Key),
		Value: msg.Value,
	}
	for k, v := range msg.Headers {
		km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return b.writer.WriteMessages(ctx, km)
}

func (b *KafkaBus) Subscribe(topics []string, group string) (Subscription, error) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		GroupID:     group,
		GroupTopics: topics,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		StartOffset: kafka.FirstOffset,
	})
	return &kafkaSubscription{reader: r}, nil
}

func (b *KafkaBus) Close() error {
	return b.writer.Close()
}

type kafkaSubscription struct {
	reader  *kafka.Reader
	pending kafka.Message
}

func (s *kafkaSubscription) Fetch(ctx context.Context) (Message, error) {
	km, err := s.reader.FetchMessage(ctx)
	if err != nil {
		return Message{}, err
	}
	s.pending = km
	msg := Message{Topic: km.Topic, Key: string(km.Key), Value: km.Value}
	if len(km.Headers) > 0 {
		msg.Headers = make(map[string]string, len(km.Headers))
		for _, h := range km.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}
	}
	return msg, nil
}

func (s *kafkaSubscription) Commit(ctx context.Context, _ Message) error {
	return s.reader.CommitMessages(ctx, s.pending)
}

func (s *kafkaSubscription) Close() error {
	return s.reader.Close()
}
